package middlewares

import (
	"dms/src/config"
	"dms/src/db"
	"dms/src/lib"
	"dms/src/models"
	"dms/src/types"
	"dms/src/utils"
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware authenticates the session cookie, verifies the token is the
// user's one live session, and stashes the user onto the request context.
func AuthMiddleware(ctx *gin.Context) {
	reqToken, err := ctx.Cookie(config.SESSION_COOKIE)
	if err != nil || reqToken == "" {
		ctx.AbortWithStatus(401)
		return
	}
	claims, err := utils.ParseJWT(reqToken)
	if err != nil {
		log.Printf("token error: %s\n", err.Error())
		ctx.AbortWithStatus(401)
		return
	}
	// Advisory cache check; the user row below stays authoritative.
	if owner := lib.SessionOwner(ctx.Request.Context(), claims.ID); owner != "" && owner != claims.UserID {
		ctx.AbortWithStatus(401)
		return
	}

	conn := db.GetDb()
	var user models.User
	conn.Model(&models.User{}).Where(&models.User{Identifier: claims.UserID}).Find(&user)
	if user.ID < 1 {
		ctx.AbortWithStatus(401)
		return
	}
	// A token minted before the latest login is dead even if unexpired.
	if user.SessionToken != claims.ID || !user.HasLiveSession(time.Now()) {
		ctx.AbortWithStatus(401)
		return
	}
	ctx.Set("id", user.Identifier)
	ctx.Set("name", user.Name)
	ctx.Set("role", user.Role)
	ctx.Set("branch", user.Branch)
	ctx.Set("user", &user)
}

// RoleMiddleware gates a route group to the given roles.
func RoleMiddleware(roles ...types.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		value, ok := ctx.Get("role")
		if !ok {
			ctx.AbortWithStatus(403)
			return
		}
		role := value.(types.Role)
		for _, allowed := range roles {
			if role == allowed {
				return
			}
		}
		ctx.AbortWithStatus(403)
	}
}

// RequirePermission gates a route to holders of the named stage permission.
// Privileged roles and all_access holders pass unconditionally.
func RequirePermission(perm types.Permission) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		value, ok := ctx.Get("user")
		if !ok {
			ctx.AbortWithStatus(403)
			return
		}
		user := value.(*models.User)
		if user.Role.Privileged() {
			return
		}
		if !user.Permissions.Has(perm) {
			ctx.AbortWithStatus(403)
			return
		}
	}
}
