package utils

import (
	"context"
	"dms/src/config"
	"dms/src/db"
	"dms/src/lib"
	"dms/src/models"
	"dms/src/types"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func HashPassword(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func ComparePassword(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// GenerateJWT signs a session token for the user. The token identifier is
// stored on the user row so that a later login can invalidate it.
func GenerateJWT(user *models.User, now time.Time) (string, *types.Claims, error) {
	expiry := now.Add(time.Hour * config.TOKEN_TTL_HOURS)
	claims := types.Claims{
		UserID: user.Identifier,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.Name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	signed, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		return "", nil, err
	}
	return signed, &claims, nil
}

// ParseJWT validates a signed session token and returns its claims.
func ParseJWT(signed string) (*types.Claims, error) {
	var claims types.Claims
	token, err := jwt.ParseWithClaims(signed, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return &claims, nil
}

// RegisterUser creates an account. Names are unique; a duplicate is a
// conflict.
func RegisterUser(params *types.RegisterUserRequestBody) (*models.User, error) {
	hashed, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}
	role := params.Role
	if role == "" {
		role = types.ROLE_STAFF
	}
	branch := params.Branch
	if branch == "" {
		branch = "all"
	}
	user := models.User{
		Identifier:  uuid.NewString(),
		Name:        params.Name,
		Email:       params.Email,
		Phone:       params.Phone,
		Password:    hashed,
		Role:        role,
		Branch:      branch,
		Permissions: params.Perms,
	}
	conn := db.GetDb()
	if err := conn.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: user %s", ErrAlreadyExists, params.Name)
		}
		return nil, err
	}
	return &user, nil
}

// Login verifies credentials and opens a session. A user with a live
// session is refused a second one until logout or expiry.
func Login(params *types.LoginRequestBody, now time.Time) (*models.User, string, error) {
	var user models.User
	var signed string
	conn := db.GetDb()
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&models.User{Name: params.Name}).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: invalid credentials", ErrForbidden)
			}
			return err
		}
		if !ComparePassword(user.Password, params.Password) {
			return fmt.Errorf("%w: invalid credentials", ErrForbidden)
		}
		if user.HasLiveSession(now) {
			return fmt.Errorf("%w: user already has an active session", ErrPrecondition)
		}
		token, claims, err := GenerateJWT(&user, now)
		if err != nil {
			return err
		}
		signed = token
		expiry := claims.ExpiresAt.Time
		user.SessionToken = claims.ID
		user.SessionStart = &now
		user.SessionExpiry = &expiry
		return tx.Model(&user).Updates(map[string]any{
			"session_token":  claims.ID,
			"session_start":  now,
			"session_expiry": expiry,
		}).Error
	})
	if err != nil {
		return nil, "", err
	}
	lib.CacheSession(context.Background(), user.SessionToken, user.Identifier, time.Hour*config.TOKEN_TTL_HOURS)
	return &user, signed, nil
}

// Logout clears the user's session row. Idempotent.
func Logout(userID string) error {
	user, err := GetUserByIdentifier(userID)
	if err != nil {
		return err
	}
	if user.SessionToken != "" {
		lib.DropSession(context.Background(), user.SessionToken)
	}
	conn := db.GetDb()
	return conn.
		Model(&models.User{}).
		Where("identifier = ?", userID).
		Updates(map[string]any{
			"session_token":  "",
			"session_start":  nil,
			"session_expiry": nil,
		}).Error
}

// ResetPassword replaces the user's password and kills any live session.
func ResetPassword(params *types.ResetPasswordRequestBody) (*models.User, error) {
	hashed, err := HashPassword(params.NewPassword)
	if err != nil {
		return nil, err
	}
	var user models.User
	conn := db.GetDb()
	err = conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&models.User{Name: params.Name}).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: user %s", ErrNotFound, params.Name)
			}
			return err
		}
		if user.SessionToken != "" {
			lib.DropSession(context.Background(), user.SessionToken)
		}
		return tx.Model(&user).Updates(map[string]any{
			"password":       hashed,
			"session_token":  "",
			"session_start":  nil,
			"session_expiry": nil,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByIdentifier loads a user by public id.
func GetUserByIdentifier(id string) (*models.User, error) {
	var user models.User
	conn := db.GetDb()
	if err := conn.Where(&models.User{Identifier: id}).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
		}
		return nil, err
	}
	return &user, nil
}

// AssignRole changes a user's role.
func AssignRole(params *types.AssignRoleRequestBody) (*models.User, error) {
	var user models.User
	conn := db.GetDb()
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&models.User{Name: params.Name}).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: user %s", ErrNotFound, params.Name)
			}
			return err
		}
		user.Role = params.Role
		return tx.Model(&user).Update("role", params.Role).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SweepExpiredSessions clears session columns on users whose expiry has
// passed. Runs on a schedule.
func SweepExpiredSessions() {
	conn := db.GetDb()
	res := conn.
		Model(&models.User{}).
		Where("session_token <> '' AND session_expiry < ?", time.Now()).
		Updates(map[string]any{
			"session_token":  "",
			"session_start":  nil,
			"session_expiry": nil,
		})
	if res.Error != nil {
		log.Printf("Error sweeping expired sessions: %s\n", res.Error.Error())
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("Swept %d expired sessions\n", res.RowsAffected)
	}
}
