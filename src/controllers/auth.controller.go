package controllers

import (
	"dms/src/lib"
	"dms/src/models"
	"dms/src/types"
	"dms/src/utils"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

type LoginResult struct {
	User  *models.User
	Token string
}

func AuthRegister(ctx *gin.Context) (*models.User, int, error) {
	var body types.RegisterUserRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	user, err := utils.RegisterUser(&body)
	if err != nil {
		if errors.Is(err, utils.ErrAlreadyExists) {
			return nil, http.StatusConflict, err
		}
		log.Printf("Error registering user [%s]: %s\n", body.Name, err.Error())
		return nil, http.StatusBadRequest, err
	}
	return user, http.StatusCreated, nil
}

func AuthLogin(ctx *gin.Context) (*LoginResult, int, error) {
	var body types.LoginRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	user, token, err := utils.Login(&body, time.Now())
	if err != nil {
		if errors.Is(err, utils.ErrForbidden) {
			return nil, http.StatusUnauthorized, err
		}
		if errors.Is(err, utils.ErrPrecondition) {
			return nil, http.StatusConflict, err
		}
		log.Printf("Error logging in user [%s]: %s\n", body.Name, err.Error())
		return nil, http.StatusBadRequest, err
	}
	return &LoginResult{User: user, Token: token}, http.StatusOK, nil
}

func AuthLogout(ctx *gin.Context) (int, error) {
	uid := ctx.GetString("id")
	if err := utils.Logout(uid); err != nil {
		log.Printf("Error logging out user [%s]: %s\n", uid, err.Error())
		return http.StatusBadRequest, err
	}
	return http.StatusOK, nil
}

func AuthResetPassword(ctx *gin.Context) (int, error) {
	var body types.ResetPasswordRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return http.StatusBadRequest, err
	}
	user, err := utils.ResetPassword(&body)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return http.StatusNotFound, err
		}
		log.Printf("Error resetting password for [%s]: %s\n", body.Name, err.Error())
		return http.StatusBadRequest, err
	}
	if user.Email != "" {
		go func() {
			err := lib.SendMail(&lib.SendMailInput{
				From:     os.Getenv("SMTP_FROM"),
				FromName: "Dealer Management",
				To:       []string{user.Email},
				Subject:  "Your password was changed",
				Body:     fmt.Sprintf("Hello %s,\n\nYour account password was just reset. If this was not you, contact your administrator immediately.\n", user.Name),
			})
			if err != nil {
				log.Printf("Error sending password reset mail to [%s]: %s\n", user.Email, err.Error())
			}
		}()
	}
	return http.StatusOK, nil
}
