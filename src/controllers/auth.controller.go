package controllers

import (
	"crypto/subtle"
	"errors"
	"log"
	"net/http"

	"mms/src/db"
	"mms/src/models"
	"mms/src/types"
	"mms/src/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthLogin authenticates by username + registered mobile number and
// returns a session token plus the user profile.
func AuthLogin(ctx *gin.Context) (token *string, user *models.User, status int, err error) {
	var body types.LoginRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, nil, http.StatusBadRequest, err
	}

	gdb := db.GetDb()
	var muser models.User
	if err = gdb.
		Model(&models.User{}).
		Where(&models.User{Username: body.Username}).
		First(&muser).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, http.StatusUnauthorized, errors.New("authentication failed")
		}
		log.Printf("error: %s\n", err.Error())
		return nil, nil, http.StatusInternalServerError, err
	}
	if subtle.ConstantTimeCompare([]byte(muser.MobileNumber), []byte(body.MobileNumber)) != 1 {
		return nil, nil, http.StatusUnauthorized, errors.New("authentication failed")
	}

	signed, err := utils.GenerateJWT(muser.ID, muser.Username, muser.Role, muser.SubRole)
	if err != nil {
		log.Printf("Error generating token for user [%d]: %s\n", muser.ID, err.Error())
		return nil, nil, http.StatusInternalServerError, err
	}
	return &signed, &muser, http.StatusOK, nil
}
