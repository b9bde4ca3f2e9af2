package utils

import (
	"fmt"
	"os"
	"time"

	"mms/src/types"

	"github.com/golang-jwt/jwt/v4"
)

func IsProd() bool {
	return os.Getenv("API_ENV") == "production"
}

// GenerateJWT issues a session token for a logged-in user. The subject
// carries the user id; role and subrole ride along so clients can
// shape themselves without another fetch.
func GenerateJWT(userID uint, username string, role string, subRole types.SubRole) (string, error) {
	claims := types.Claims{
		Username: username,
		Role:     role,
		SubRole:  subRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}
