package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"learn-market/internal/model"
)

type Claims struct {
	AccountID int64      `json:"account_id"`
	Role      model.Role `json:"role"`
	jwt.RegisteredClaims
}

const TokenExp = time.Hour * 24

func GenerateToken(accountID int64, role model.Role, secret string) (string, error) {
	claims := &Claims{
		AccountID: accountID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenExp)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
