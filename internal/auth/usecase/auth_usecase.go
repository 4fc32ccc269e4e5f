package usecase

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// AuthUsecase verifies access tokens issued by the hosted auth provider.
// Sign-in itself happens outside this service.
type AuthUsecase interface {
	// ValidateToken returns the user id carried by a valid token
	ValidateToken(tokenString string) (string, error)
}

type authUsecase struct {
	secret []byte
}

func NewAuthUsecase(jwtSecret string) AuthUsecase {
	return &authUsecase{secret: []byte(jwtSecret)}
}

func (u *authUsecase) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return u.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	// Supabase puts the user id in "sub"; older tokens used "user_id"
	if sub, _ := claims.GetSubject(); sub != "" {
		return sub, nil
	}
	if id, ok := claims["user_id"].(string); ok && id != "" {
		return id, nil
	}
	return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
}
