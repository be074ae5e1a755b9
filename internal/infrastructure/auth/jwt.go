// Package auth выпускает и проверяет JWT покупателей.
package auth

import (
	"errors"
	"time"

	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "shop-assistant"

// JWTManager подписывает токены HS256. Subject — имя пользователя.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (j *JWTManager) Issue(username string) (string, time.Time, error) {
	now := j.now().UTC()
	expiresAt := now.Add(j.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   username,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, e.Wrap("JWTManager.Issue", err)
	}

	return signed, expiresAt, nil
}

// Parse возвращает имя пользователя из валидного токена. Любая ошибка проверки — ErrUnauthorized.
func (j *JWTManager) Parse(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return "", errors.Join(e.ErrUnauthorized, err)
	}

	if claims.Subject == "" {
		return "", e.Wrap("empty subject", e.ErrUnauthorized)
	}

	return claims.Subject, nil
}
