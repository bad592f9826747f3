package util

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ShareClaims gate the public read-only timeline view: the token names one
// trip and expires on its own, no account involved.
type ShareClaims struct {
	TripID string `json:"trip_id"`
	jwt.RegisteredClaims
}

type ShareTokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewShareTokenManager(secret string, ttl time.Duration) *ShareTokenManager {
	return &ShareTokenManager{secret: []byte(secret), ttl: ttl}
}

func (m *ShareTokenManager) Generate(tripID string) (string, time.Time, error) {
	expiresAt := time.Now().Add(m.ttl)
	claims := ShareClaims{
		TripID: tripID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tripID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *ShareTokenManager) Parse(tokenString string) (*ShareClaims, error) {
	claims := &ShareClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TripID == "" {
		return nil, errors.New("token missing trip id")
	}
	if claims.ExpiresAt != nil && time.Now().After(claims.ExpiresAt.Time) {
		return nil, errors.New("token expired")
	}
	return claims, nil
}
