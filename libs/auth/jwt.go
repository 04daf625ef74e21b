package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

const RoleProfessional = "professional"

// Claims identify the professional managing their own calendar.
type Claims struct {
	ProfessionalID string `json:"professional_id"`
	Role           string `json:"role"`
	jwt.RegisteredClaims
}

// SignHS256 issues a token for claims valid for ttl from now.
func SignHS256(claims Claims, secret string, ttl time.Duration, now time.Time) (string, error) {
	if claims.Subject == "" {
		claims.Subject = claims.ProfessionalID
	}
	claims.IssuedAt = jwt.NewNumericDate(now)
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseAndVerifyHS256 rejects tokens with any other algorithm, a bad signature or an expired exp.
func ParseAndVerifyHS256(raw, secret string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ProfessionalID == "" {
		claims.ProfessionalID = claims.Subject
	}
	return &claims, nil
}
