package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"tailor-app/internal/models"
)

// SessionClaims is the payload of an admin session token.
type SessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (c *SessionClaims) Principal() models.Principal {
	return models.Principal{ID: c.Subject, Email: c.Email, Name: c.Name, Role: c.Role}
}

type JWTUtil struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTUtil(secret string, ttl time.Duration) *JWTUtil {
	return &JWTUtil{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (j *JWTUtil) GenerateToken(p models.Principal) (string, *SessionClaims, error) {
	now := j.now()
	claims := &SessionClaims{
		Email: p.Email,
		Name:  p.Name,
		Role:  p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

func (j *JWTUtil) ValidateToken(tokenString string) (*SessionClaims, error) {
	claims := new(SessionClaims)
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return j.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
