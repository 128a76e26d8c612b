package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fundlift-moderation-backend/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// ActorClaims is the claim shape issued by the auth collaborator. This
// service only validates; issuance lives elsewhere (GenerateActorToken
// exists for tests and local tooling).
type ActorClaims struct {
	UserID int64    `json:"user_id"`
	Email  string   `json:"email,omitempty"`
	Roles  []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

func (c *ActorClaims) Actor() domain.Actor {
	return domain.Actor{ID: c.UserID, Email: c.Email, Roles: c.Roles}
}

type TokenManager interface {
	ValidateToken(tokenString string) (*ActorClaims, error)
	GenerateActorToken(userID int64, email string, roles []string, ttl time.Duration) (string, error)
}

type tokenManager struct {
	secret []byte
	issuer string
}

func NewTokenManager(secret, issuer string) TokenManager {
	return &tokenManager{secret: []byte(secret), issuer: issuer}
}

func (m *tokenManager) ValidateToken(tokenString string) (*ActorClaims, error) {
	claims := &ActorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if m.issuer != "" && claims.Issuer != m.issuer {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (m *tokenManager) GenerateActorToken(userID int64, email string, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ActorClaims{
		UserID: userID,
		Email:  email,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}
