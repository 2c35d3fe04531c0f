// Package auth resolves bearer tokens into actors. The core never sees
// a token; boundary middleware turns it into an actor.Actor.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dormhub/dormhub/internal/actor"
	"github.com/dormhub/dormhub/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/fx"
)

var (
	ErrMissingSecret = errors.New("auth secret not configured")
	ErrInvalidToken  = errors.New("invalid_token")
)

type TokenManager struct {
	secret []byte
}

func NewTokenManager(cfg config.Config) (*TokenManager, error) {
	secret := strings.TrimSpace(cfg.AuthJWTSecret)
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &TokenManager{secret: []byte(secret)}, nil
}

// Issue signs an HS256 token for the actor. Used by tests and by the
// external identity service sharing the secret.
func (m *TokenManager) Issue(act actor.Actor, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  act.ID.String(),
		"role": string(act.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse validates a bearer token and extracts the acting principal.
func (m *TokenManager) Parse(raw string) (actor.Actor, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return actor.Actor{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return actor.Actor{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	id, err := snowflake.ParseString(sub)
	if err != nil {
		return actor.Actor{}, ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	switch actor.Role(role) {
	case actor.RoleAdmin, actor.RoleUser:
	default:
		return actor.Actor{}, ErrInvalidToken
	}

	return actor.Actor{ID: id, Role: actor.Role(role)}, nil
}

var Module = fx.Module("auth",
	fx.Provide(NewTokenManager),
)
