// Package auth validates the opaque bearer credential a client passes in
// the connection handshake and resolves it to a principal.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/teamflow/realtime/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// UserResolver looks up the stored user behind a token's subject. Token
// issuance lives in the account service; this side only verifies.
type UserResolver interface {
	GetUser(id domain.UserID) (*domain.User, error)
}

type Validator struct {
	secret []byte
	users  UserResolver
}

func NewValidator(secret string, users UserResolver) *Validator {
	return &Validator{secret: []byte(secret), users: users}
}

// Resolve turns a raw token into a principal. Every failure path, malformed
// or expired input included, degrades to anonymous (nil); a bad credential
// must never take down the handshake handler.
func (v *Validator) Resolve(token string) *domain.Principal {
	if token == "" {
		return nil
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil {
		log.Debug().Err(err).Str("module", "auth").Msg("token rejected")
		return nil
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return nil
	}
	user, err := v.users.GetUser(domain.UserID(claims.UserID))
	if err != nil {
		log.Debug().Err(err).Str("module", "auth").Str("user", claims.UserID).Msg("token user not found")
		return nil
	}
	return &domain.Principal{ID: user.ID, Name: user.FullName, Admin: user.IsAdmin()}
}

// Sign issues an access token for the given user. Used by the account
// service and by tests.
func Sign(secret string, userID domain.UserID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: string(userID),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(userID),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
