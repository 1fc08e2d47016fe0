package auth

import (
	"time"

	"github.com/golang-jwt/jwt"

	"jobboard/internal/models"
	"jobboard/pkg/errors"
)

// Identity is the verified principal behind a connection or request. It is
// resolved once from a bearer token and immutable afterwards.
type Identity struct {
	UserID      uint
	Role        models.UserRole
	DisplayName string
}

// TokenVerifier turns an opaque bearer token into an Identity. The chat core
// consumes only this interface; token issuance lives with the HTTP auth
// handlers.
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

type Claims struct {
	UserID      uint   `json:"user_id"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
	jwt.StandardClaims
}

// Manager issues and verifies HS256 tokens.
type Manager struct {
	secret []byte
	expiry time.Duration
}

func NewManager(secret string, expireHours int) *Manager {
	return &Manager{
		secret: []byte(secret),
		expiry: time.Duration(expireHours) * time.Hour,
	}
}

// GenerateToken signs a token carrying the user's id, role and display name.
func (m *Manager) GenerateToken(user *models.User) (string, error) {
	nowTime := time.Now()

	claims := Claims{
		UserID:      user.ID,
		Role:        string(user.Role),
		DisplayName: user.DisplayName,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: nowTime.Add(m.expiry).Unix(),
			IssuedAt:  nowTime.Unix(),
		},
	}

	tokenClaims := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenClaims.SignedString(m.secret)
}

// Verify parses and validates a token, rejecting anything expired, malformed
// or signed with the wrong key.
func (m *Manager) Verify(token string) (*Identity, error) {
	tokenClaims, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Unauthenticated("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil || tokenClaims == nil || !tokenClaims.Valid {
		return nil, errors.Wrap(errors.CodeUnauthenticated, "invalid or expired token", err)
	}

	claims, ok := tokenClaims.Claims.(*Claims)
	if !ok {
		return nil, errors.Unauthenticated("invalid token claims")
	}

	return &Identity{
		UserID:      claims.UserID,
		Role:        models.UserRole(claims.Role),
		DisplayName: claims.DisplayName,
	}, nil
}
