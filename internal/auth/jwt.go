package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("missing authorization token")
)

// Token uses. A refresh token cannot be presented where an access token
// is expected, and vice versa.
const (
	useAccess  = "access"
	useRefresh = "refresh"
)

// Identity is the stable player identity carried by a session. The ID is
// the player ID used in every game the session joins.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Claims holds the JWT payload.
type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Use    string `json:"use"`
	jwt.RegisteredClaims
}

// Identity returns the session identity in the claims.
func (c *Claims) Identity() Identity {
	return Identity{ID: c.UserID, Name: c.Name}
}

// JWTManager handles token creation and validation.
type JWTManager struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewJWTManager creates a JWTManager with the given secret.
func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{
		secret:        []byte(secret),
		accessExpiry:  15 * time.Minute,
		refreshExpiry: 7 * 24 * time.Hour,
	}
}

func (m *JWTManager) sign(id Identity, use string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: id.ID,
		Name:   id.Name,
		Use:    use,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   id.ID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *JWTManager) parse(tokenStr, use string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Use != use || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateAccessToken parses an access token.
func (m *JWTManager) ValidateAccessToken(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, useAccess)
}

// ValidateRefreshToken parses a refresh token.
func (m *JWTManager) ValidateRefreshToken(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, useRefresh)
}

// TokenPair holds an access and refresh token.
type TokenPair struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int      `json:"expires_in"` // seconds
	Identity     Identity `json:"identity"`
}

// GenerateTokenPair creates both tokens for an identity.
func (m *JWTManager) GenerateTokenPair(id Identity) (*TokenPair, error) {
	access, err := m.sign(id, useAccess, m.accessExpiry)
	if err != nil {
		return nil, err
	}
	refresh, err := m.sign(id, useRefresh, m.refreshExpiry)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(m.accessExpiry.Seconds()),
		Identity:     id,
	}, nil
}
