package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenScope distinguishes what a signed token may be used for. The scope is
// checked at parse time, so an access token can never stand in for a refresh
// token or an email-confirmation token.
type TokenScope string

const (
	ScopeAccess  TokenScope = "access_token"
	ScopeRefresh TokenScope = "refresh_token"
	ScopeEmail   TokenScope = "email_token"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims carries the registered claims plus the scope tag. Subject is the
// account email.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies the three token kinds with a shared HS256 secret.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	emailTTL   time.Duration
}

func NewTokenManager(secret string, accessTTL, refreshTTL, emailTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		emailTTL:   emailTTL,
	}
}

// GenerateAccessToken issues a short-lived token for request authentication.
func (m *TokenManager) GenerateAccessToken(email string) (string, error) {
	return m.generate(email, ScopeAccess, m.accessTTL)
}

// GenerateRefreshToken issues a long-lived token for session renewal.
func (m *TokenManager) GenerateRefreshToken(email string) (string, error) {
	return m.generate(email, ScopeRefresh, m.refreshTTL)
}

// GenerateEmailToken issues the token embedded in the confirmation link.
func (m *TokenManager) GenerateEmailToken(email string) (string, error) {
	return m.generate(email, ScopeEmail, m.emailTTL)
}

func (m *TokenManager) generate(email string, scope TokenScope, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Scope: string(scope),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s: %w", scope, err)
	}
	return signed, nil
}

// ParseToken verifies the signature, expiry and scope, and returns the subject
// email. Every failure mode collapses to ErrTokenExpired or ErrInvalidToken.
func (m *TokenManager) ParseToken(tokenStr string, expected TokenScope) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" || claims.Scope != string(expected) {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
