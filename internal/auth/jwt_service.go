package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultAccessTTL is the lifetime of access tokens.
	DefaultAccessTTL = 8 * time.Hour
	// DefaultRefreshTTL is the lifetime of refresh tokens.
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

var (
	// ErrTokenInvalid is returned for malformed, tampered or foreign tokens.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Identity is the authenticated principal carried by a token.
type Identity struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

// Claims represents JWT claims.
type Claims struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Identity returns the principal stored in the claims.
func (c *Claims) Identity() Identity {
	return Identity{ID: c.ID, Email: c.Email}
}

// TokenService issues and verifies HMAC signed access and refresh tokens.
// Both token kinds share the secret and the claim layout; only the
// lifetime differs.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService creates a token service. Zero TTLs fall back to the
// defaults.
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock returns a copy of the service that reads time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

// IssueAccess signs a short lived access token.
func (s *TokenService) IssueAccess(id Identity) (string, error) {
	return s.issue(id, s.accessTTL)
}

// IssueRefresh signs a long lived refresh token.
func (s *TokenService) IssueRefresh(id Identity) (string, error) {
	return s.issue(id, s.refreshTTL)
}

func (s *TokenService) issue(id Identity, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		ID:    id.ID,
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the token's identity.
func (s *TokenService) Verify(token string) (Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}
	if !parsed.Valid || claims.ID == 0 {
		return Identity{}, ErrTokenInvalid
	}
	return claims.Identity(), nil
}
