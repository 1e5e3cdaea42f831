package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ZelseeH/CyberB/internal/core/domain"
)

var (
	// ErrTokenInvalid indicates the token is malformed, carries an unexpected
	// signing algorithm, or failed signature validation.
	ErrTokenInvalid = errors.New("security: invalid session token")
	// ErrTokenExpired indicates the token's expiry has passed.
	ErrTokenExpired = errors.New("security: session token expired")
)

// SessionClaims is the payload carried by a session token.
type SessionClaims struct {
	AccountID string `json:"uid"`
	Username  string `json:"username"`
	IsAdmin   bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// TokenManager mints and validates HS256-signed session tokens. Tokens are
// stateless: validity is a function of the signature and embedded expiry only.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager constructs a TokenManager with the server-held secret.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// WithClock overrides the clock, for tests.
func (m *TokenManager) WithClock(clock func() time.Time) {
	if clock != nil {
		m.now = clock
	}
}

// TTL returns the configured token lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a session token for the account.
func (m *TokenManager) Issue(account domain.Account) (string, error) {
	if account.ID == "" {
		return "", fmt.Errorf("account id is required")
	}

	now := m.now().UTC()
	claims := SessionClaims{
		AccountID: account.ID,
		Username:  account.Username,
		IsAdmin:   account.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Parse validates the signature and expiry and returns the claims. Any
// signing method other than HS256 is rejected, including "none".
func (m *TokenManager) Parse(token string) (*SessionClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenInvalid
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return m.now().UTC() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if parsed == nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.AccountID) == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
