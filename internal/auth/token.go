package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/golang-jwt/jwt/v5"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/core/account"
)

const (
	TokenTTL      = 24 * time.Hour
	TokenType     = "bearer"
	TokenTimezone = "America/New_York"
)

// Claims is the verified payload of an access token.
type Claims struct {
	Role        string   `json:"role"`
	Kind        string   `json:"kind"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// AccountID parses the subject claim.
func (c *Claims) AccountID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

type TokenIssuer struct {
	secret   []byte
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

func NewTokenIssuer(secret string, logger *slog.Logger) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	loc, err := time.LoadLocation(TokenTimezone)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", TokenTimezone, err)
	}
	return &TokenIssuer{
		secret:   []byte(secret),
		location: loc,
		now:      time.Now,
		logger:   logger,
	}, nil
}

// WithClock swaps the time source.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	t.now = now
	return t
}

// Issue signs a token for acc and returns it with its expiry.
func (t *TokenIssuer) Issue(acc account.Account) (string, time.Time, error) {
	expiresAt := t.now().In(t.location).Add(TokenTTL)

	claims := &Claims{
		Role:        acc.RoleTag(),
		Kind:        string(acc.Kind()),
		Permissions: acc.Role().PermissionNames(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(acc.ID(), 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry, then the presence of subject and role.
// Every failure is reported as ErrUnauthenticated; the reason is only logged.
func (t *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		t.logger.Debug("token rejected", "reason", err)
		return nil, internal.ErrUnauthenticated
	}

	if claims.Subject == "" || claims.Role == "" {
		t.logger.Debug("token rejected", "reason", "missing subject or role")
		return nil, internal.ErrUnauthenticated
	}
	return claims, nil
}
