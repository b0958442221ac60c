package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/core/account"
)

var loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "deliver",
	Name:      "login_attempts_total",
	Help:      "Login attempts by outcome and matched account kind.",
}, []string{"outcome", "kind"})

// RepositoryAPI finds accounts by username or id. Every method preloads the
// role with its permissions and returns (nil, nil) when nothing matches.
type RepositoryAPI interface {
	AccountFinder
	FindStaffByUsername(ctx context.Context, username string) (*account.StaffUser, error)
	FindGarageByUsername(ctx context.Context, username string) (*account.Garage, error)
	FindOperatorByUsername(ctx context.Context, username string) (*account.Operator, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(digest, password string) bool
}

type TokenIssuerAPI interface {
	Issue(acc account.Account) (string, time.Time, error)
	Verify(token string) (*Claims, error)
}

type Service struct {
	repo     RepositoryAPI
	hasher   PasswordHasher
	tokens   TokenIssuerAPI
	resolver *Resolver
	logger   *slog.Logger

	// verified against when no account matches so both paths cost one
	// argon2 derivation
	decoy string
}

func NewService(repo RepositoryAPI, hasher PasswordHasher, tokens TokenIssuerAPI, logger *slog.Logger) *Service {
	decoy, err := hasher.Hash("decoy-password")
	if err != nil {
		logger.Warn("failed to prepare decoy digest", "error", err)
	}
	return &Service{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		resolver: NewResolver(repo, logger),
		logger:   logger,
		decoy:    decoy,
	}
}

// Login tries staff users, then garages, then operators; the first table
// holding the username wins. Unknown usernames and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*LoginResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	acc, err := s.findByUsername(ctx, dto.Username)
	if err != nil {
		s.logger.ErrorContext(ctx, "login: account lookup failed", "error", err)
		loginAttempts.WithLabelValues("error", "").Inc()
		return nil, internal.NewInternalError("failed to process login", err)
	}

	if acc == nil {
		s.hasher.Verify(s.decoy, dto.Password)
		s.logger.InfoContext(ctx, "login: unknown username")
		loginAttempts.WithLabelValues("rejected", "").Inc()
		return nil, internal.ErrInvalidCredentials
	}

	if !s.hasher.Verify(acc.PasswordHash(), dto.Password) {
		s.logger.InfoContext(ctx, "login: password mismatch", "account_id", acc.ID(), "kind", acc.Kind())
		loginAttempts.WithLabelValues("rejected", string(acc.Kind())).Inc()
		return nil, internal.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(acc)
	if err != nil {
		s.logger.ErrorContext(ctx, "login: token issue failed", "account_id", acc.ID(), "error", err)
		loginAttempts.WithLabelValues("error", string(acc.Kind())).Inc()
		return nil, internal.NewInternalError("failed to issue token", err)
	}

	s.logger.InfoContext(ctx, "login succeeded", "account_id", acc.ID(), "kind", acc.Kind(), "role", acc.RoleTag())
	loginAttempts.WithLabelValues("success", string(acc.Kind())).Inc()

	return &LoginResult{Account: acc, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *Service) findByUsername(ctx context.Context, username string) (account.Account, error) {
	u, err := s.repo.FindStaffByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}

	g, err := s.repo.FindGarageByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if g != nil {
		return g, nil
	}

	o, err := s.repo.FindOperatorByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if o != nil {
		return o, nil
	}
	return nil, nil
}

// Authenticate verifies a raw token and resolves the account behind it.
func (s *Service) Authenticate(ctx context.Context, token string) (account.Account, error) {
	if token == "" {
		return nil, internal.ErrUnauthenticated
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, internal.ErrUnauthenticated
	}
	return s.resolver.Resolve(ctx, claims)
}

// HashPassword is exposed for the services that create accounts.
func (s *Service) HashPassword(password string) (string, error) {
	return s.hasher.Hash(password)
}
