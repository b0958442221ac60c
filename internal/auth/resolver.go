package auth

import (
	"context"
	"log/slog"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/core/account"
)

// AccountFinder loads accounts by id with Role and Permissions preloaded.
// A missing row is reported as (nil, nil).
type AccountFinder interface {
	FindStaffByID(ctx context.Context, id int64) (*account.StaffUser, error)
	FindGarageByID(ctx context.Context, id int64) (*account.Garage, error)
	FindOperatorByID(ctx context.Context, id int64) (*account.Operator, error)
}

type Resolver struct {
	repo   AccountFinder
	logger *slog.Logger
}

func NewResolver(repo AccountFinder, logger *slog.Logger) *Resolver {
	return &Resolver{repo: repo, logger: logger}
}

// Resolve maps verified claims onto the account they were issued for.
// Unknown kinds, missing rows, lookup failures and role tags that no longer
// match the stored account all yield ErrUnauthenticated.
func (r *Resolver) Resolve(ctx context.Context, claims *Claims) (account.Account, error) {
	if claims == nil {
		return nil, internal.ErrUnauthenticated
	}
	id, err := claims.AccountID()
	if err != nil {
		r.logger.WarnContext(ctx, "resolve: malformed subject", "subject", claims.Subject)
		return nil, internal.ErrUnauthenticated
	}
	kind, err := account.ParseKind(claims.Kind)
	if err != nil {
		r.logger.WarnContext(ctx, "resolve: unknown account kind", "kind", claims.Kind, "account_id", id)
		return nil, internal.ErrUnauthenticated
	}

	var acc account.Account
	switch kind {
	case account.KindGarage:
		g, lookupErr := r.repo.FindGarageByID(ctx, id)
		err = lookupErr
		if g != nil {
			acc = g
		}
	case account.KindOperator:
		o, lookupErr := r.repo.FindOperatorByID(ctx, id)
		err = lookupErr
		if o != nil {
			acc = o
		}
	case account.KindStaff:
		u, lookupErr := r.repo.FindStaffByID(ctx, id)
		err = lookupErr
		if u != nil {
			acc = u
		}
	}

	if err != nil {
		r.logger.ErrorContext(ctx, "resolve: lookup failed", "kind", kind, "account_id", id, "error", err)
		return nil, internal.ErrUnauthenticated
	}
	if acc == nil {
		r.logger.WarnContext(ctx, "resolve: account not found", "kind", kind, "account_id", id)
		return nil, internal.ErrUnauthenticated
	}
	if acc.RoleTag() != claims.Role {
		r.logger.WarnContext(ctx, "resolve: role tag mismatch", "kind", kind, "account_id", id, "claimed", claims.Role)
		return nil, internal.ErrUnauthenticated
	}
	return acc, nil
}
