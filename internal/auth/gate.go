package auth

import (
	"log/slog"
	"net/http"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/core/account"
	"github.com/apdq/deliver-backend/internal/transport"
)

// Authorize is a membership test of permission in the account's role.
func Authorize(acc account.Account, permission string) error {
	if acc == nil {
		return internal.ErrUnauthenticated
	}
	if !acc.Role().Has(permission) {
		return internal.ErrForbidden
	}
	return nil
}

// AllowKinds reports ErrForbidden unless acc is one of kinds.
func AllowKinds(acc account.Account, kinds ...account.Kind) error {
	if acc == nil {
		return internal.ErrUnauthenticated
	}
	for _, k := range kinds {
		if acc.Kind() == k {
			return nil
		}
	}
	return internal.ErrForbidden
}

// AllowStaffRoles reports ErrForbidden unless acc is a staff user holding
// one of roles.
func AllowStaffRoles(acc account.Account, roles ...string) error {
	if err := AllowKinds(acc, account.KindStaff); err != nil {
		return err
	}
	for _, r := range roles {
		if acc.Role().Name == r {
			return nil
		}
	}
	return internal.ErrForbidden
}

// Gate turns the checks above into chi middleware. It must run after
// AuthMiddleware.
type Gate struct {
	*transport.BaseHandler
}

func NewGate(logger *slog.Logger) *Gate {
	return &Gate{BaseHandler: transport.NewBaseHandler(logger)}
}

func (g *Gate) Require(permission string) func(http.Handler) http.Handler {
	return g.check("permission", permission, func(acc account.Account) error {
		return Authorize(acc, permission)
	})
}

func (g *Gate) RequireKind(kinds ...account.Kind) func(http.Handler) http.Handler {
	return g.check("kind", kinds, func(acc account.Account) error {
		return AllowKinds(acc, kinds...)
	})
}

func (g *Gate) RequireStaffRole(roles ...string) func(http.Handler) http.Handler {
	return g.check("staff_role", roles, func(acc account.Account) error {
		return AllowStaffRoles(acc, roles...)
	})
}

func (g *Gate) check(rule string, want interface{}, fn func(account.Account) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			acc, _ := internal.AccountFromContext(r.Context())
			if err := fn(acc); err != nil {
				if acc == nil {
					g.Logger.WarnContext(r.Context(), "authorization check failed: account not found in context")
				} else {
					g.Logger.WarnContext(r.Context(), "access denied",
						"account_id", acc.ID(),
						"kind", acc.Kind(),
						"rule", rule,
						"required", want)
				}
				g.HandleServiceError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
