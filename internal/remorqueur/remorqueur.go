// Package remorqueur manages the tow-truck operators that belong to a
// garage. Only the owning garage may create, change or remove them.
package remorqueur

import (
	"context"

	"github.com/apdq/deliver-backend/internal/auth"
	"github.com/apdq/deliver-backend/internal/core/account"
	accountDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/account"
)

// RepositoryAPI finders return (nil, nil) when nothing matches. Operators
// are loaded with their role permissions and their garage.
type RepositoryAPI interface {
	FindRoleByName(ctx context.Context, name string) (*accountDatamodel.Role, error)
	FindGarageByName(ctx context.Context, name string) (*accountDatamodel.Garage, error)
	FindByID(ctx context.Context, id int64) (*accountDatamodel.Remorqueur, error)
	FindByUsername(ctx context.Context, username string) (*accountDatamodel.Remorqueur, error)
	ListByGarage(ctx context.Context, garageID int64) ([]*accountDatamodel.Remorqueur, error)
	Create(ctx context.Context, r *accountDatamodel.Remorqueur) error
	Update(ctx context.Context, r *accountDatamodel.Remorqueur) error
	// Delete removes the operator together with its message receipts.
	Delete(ctx context.Context, id int64) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
}

func ToResponse(r *accountDatamodel.Remorqueur) RemorqueurResponse {
	resp := RemorqueurResponse{
		ID:       r.ID,
		Name:     r.Name,
		Tel:      r.Tel,
		Username: r.Username,
		Role:     auth.NewRoleView(account.RoleFromDataModel(r.Role)),
		IsActive: r.IsActive,
	}
	if r.Garage != nil {
		resp.GarageName = r.Garage.Name
	}
	return resp
}
