// Package staff covers the platform's own administrator accounts and the
// account overviews they consult.
package staff

import (
	"context"

	"github.com/apdq/deliver-backend/internal/auth"
	"github.com/apdq/deliver-backend/internal/core/account"
	accountDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/account"
)

type RepositoryAPI interface {
	FindRoleByName(ctx context.Context, name string) (*accountDatamodel.Role, error)
	FindUserByID(ctx context.Context, id int64) (*accountDatamodel.User, error)
	FindUserByUsername(ctx context.Context, username string) (*accountDatamodel.User, error)
	CreateUser(ctx context.Context, u *accountDatamodel.User) error
	UpdateUser(ctx context.Context, u *accountDatamodel.User) error
	ListGaragesWithRemorqueurs(ctx context.Context) ([]*accountDatamodel.Garage, error)
	ListRemorqueursWithGarages(ctx context.Context) ([]*accountDatamodel.Remorqueur, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
}

func toUserResponse(u *accountDatamodel.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Role:     auth.NewRoleView(account.RoleFromDataModel(u.Role)),
		IsActive: u.IsActive,
	}
}

func toGarageSummary(g *accountDatamodel.Garage) GarageSummary {
	return GarageSummary{
		ID:          g.ID,
		Name:        g.Name,
		Username:    g.Username,
		RoleID:      g.RoleID,
		IsActive:    g.IsActive,
		CreatedByID: g.CreatedByID,
	}
}

func toRemorqueurSummary(r *accountDatamodel.Remorqueur) RemorqueurSummary {
	return RemorqueurSummary{
		ID:       r.ID,
		Name:     r.Name,
		Username: r.Username,
		RoleID:   r.RoleID,
		GarageID: r.GarageID,
		IsActive: r.IsActive,
	}
}
