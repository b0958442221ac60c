// Package garage manages towing company accounts: creation by platform
// staff, self service updates and the garage's own profile.
package garage

import (
	"context"

	"github.com/apdq/deliver-backend/internal/auth"
	"github.com/apdq/deliver-backend/internal/core/account"
	accountDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/account"
	"github.com/apdq/deliver-backend/internal/core/events"
)

// RepositoryAPI returns (nil, nil) from every finder when nothing matches.
// Garages are always loaded with their role and its permissions.
type RepositoryAPI interface {
	FindRoleByName(ctx context.Context, name string) (*accountDatamodel.Role, error)
	FindByID(ctx context.Context, id int64) (*accountDatamodel.Garage, error)
	FindByName(ctx context.Context, name string) (*accountDatamodel.Garage, error)
	FindByUsername(ctx context.Context, username string) (*accountDatamodel.Garage, error)
	FindByEmail(ctx context.Context, email string) (*accountDatamodel.Garage, error)
	Create(ctx context.Context, g *accountDatamodel.Garage) error
	Update(ctx context.Context, g *accountDatamodel.Garage) error
	CountActive(ctx context.Context) (int64, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

func ToResponse(g *accountDatamodel.Garage) GarageResponse {
	return GarageResponse{
		ID:               g.ID,
		Name:             g.Name,
		Email:            g.Email,
		Username:         g.Username,
		RoleID:           g.RoleID,
		IsActive:         g.IsActive,
		StripeCustomerID: g.StripeCustomerID,
		PaymentStatus:    g.PaymentStatus,
		Role:             auth.NewRoleView(account.RoleFromDataModel(g.Role)),
	}
}
