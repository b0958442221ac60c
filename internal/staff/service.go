package staff

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/auth"
	"github.com/apdq/deliver-backend/internal/core/account"
	accountDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/account"
)

const updatedMessage = "User updated successfully"

type Service struct {
	repo   RepositoryAPI
	hasher PasswordHasher
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, hasher PasswordHasher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		logger: logger,
	}
}

// CreateUser provisions a staff user. It is reachable only through the
// dispatch key, never through a user token. New users start inactive.
func (s *Service) CreateUser(ctx context.Context, dto CreateUserDTO) (*UserResponse, error) {
	dto.Username = strings.TrimSpace(dto.Username)
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindUserByUsername(ctx, dto.Username)
	if err != nil {
		return nil, s.lookupFailed(ctx, "username", err)
	}
	if existing != nil {
		return nil, internal.NewValidationError("Username already exists", internal.ErrCodeUsernameTaken)
	}

	role, err := s.repo.FindRoleByName(ctx, dto.RoleName)
	if err != nil {
		return nil, s.lookupFailed(ctx, "role", err)
	}
	if role == nil {
		return nil, internal.NewValidationError("Role '"+dto.RoleName+"' does not exist", internal.ErrCodeRoleNotFound)
	}

	digest, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to create user", err)
	}

	row := &accountDatamodel.User{
		Username: dto.Username,
		Password: digest,
		RoleID:   role.ID,
		IsActive: false,
	}
	if err := s.repo.CreateUser(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "create user: insert failed", "error", err)
		return nil, internal.NewInternalError("failed to create user", err)
	}

	created, err := s.repo.FindUserByID(ctx, row.ID)
	if err != nil || created == nil {
		return nil, internal.NewInternalError("failed to create user", err)
	}

	s.logger.InfoContext(ctx, "staff user created", "user_id", created.ID, "role", role.Name)
	resp := toUserResponse(created)
	return &resp, nil
}

// UpdateAdmin renames a staff user or resets its password. A superadmin may
// update anyone; an apdq user only itself.
func (s *Service) UpdateAdmin(ctx context.Context, caller account.Account, dto UpdateAdminDTO) (*UpdateAdminResponse, error) {
	if err := auth.AllowStaffRoles(caller, account.RoleSuperAdmin, account.RoleAPDQ); err != nil {
		if errors.Is(err, internal.ErrForbidden) {
			return nil, internal.NewForbiddenError("Only superadmin and apdq users can perform this action.", internal.ErrCodeForbidden)
		}
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	target, err := s.repo.FindUserByUsername(ctx, dto.Username)
	if err != nil {
		return nil, s.lookupFailed(ctx, "username", err)
	}
	if target == nil {
		return nil, internal.NewNotFoundError("User with username '"+dto.Username+"' not found.", internal.ErrCodeUserNotFound)
	}
	if caller.Role().Name == account.RoleAPDQ && target.ID != caller.ID() {
		return nil, internal.NewForbiddenError("APDQ users can only update their own information.", internal.ErrCodeNotOwner)
	}

	if dto.NewUsername != nil && *dto.NewUsername != "" {
		taken, err := s.repo.FindUserByUsername(ctx, *dto.NewUsername)
		if err != nil {
			return nil, s.lookupFailed(ctx, "new_username", err)
		}
		if taken != nil {
			return nil, internal.NewValidationError("Username already in use. Please choose another one.", internal.ErrCodeUsernameTaken)
		}
		target.Username = *dto.NewUsername
	}

	if dto.Password != nil && *dto.Password != "" {
		digest, err := s.hasher.Hash(*dto.Password)
		if err != nil {
			return nil, internal.NewInternalError("Failed to update user information.", err)
		}
		target.Password = digest
	}

	if err := s.repo.UpdateUser(ctx, target); err != nil {
		s.logger.ErrorContext(ctx, "update admin failed", "user_id", target.ID, "error", err)
		return nil, internal.NewInternalError("Failed to update user information.", err)
	}

	s.logger.InfoContext(ctx, "staff user updated", "user_id", target.ID, "by", caller.ID())
	return &UpdateAdminResponse{
		Message:  updatedMessage,
		Username: target.Username,
		Role:     target.Role.Name,
	}, nil
}

func (s *Service) GaragesWithRemorqueurs(ctx context.Context) ([]GarageWithRemorqueurs, error) {
	rows, err := s.repo.ListGaragesWithRemorqueurs(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list garages failed", "error", err)
		return nil, internal.NewInternalError("Database error occurred while fetching garages", err)
	}

	out := make([]GarageWithRemorqueurs, 0, len(rows))
	for _, g := range rows {
		item := GarageWithRemorqueurs{
			GarageSummary: toGarageSummary(g),
			Remorqueurs:   make([]RemorqueurSummary, 0, len(g.Remorqueurs)),
		}
		for i := range g.Remorqueurs {
			item.Remorqueurs = append(item.Remorqueurs, toRemorqueurSummary(&g.Remorqueurs[i]))
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *Service) RemorqueursWithGarages(ctx context.Context) ([]RemorqueurWithGarage, error) {
	rows, err := s.repo.ListRemorqueursWithGarages(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list remorqueurs failed", "error", err)
		return nil, internal.NewInternalError("Database error occurred while fetching remorqueurs", err)
	}

	out := make([]RemorqueurWithGarage, 0, len(rows))
	for _, r := range rows {
		item := RemorqueurWithGarage{RemorqueurSummary: toRemorqueurSummary(r)}
		if r.Garage != nil {
			g := toGarageSummary(r.Garage)
			item.Garage = &g
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *Service) lookupFailed(ctx context.Context, by string, err error) error {
	s.logger.ErrorContext(ctx, "staff lookup failed", "by", by, "error", err)
	return internal.NewInternalError("failed to process user request", err)
}
