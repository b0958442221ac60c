package garage

import (
	"context"
	"log/slog"
	"strings"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/core/account"
	accountDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/account"
	"github.com/apdq/deliver-backend/internal/core/events"
)

const updatedMessage = "Garage updated successfully"

type Service struct {
	repo   RepositoryAPI
	hasher PasswordHasher
	events EventPublisher
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, hasher PasswordHasher, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		events: publisher,
		logger: logger,
	}
}

// Create registers a garage on behalf of a staff administrator. The garage
// starts inactive until its subscription is paid.
func (s *Service) Create(ctx context.Context, caller account.Account, dto CreateGarageDTO) (*GarageResponse, error) {
	if !account.IsStaffAdmin(caller) {
		return nil, internal.NewForbiddenError("Only superadmin or apdq roles can create garages", internal.ErrCodeForbidden)
	}
	if !caller.Role().Has(account.PermCreateGarage) {
		return nil, internal.ErrForbidden
	}

	dto.Name = strings.TrimSpace(dto.Name)
	dto.Email = strings.TrimSpace(dto.Email)
	dto.Username = strings.TrimSpace(dto.Username)
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByName(ctx, dto.Name)
	if err != nil {
		return nil, s.lookupFailed(ctx, "name", err)
	}
	if existing != nil {
		return nil, internal.NewValidationError("Garage with this name already exists", internal.ErrCodeDuplicateGarage)
	}

	existing, err = s.repo.FindByUsername(ctx, dto.Username)
	if err != nil {
		return nil, s.lookupFailed(ctx, "username", err)
	}
	if existing != nil {
		return nil, internal.NewValidationError("Username already taken", internal.ErrCodeUsernameTaken)
	}

	existing, err = s.repo.FindByEmail(ctx, dto.Email)
	if err != nil {
		return nil, s.lookupFailed(ctx, "email", err)
	}
	if existing != nil {
		return nil, internal.NewValidationError("Email already registered", internal.ErrCodeDuplicateGarage)
	}

	role, err := s.repo.FindRoleByName(ctx, dto.RoleName)
	if err != nil {
		return nil, s.lookupFailed(ctx, "role", err)
	}
	if role == nil {
		return nil, internal.NewValidationError("Role "+dto.RoleName+" not found", internal.ErrCodeRoleNotFound)
	}

	digest, err := s.hasher.Hash(dto.Password)
	if err != nil {
		s.logger.ErrorContext(ctx, "create garage: hash failed", "error", err)
		return nil, internal.NewInternalError("failed to create garage", err)
	}

	row := &accountDatamodel.Garage{
		Name:        dto.Name,
		Email:       dto.Email,
		Username:    dto.Username,
		Password:    digest,
		RoleID:      role.ID,
		IsActive:    false,
		CreatedByID: caller.ID(),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "create garage: insert failed", "error", err)
		return nil, internal.NewInternalError("failed to create garage", err)
	}

	created, err := s.repo.FindByID(ctx, row.ID)
	if err != nil || created == nil {
		s.logger.ErrorContext(ctx, "create garage: reload failed", "garage_id", row.ID, "error", err)
		return nil, internal.NewInternalError("failed to create garage", err)
	}

	s.logger.InfoContext(ctx, "garage created", "garage_id", created.ID, "created_by_id", caller.ID())
	if err := s.events.Publish(ctx, events.NewGarageCreatedEvent(created.ID, created.Name, caller.ID())); err != nil {
		s.logger.WarnContext(ctx, "create garage: event publish failed", "garage_id", created.ID, "error", err)
	}

	resp := ToResponse(created)
	return &resp, nil
}

// Update lets a garage change its own username or password.
func (s *Service) Update(ctx context.Context, caller account.Account, dto UpdateGarageDTO) (*UpdateGarageResponse, error) {
	if caller == nil {
		return nil, internal.ErrUnauthenticated
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.FindByName(ctx, dto.GarageName)
	if err != nil {
		return nil, s.lookupFailed(ctx, "name", err)
	}
	if row == nil {
		return nil, internal.NewNotFoundError("Garage with name '"+dto.GarageName+"' not found.", internal.ErrCodeGarageNotFound)
	}
	if caller.Kind() != account.KindGarage || row.ID != caller.ID() {
		return nil, internal.NewForbiddenError("You are not authorized to update this garage.", internal.ErrCodeNotOwner)
	}

	if dto.Username != nil && *dto.Username != "" {
		taken, err := s.repo.FindByUsername(ctx, *dto.Username)
		if err != nil {
			return nil, s.lookupFailed(ctx, "username", err)
		}
		if taken != nil {
			return nil, internal.NewValidationError("Username already in use. Please choose another one.", internal.ErrCodeUsernameTaken)
		}
		row.Username = *dto.Username
	}

	if dto.Password != nil && *dto.Password != "" {
		digest, err := s.hasher.Hash(*dto.Password)
		if err != nil {
			return nil, internal.NewInternalError("failed to update garage", err)
		}
		row.Password = digest
	}

	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "update garage failed", "garage_id", row.ID, "error", err)
		return nil, internal.NewInternalError("failed to update garage", err)
	}

	s.logger.InfoContext(ctx, "garage updated", "garage_id", row.ID)
	return &UpdateGarageResponse{
		Message:    updatedMessage,
		GarageName: row.Name,
		Username:   row.Username,
	}, nil
}

func (s *Service) CountActive(ctx context.Context) (*CountResponse, error) {
	n, err := s.repo.CountActive(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "count garages failed", "error", err)
		return nil, internal.NewInternalError("failed to fetch garage count", err)
	}
	return &CountResponse{TotalGarages: n}, nil
}

// Current returns the calling garage's profile including billing state.
func (s *Service) Current(ctx context.Context, caller account.Account) (*GarageResponse, error) {
	if caller == nil {
		return nil, internal.ErrUnauthenticated
	}
	if caller.Kind() != account.KindGarage {
		return nil, internal.ErrForbidden
	}

	row, err := s.repo.FindByID(ctx, caller.ID())
	if err != nil {
		return nil, s.lookupFailed(ctx, "id", err)
	}
	if row == nil {
		return nil, internal.NewNotFoundError("Garage not found", internal.ErrCodeGarageNotFound)
	}

	resp := ToResponse(row)
	return &resp, nil
}

func (s *Service) lookupFailed(ctx context.Context, by string, err error) error {
	s.logger.ErrorContext(ctx, "garage lookup failed", "by", by, "error", err)
	return internal.NewInternalError("failed to process garage request", err)
}
