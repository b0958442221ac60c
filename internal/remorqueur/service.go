package remorqueur

import (
	"context"
	"log/slog"
	"strings"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/auth"
	"github.com/apdq/deliver-backend/internal/core/account"
	accountDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/account"
)

const deletedMessage = "Remorqueur successfully deleted"

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

func (s *Service) Create(ctx context.Context, caller account.Account, dto CreateRemorqueurDTO) (*RemorqueurResponse, error) {
	if err := s.allow(caller, account.PermCreateRemorqueur); err != nil {
		return nil, err
	}
	dto.Username = strings.TrimSpace(dto.Username)
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	g, err := s.repo.FindGarageByName(ctx, dto.GarageName)
	if err != nil {
		return nil, s.lookupFailed(ctx, "garage", err)
	}
	if g == nil {
		return nil, internal.NewNotFoundError("Garage "+dto.GarageName+" not found", internal.ErrCodeGarageNotFound)
	}
	if g.ID != caller.ID() {
		return nil, internal.NewForbiddenError("You can only create remorqueurs for your own garage", internal.ErrCodeNotOwner)
	}

	taken, err := s.repo.FindByUsername(ctx, dto.Username)
	if err != nil {
		return nil, s.lookupFailed(ctx, "username", err)
	}
	if taken != nil {
		return nil, internal.NewValidationError("Username already taken", internal.ErrCodeUsernameTaken)
	}

	role, err := s.repo.FindRoleByName(ctx, dto.RoleName)
	if err != nil {
		return nil, s.lookupFailed(ctx, "role", err)
	}
	if role == nil {
		return nil, internal.NewValidationError("Role "+dto.RoleName+" not found", internal.ErrCodeRoleNotFound)
	}
	if role.Name != account.RoleOperator {
		return nil, internal.NewValidationError("Role "+role.Name+" is not allowed for remorqueurs", internal.ErrCodeRoleNotAllowed)
	}

	digest, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to create remorqueur", err)
	}

	row := &accountDatamodel.Remorqueur{
		Name:     dto.Name,
		Tel:      dto.Tel,
		Username: dto.Username,
		Password: digest,
		RoleID:   role.ID,
		GarageID: g.ID,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "create remorqueur: insert failed", "garage_id", g.ID, "error", err)
		return nil, internal.NewInternalError("failed to create remorqueur", err)
	}

	created, err := s.repo.FindByID(ctx, row.ID)
	if err != nil || created == nil {
		return nil, internal.NewInternalError("failed to create remorqueur", err)
	}

	s.logger.InfoContext(ctx, "remorqueur created", "remorqueur_id", created.ID, "garage_id", g.ID)
	resp := ToResponse(created)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, caller account.Account, id int64, dto UpdateRemorqueurDTO) (*RemorqueurResponse, error) {
	if err := s.allow(caller, account.PermUpdateRemorqueur); err != nil {
		return nil, err
	}
	if dto.Username != nil {
		trimmed := strings.TrimSpace(*dto.Username)
		dto.Username = &trimmed
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.owned(ctx, caller, id, "update")
	if err != nil {
		return nil, err
	}

	if dto.Username != nil && *dto.Username != "" && *dto.Username != row.Username {
		taken, err := s.repo.FindByUsername(ctx, *dto.Username)
		if err != nil {
			return nil, s.lookupFailed(ctx, "username", err)
		}
		if taken != nil && taken.ID != id {
			return nil, internal.NewValidationError("Username already taken", internal.ErrCodeUsernameTaken)
		}
		row.Username = *dto.Username
	}
	if dto.Name != nil && *dto.Name != "" {
		row.Name = *dto.Name
	}
	if dto.Tel != nil && *dto.Tel != "" {
		row.Tel = *dto.Tel
	}
	if dto.Password != nil && *dto.Password != "" {
		digest, err := s.hasher.Hash(*dto.Password)
		if err != nil {
			return nil, internal.NewInternalError("failed to update remorqueur", err)
		}
		row.Password = digest
	}
	if dto.IsActive != nil {
		row.IsActive = *dto.IsActive
	}

	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "update remorqueur failed", "remorqueur_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update remorqueur", err)
	}

	s.logger.InfoContext(ctx, "remorqueur updated", "remorqueur_id", id)
	resp := ToResponse(row)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, caller account.Account, id int64) (*DeleteResponse, error) {
	if err := s.allow(caller, account.PermDeleteRemorqueur); err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, caller, id, "delete"); err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "delete remorqueur failed", "remorqueur_id", id, "error", err)
		return nil, internal.NewInternalError("failed to delete remorqueur", err)
	}

	s.logger.InfoContext(ctx, "remorqueur deleted", "remorqueur_id", id)
	return &DeleteResponse{Message: deletedMessage, RemorqueurID: id}, nil
}

// ListForGarage returns the calling garage's operators.
func (s *Service) ListForGarage(ctx context.Context, caller account.Account) ([]RemorqueurResponse, error) {
	if err := auth.AllowKinds(caller, account.KindGarage); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByGarage(ctx, caller.ID())
	if err != nil {
		s.logger.ErrorContext(ctx, "list remorqueurs failed", "garage_id", caller.ID(), "error", err)
		return nil, internal.NewInternalError("failed to fetch remorqueurs", err)
	}

	out := make([]RemorqueurResponse, 0, len(rows))
	for _, r := range rows {
		resp := ToResponse(r)
		resp.GarageName = caller.GarageName()
		out = append(out, resp)
	}
	return out, nil
}

func (s *Service) allow(caller account.Account, permission string) error {
	if err := auth.AllowKinds(caller, account.KindGarage); err != nil {
		return err
	}
	return auth.Authorize(caller, permission)
}

func (s *Service) owned(ctx context.Context, caller account.Account, id int64, action string) (*accountDatamodel.Remorqueur, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupFailed(ctx, "id", err)
	}
	if row == nil {
		return nil, internal.NewNotFoundError("Remorqueur not found", internal.ErrCodeRemorqueurNotFound)
	}
	if row.GarageID != caller.ID() {
		return nil, internal.NewForbiddenError("You can only "+action+" remorqueurs from your own garage", internal.ErrCodeNotOwner)
	}
	return row, nil
}

func (s *Service) lookupFailed(ctx context.Context, by string, err error) error {
	s.logger.ErrorContext(ctx, "remorqueur lookup failed", "by", by, "error", err)
	return internal.NewInternalError("failed to process remorqueur request", err)
}
