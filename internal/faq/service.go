package faq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/auth"
	"github.com/apdq/deliver-backend/internal/core/account"
	"github.com/apdq/deliver-backend/internal/core/common/validation"
	faqDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/faq"
)

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context) ([]FAQResponse, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list faqs failed", "error", err)
		return nil, internal.NewInternalError("Failed to retrieve FAQs", err)
	}
	return toResponses(rows), nil
}

// ListByLanguage accepts only "fr" and "en".
func (s *Service) ListByLanguage(ctx context.Context, language string) ([]FAQResponse, error) {
	if err := validation.ValidateLanguage(language); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByLanguage(ctx, language)
	if err != nil {
		s.logger.ErrorContext(ctx, "list faqs by language failed", "language", language, "error", err)
		return nil, internal.NewInternalError("Failed to retrieve FAQs", err)
	}
	return toResponses(rows), nil
}

func (s *Service) Create(ctx context.Context, caller account.Account, dto CreateFAQDTO) (*FAQResponse, error) {
	if err := s.allowed(caller); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row := &faqDatamodel.FAQ{Question: dto.Question, Answer: dto.Answer, Language: dto.Language}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "create faq failed", "error", err)
		return nil, internal.NewInternalError("Failed to create FAQ", err)
	}
	s.logger.InfoContext(ctx, "faq created", "faq_id", row.ID, "language", row.Language)

	resp := ToResponse(row)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, caller account.Account, id int64) (*DeleteFAQResponse, error) {
	if err := s.allowed(caller); err != nil {
		return nil, err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "delete faq failed", "faq_id", id, "error", err)
		return nil, internal.NewInternalError("Failed to delete FAQ", err)
	}
	if !deleted {
		return nil, internal.NewNotFoundError(fmt.Sprintf("FAQ with ID %d not found", id), internal.ErrCodeFAQNotFound)
	}
	return &DeleteFAQResponse{
		Message: fmt.Sprintf("FAQ with ID %d successfully deleted", id),
		FAQID:   id,
	}, nil
}

func (s *Service) allowed(caller account.Account) error {
	if err := auth.AllowKinds(caller, account.KindStaff); err != nil {
		return err
	}
	return auth.Authorize(caller, account.PermManageFAQ)
}
