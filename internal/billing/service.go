package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/auth"
	"github.com/apdq/deliver-backend/internal/core/account"
	"github.com/apdq/deliver-backend/internal/core/events"
)

type Service struct {
	repo        RepositoryAPI
	verifier    Verifier
	portal      PortalClient
	events      EventPublisher
	frontendURL string
	logger      *slog.Logger
}

// NewService accepts a nil verifier or portal when billing is not
// configured; the matching endpoints then answer 503.
func NewService(repo RepositoryAPI, verifier Verifier, portal PortalClient, publisher EventPublisher, frontendURL string, logger *slog.Logger) *Service {
	if frontendURL == "" {
		frontendURL = "http://localhost:5173"
	}
	return &Service{
		repo:        repo,
		verifier:    verifier,
		portal:      portal,
		events:      publisher,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

// HandleWebhook applies a verified provider event to the garages it concerns.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResponse, error) {
	if s.verifier == nil {
		return nil, unavailable()
	}
	evt, err := s.verifier.Verify(payload, signature)
	if err != nil {
		s.logger.WarnContext(ctx, "webhook rejected", "error", err)
		if errors.Is(err, ErrInvalidSignature) {
			return nil, internal.NewValidationError("Invalid signature", internal.ErrCodeInvalidRequest)
		}
		return nil, internal.NewValidationError("Invalid payload", internal.ErrCodeInvalidRequest)
	}
	s.logger.InfoContext(ctx, "webhook received", "event_id", evt.ID, "type", evt.Type)

	switch evt.Type {
	case EventCheckoutCompleted:
		if evt.Checkout == nil {
			return nil, internal.NewValidationError("Invalid payload", internal.ErrCodeInvalidRequest)
		}
		return s.checkoutCompleted(ctx, evt.Checkout)
	case EventSubscriptionDeleted:
		if evt.Subscription == nil {
			return nil, internal.NewValidationError("Invalid payload", internal.ErrCodeInvalidRequest)
		}
		if err := s.setStatus(ctx, evt.Subscription.CustomerID, false, StatusSubscriptionEnded); err != nil {
			return nil, err
		}
		return &WebhookResponse{Status: "success", Message: "Subscription ended"}, nil
	case EventSubscriptionUpdated:
		if evt.Subscription == nil {
			return nil, internal.NewValidationError("Invalid payload", internal.ErrCodeInvalidRequest)
		}
		sub := evt.Subscription
		if err := s.setStatus(ctx, sub.CustomerID, subscriptionActive(sub.Status), sub.Status); err != nil {
			return nil, err
		}
		return &WebhookResponse{Status: "success", Message: "Subscription updated"}, nil
	}
	return &WebhookResponse{Status: "received"}, nil
}

func (s *Service) checkoutCompleted(ctx context.Context, cs *CheckoutSession) (*WebhookResponse, error) {
	if cs.Email == "" {
		s.logger.WarnContext(ctx, "checkout without customer email", "session_id", cs.ID)
		return &WebhookResponse{Status: "error", Message: "No customer email found"}, nil
	}

	garage, err := s.repo.FindInactiveByEmail(ctx, cs.Email)
	if err != nil {
		s.logger.ErrorContext(ctx, "checkout: garage lookup failed", "error", err)
		return nil, internal.NewInternalError("Database error", err)
	}
	if garage == nil {
		s.logger.WarnContext(ctx, "checkout: no inactive garage for email", "session_id", cs.ID)
		return &WebhookResponse{Status: "error", Message: "Garage not found"}, nil
	}

	if err := s.repo.Activate(ctx, garage.ID, cs.ID, cs.CustomerID); err != nil {
		s.logger.ErrorContext(ctx, "checkout: activation failed", "garage_id", garage.ID, "error", err)
		return nil, internal.NewInternalError("Database error", err)
	}
	s.logger.InfoContext(ctx, "garage activated", "garage_id", garage.ID, "session_id", cs.ID)
	s.publish(ctx, events.NewGarageStatusEvent(garage.ID, true, StatusCompleted))

	return &WebhookResponse{Status: "success", GarageID: strconv.FormatInt(garage.ID, 10)}, nil
}

func (s *Service) setStatus(ctx context.Context, customerID string, active bool, status string) error {
	ids, err := s.repo.SetStatusByCustomer(ctx, customerID, active, status)
	if err != nil {
		s.logger.ErrorContext(ctx, "subscription status update failed", "customer_id", customerID, "error", err)
		return internal.NewInternalError("Database error", err)
	}
	s.logger.InfoContext(ctx, "subscription status applied", "customer_id", customerID, "active", active, "status", status, "garages", len(ids))
	for _, id := range ids {
		s.publish(ctx, events.NewGarageStatusEvent(id, active, status))
	}
	return nil
}

// CreatePortalSession opens the provider's billing portal for the calling
// garage. The return URL points back at the dashboard settings page of the
// requesting origin.
func (s *Service) CreatePortalSession(ctx context.Context, caller account.Account, origin, lang string) (*PortalResponse, error) {
	if err := auth.AllowKinds(caller, account.KindGarage); err != nil {
		return nil, internal.NewForbiddenError("Only garage accounts can access billing", internal.ErrCodeForbidden)
	}
	if s.portal == nil {
		return nil, unavailable()
	}

	garage, err := s.repo.FindGarageByID(ctx, caller.ID())
	if err != nil {
		s.logger.ErrorContext(ctx, "portal: garage lookup failed", "garage_id", caller.ID(), "error", err)
		return nil, internal.NewInternalError("An unexpected error occurred", err)
	}
	if garage == nil || !garage.IsActive {
		return nil, internal.NewNotFoundError(
			fmt.Sprintf("Active garage with payment information not found for username: %s", caller.Username()),
			internal.ErrCodeGarageNotFound)
	}
	if garage.StripeCustomerID == nil || *garage.StripeCustomerID == "" {
		return nil, internal.NewValidationError("No billing information found. Please complete the subscription process.", internal.ErrCodeInvalidRequest)
	}

	if lang == "" {
		lang = "fr"
	}
	if err := validateLang(lang); err != nil {
		return nil, err
	}
	base := s.frontendURL
	if origin != "" {
		base = strings.TrimRight(origin, "/")
	}
	returnURL := fmt.Sprintf("%s/dashboard/%s/settings", base, lang)

	url, err := s.portal.CreatePortalSession(ctx, *garage.StripeCustomerID, returnURL)
	if err != nil {
		s.logger.ErrorContext(ctx, "portal session failed", "garage_id", garage.ID, "error", err)
		return nil, internal.NewValidationError("Failed to create billing portal session", internal.ErrCodeBillingUnavailable)
	}
	return &PortalResponse{URL: url}, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "billing event publish failed", "event_id", e.EventID(), "error", err)
	}
}

// validateLang accepts the two dashboard locales.
func validateLang(lang string) *internal.AppError {
	switch lang {
	case "fr", "en":
		return nil
	}
	return internal.NewValidationFieldError("lang", "must be fr or en", internal.ErrCodeInvalidLanguage)
}

func unavailable() *internal.AppError {
	return &internal.AppError{
		Type:       internal.ErrorTypeExternal,
		Code:       internal.ErrCodeBillingUnavailable,
		Message:    "Billing is not configured",
		StatusCode: http.StatusServiceUnavailable,
	}
}
