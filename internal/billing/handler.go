package billing

import (
	"context"
	"io"
	"net/http"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/core/account"
	"github.com/apdq/deliver-backend/internal/transport"
)

const (
	SignatureHeader = "Stripe-Signature"

	maxWebhookBody = 64 << 10
)

type ServiceAPI interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResponse, error)
	CreatePortalSession(ctx context.Context, caller account.Account, origin, lang string) (*PortalResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// Webhook reads the raw body; the signature covers its exact bytes.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.WriteAppError(w, internal.NewValidationError("Invalid payload", internal.ErrCodeInvalidRequest))
		return
	}

	resp, err := h.Service.HandleWebhook(r.Context(), payload, r.Header.Get(SignatureHeader))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) CreatePortalSession(w http.ResponseWriter, r *http.Request) {
	caller, _ := internal.AccountFromContext(r.Context())

	resp, err := h.Service.CreatePortalSession(r.Context(), caller, r.Header.Get("Origin"), r.URL.Query().Get("lang"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}
