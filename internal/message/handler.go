package message

import (
	"context"
	"net/http"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/core/account"
	"github.com/apdq/deliver-backend/internal/transport"
)

type ServiceAPI interface {
	SendAdminMessage(ctx context.Context, caller account.Account, dto CreateAdminMessageDTO) (*AdminMessageResponse, error)
	SendGarageMessage(ctx context.Context, caller account.Account, dto CreateGarageMessageDTO) (*GarageMessageResponse, error)
	ListAdminMessages(ctx context.Context) ([]AdminMessageResponse, error)
	ListSentGarageMessages(ctx context.Context, caller account.Account) ([]GarageMessageResponse, error)
	GarageInbox(ctx context.Context, caller account.Account) ([]AdminMessageResponse, error)
	OperatorInbox(ctx context.Context, caller account.Account) ([]GarageMessageResponse, error)
	DeleteAdminMessage(ctx context.Context, dto DeleteMessageDTO) (*MessageResponse, error)
	DeleteAdminMessages(ctx context.Context, dto DeleteMessagesDTO) (*MessageResponse, error)
	DeleteGarageMessage(ctx context.Context, caller account.Account, dto DeleteMessageDTO) (*MessageResponse, error)
	MarkAdminMessageRead(ctx context.Context, caller account.Account, messageID int64) (*AdminReadResponse, error)
	MarkGarageMessageRead(ctx context.Context, caller account.Account, messageID int64) (*GarageReadResponse, error)
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

func (h *Handler) CreateAdminMessage(w http.ResponseWriter, r *http.Request) {
	caller, _ := internal.AccountFromContext(r.Context())
	var dto CreateAdminMessageDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	h.respond(w, http.StatusOK)(h.Service.SendAdminMessage(r.Context(), caller, dto))
}

func (h *Handler) CreateGarageMessage(w http.ResponseWriter, r *http.Request) {
	caller, _ := internal.AccountFromContext(r.Context())
	var dto CreateGarageMessageDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	h.respond(w, http.StatusOK)(h.Service.SendGarageMessage(r.Context(), caller, dto))
}

func (h *Handler) ListAdminMessages(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK)(h.Service.ListAdminMessages(r.Context()))
}

func (h *Handler) ListGarageMessages(w http.ResponseWriter, r *http.Request) {
	caller, _ := internal.AccountFromContext(r.Context())
	h.respond(w, http.StatusOK)(h.Service.ListSentGarageMessages(r.Context(), caller))
}

// GarageInbox and OperatorInbox accept a POST body for compatibility with
// existing clients; the recipient is always the caller.
func (h *Handler) GarageInbox(w http.ResponseWriter, r *http.Request) {
	caller, _ := internal.AccountFromContext(r.Context())
	h.respond(w, http.StatusOK)(h.Service.GarageInbox(r.Context(), caller))
}

func (h *Handler) OperatorInbox(w http.ResponseWriter, r *http.Request) {
	caller, _ := internal.AccountFromContext(r.Context())
	h.respond(w, http.StatusOK)(h.Service.OperatorInbox(r.Context(), caller))
}

func (h *Handler) DeleteAdminMessage(w http.ResponseWriter, r *http.Request) {
	var dto DeleteMessageDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	h.respond(w, http.StatusOK)(h.Service.DeleteAdminMessage(r.Context(), dto))
}

func (h *Handler) DeleteAdminMessages(w http.ResponseWriter, r *http.Request) {
	var dto DeleteMessagesDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	h.respond(w, http.StatusOK)(h.Service.DeleteAdminMessages(r.Context(), dto))
}

func (h *Handler) DeleteGarageMessage(w http.ResponseWriter, r *http.Request) {
	caller, _ := internal.AccountFromContext(r.Context())
	var dto DeleteMessageDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	h.respond(w, http.StatusOK)(h.Service.DeleteGarageMessage(r.Context(), caller, dto))
}

func (h *Handler) MarkAdminMessageRead(w http.ResponseWriter, r *http.Request) {
	caller, _ := internal.AccountFromContext(r.Context())
	id, appErr := h.URLParamInt64(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	h.respond(w, http.StatusOK)(h.Service.MarkAdminMessageRead(r.Context(), caller, id))
}

func (h *Handler) MarkGarageMessageRead(w http.ResponseWriter, r *http.Request) {
	caller, _ := internal.AccountFromContext(r.Context())
	id, appErr := h.URLParamInt64(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	h.respond(w, http.StatusOK)(h.Service.MarkGarageMessageRead(r.Context(), caller, id))
}

func (h *Handler) respond(w http.ResponseWriter, status int) func(interface{}, error) {
	return func(body interface{}, err error) {
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		h.WriteJSON(w, status, body)
	}
}
