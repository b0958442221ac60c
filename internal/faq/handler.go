package faq

import (
	"context"
	"net/http"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/core/account"
	"github.com/apdq/deliver-backend/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]FAQResponse, error)
	ListByLanguage(ctx context.Context, language string) ([]FAQResponse, error)
	Create(ctx context.Context, caller account.Account, dto CreateFAQDTO) (*FAQResponse, error)
	Delete(ctx context.Context, caller account.Account, id int64) (*DeleteFAQResponse, error)
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

func (h *Handler) AllFAQs(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Service.List(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) FAQsByLanguage(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Service.ListByLanguage(r.Context(), r.URL.Query().Get("language"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) CreateFAQ(w http.ResponseWriter, r *http.Request) {
	caller, _ := internal.AccountFromContext(r.Context())

	var dto CreateFAQDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	resp, err := h.Service.Create(r.Context(), caller, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) DeleteFAQ(w http.ResponseWriter, r *http.Request) {
	caller, _ := internal.AccountFromContext(r.Context())

	id, appErr := h.URLParamInt64(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	resp, err := h.Service.Delete(r.Context(), caller, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}
