package remorqueur

import (
	"context"
	"net/http"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/core/account"
	"github.com/apdq/deliver-backend/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, caller account.Account, dto CreateRemorqueurDTO) (*RemorqueurResponse, error)
	Update(ctx context.Context, caller account.Account, id int64, dto UpdateRemorqueurDTO) (*RemorqueurResponse, error)
	Delete(ctx context.Context, caller account.Account, id int64) (*DeleteResponse, error)
	ListForGarage(ctx context.Context, caller account.Account) ([]RemorqueurResponse, error)
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

func (h *Handler) CreateRemorqueur(w http.ResponseWriter, r *http.Request) {
	caller, _ := internal.AccountFromContext(r.Context())

	var dto CreateRemorqueurDTO
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

func (h *Handler) UpdateRemorqueur(w http.ResponseWriter, r *http.Request) {
	caller, _ := internal.AccountFromContext(r.Context())

	id, appErr := h.URLParamInt64(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	var dto UpdateRemorqueurDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	resp, err := h.Service.Update(r.Context(), caller, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) DeleteRemorqueur(w http.ResponseWriter, r *http.Request) {
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

func (h *Handler) GarageRemorqueurs(w http.ResponseWriter, r *http.Request) {
	caller, _ := internal.AccountFromContext(r.Context())

	resp, err := h.Service.ListForGarage(r.Context(), caller)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}
