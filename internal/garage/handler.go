package garage

import (
	"context"
	"net/http"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/core/account"
	"github.com/apdq/deliver-backend/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, caller account.Account, dto CreateGarageDTO) (*GarageResponse, error)
	Update(ctx context.Context, caller account.Account, dto UpdateGarageDTO) (*UpdateGarageResponse, error)
	CountActive(ctx context.Context) (*CountResponse, error)
	Current(ctx context.Context, caller account.Account) (*GarageResponse, error)
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

func (h *Handler) CreateGarage(w http.ResponseWriter, r *http.Request) {
	caller, _ := internal.AccountFromContext(r.Context())

	var dto CreateGarageDTO
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

func (h *Handler) UpdateGarage(w http.ResponseWriter, r *http.Request) {
	caller, _ := internal.AccountFromContext(r.Context())

	var dto UpdateGarageDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	resp, err := h.Service.Update(r.Context(), caller, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Service.CountActive(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// CurrentGarage ignores any request body; the profile is always the
// caller's own.
func (h *Handler) CurrentGarage(w http.ResponseWriter, r *http.Request) {
	caller, _ := internal.AccountFromContext(r.Context())

	resp, err := h.Service.Current(r.Context(), caller)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}
