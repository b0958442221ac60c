package staff

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/core/account"
	"github.com/apdq/deliver-backend/internal/transport"
)

type ServiceAPI interface {
	CreateUser(ctx context.Context, dto CreateUserDTO) (*UserResponse, error)
	UpdateAdmin(ctx context.Context, caller account.Account, dto UpdateAdminDTO) (*UpdateAdminResponse, error)
	GaragesWithRemorqueurs(ctx context.Context) ([]GarageWithRemorqueurs, error)
	RemorqueursWithGarages(ctx context.Context) ([]RemorqueurWithGarage, error)
}

type Handler struct {
	*transport.BaseHandler
	Service     ServiceAPI
	dispatchKey []byte
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, dispatchKey string) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		dispatchKey: []byte(dispatchKey),
	}
}

// DispatchKeyMiddleware guards the provisioning routes with the shared
// X-Dispatch-Key secret. An unset key closes the routes entirely.
func (h *Handler) DispatchKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		given := []byte(r.Header.Get(transport.DispatchHeader))
		if len(h.dispatchKey) == 0 || subtle.ConstantTimeCompare(given, h.dispatchKey) != 1 {
			h.Logger.WarnContext(r.Context(), "dispatch key rejected", "remote_addr", r.RemoteAddr)
			h.WriteAppError(w, internal.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var dto CreateUserDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	resp, err := h.Service.CreateUser(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	caller, _ := internal.AccountFromContext(r.Context())

	var dto UpdateAdminDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	resp, err := h.Service.UpdateAdmin(r.Context(), caller, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GaragesWithRemorqueurs(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Service.GaragesWithRemorqueurs(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) RemorqueursWithGarages(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Service.RemorqueursWithGarages(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}
