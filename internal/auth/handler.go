package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/core/account"
	"github.com/apdq/deliver-backend/internal/transport"
	"github.com/apdq/deliver-backend/pkg/logger"
)

type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO) (*LoginResult, error)
	Authenticate(ctx context.Context, token string) (account.Account, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	result, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result.ToResponse())
}

// AuthMiddleware resolves the X-Deliver-Auth token into an account stored in
// the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.Logger.WarnContext(r.Context(), "auth middleware: missing token")
			h.WriteAppError(w, internal.ErrUnauthenticated)
			return
		}

		acc, err := h.Service.Authenticate(r.Context(), token)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}

		ctx := internal.ContextWithAccount(r.Context(), acc)
		ctx = logger.With(ctx, "account_id", acc.ID(), "account_kind", string(acc.Kind()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
