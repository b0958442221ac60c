package vehicle

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/core/account"
	vehicleDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/vehicle"
	"github.com/apdq/deliver-backend/internal/transport"
)

const maxUploadBytes = 32 << 20

type ServiceAPI interface {
	Create(ctx context.Context, caller account.Account, dto VehicleDTO) (*VehicleResponse, error)
	Update(ctx context.Context, caller account.Account, id int64, dto VehicleDTO) (*VehicleResponse, error)
	Get(ctx context.Context, id int64) (*VehicleResponse, error)
	List(ctx context.Context, skip, limit int) ([]VehicleResponse, error)
	Years(ctx context.Context) (*YearsResponse, error)
	Brands(ctx context.Context, year int64) (*BrandsResponse, error)
	Models(ctx context.Context, year int64, brand string) ([]string, error)
	Search(ctx context.Context, year int64, brand, model string) ([]VehicleResponse, error)
	Upload(ctx context.Context, caller account.Account, vehicleID int64, kind vehicleDatamodel.AttachmentKind, up Upload) (*UploadResponse, error)
	Replace(ctx context.Context, caller account.Account, vehicleID int64, kind vehicleDatamodel.AttachmentKind, up Upload) (*UploadResponse, error)
	DeleteAttachment(ctx context.Context, caller account.Account, vehicleID int64, kind vehicleDatamodel.AttachmentKind, fileID int64) (*MessageResponse, error)
	OpenFile(ctx context.Context, filePath string) (io.ReadCloser, string, error)
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

func (h *Handler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	caller, _ := internal.AccountFromContext(r.Context())

	var dto VehicleDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	resp, err := h.Service.Create(r.Context(), caller, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	caller, _ := internal.AccountFromContext(r.Context())

	id, appErr := h.URLParamInt64(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	var dto VehicleDTO
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

func (h *Handler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.URLParamInt64(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	resp, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	skip, appErr := queryInt(r, "skip", 0)
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	limit, appErr := queryInt(r, "limit", defaultLimit)
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	resp, err := h.Service.List(r.Context(), skip, limit)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Years(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Service.Years(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Brands(w http.ResponseWriter, r *http.Request) {
	year, appErr := h.URLParamInt64(r, "year")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	resp, err := h.Service.Brands(r.Context(), year)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Models(w http.ResponseWriter, r *http.Request) {
	year, appErr := h.URLParamInt64(r, "year")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	resp, err := h.Service.Models(r.Context(), year, chi.URLParam(r, "brand"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) SearchVehicles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := strconv.ParseInt(q.Get("year"), 10, 64)
	if err != nil {
		h.WriteAppError(w, internal.NewValidationFieldError("year", "must be an integer", internal.ErrCodeInvalidRequest))
		return
	}

	resp, err := h.Service.Search(r.Context(), year, q.Get("brand"), q.Get("model"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, vehicleDatamodel.KindImage, false)
}

func (h *Handler) UploadNeutralPDF(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, vehicleDatamodel.KindNeutralPDF, false)
}

func (h *Handler) UploadDeactivationPDF(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, vehicleDatamodel.KindDeactivationPDF, false)
}

func (h *Handler) ReplaceImage(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, vehicleDatamodel.KindImage, true)
}

func (h *Handler) ReplaceNeutralPDF(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, vehicleDatamodel.KindNeutralPDF, true)
}

func (h *Handler) ReplaceDeactivationPDF(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, vehicleDatamodel.KindDeactivationPDF, true)
}

func (h *Handler) DeleteNeutralPDF(w http.ResponseWriter, r *http.Request) {
	h.deleteAttachment(w, r, vehicleDatamodel.KindNeutralPDF)
}

func (h *Handler) DeleteDeactivationPDF(w http.ResponseWriter, r *http.Request) {
	h.deleteAttachment(w, r, vehicleDatamodel.KindDeactivationPDF)
}

// ServeFile streams /ftp/images/<path> from storage.
func (h *Handler) ServeFile(w http.ResponseWriter, r *http.Request) {
	rc, contentType, err := h.Service.OpenFile(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.Logger.Warn("file stream interrupted", "error", err)
	}
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request, kind vehicleDatamodel.AttachmentKind, replace bool) {
	caller, _ := internal.AccountFromContext(r.Context())

	id, appErr := h.URLParamInt64(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.WriteAppError(w, internal.NewValidationError("file too large", internal.ErrCodeInvalidRequest))
			return
		}
		h.WriteAppError(w, internal.NewValidationFieldError("file", "is required", internal.ErrCodeInvalidRequest))
		return
	}
	defer file.Close()

	up := Upload{Name: header.Filename, Body: file}
	var resp *UploadResponse
	if replace {
		resp, err = h.Service.Replace(r.Context(), caller, id, kind, up)
	} else {
		resp, err = h.Service.Upload(r.Context(), caller, id, kind, up)
	}
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) deleteAttachment(w http.ResponseWriter, r *http.Request, kind vehicleDatamodel.AttachmentKind) {
	caller, _ := internal.AccountFromContext(r.Context())

	id, appErr := h.URLParamInt64(r, "id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}
	fileID, appErr := h.URLParamInt64(r, "pdf_id")
	if appErr != nil {
		h.WriteAppError(w, appErr)
		return
	}

	resp, err := h.Service.DeleteAttachment(r.Context(), caller, id, kind, fileID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func queryInt(r *http.Request, name string, fallback int) (int, *internal.AppError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, internal.NewValidationFieldError(name, "must be an integer", internal.ErrCodeInvalidRequest)
	}
	return n, nil
}
