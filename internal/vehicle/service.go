package vehicle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/auth"
	"github.com/apdq/deliver-backend/internal/core/account"
	vehicleDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/vehicle"
	"github.com/apdq/deliver-backend/internal/storage"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

type Service struct {
	repo    RepositoryAPI
	store   storage.Store
	cache   Cache
	baseDir string
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo RepositoryAPI, store storage.Store, cache Cache, baseDir string, logger *slog.Logger) *Service {
	if baseDir == "" {
		baseDir = "apdq"
	}
	return &Service{
		repo:    repo,
		store:   store,
		cache:   cache,
		baseDir: baseDir,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock replaces the timestamp source used for object names.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Create(ctx context.Context, caller account.Account, dto VehicleDTO) (*VehicleResponse, error) {
	if err := s.allowed(caller); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row := &vehicleDatamodel.Vehicle{}
	apply(row, dto)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "create vehicle failed", "error", err)
		return nil, internal.NewInternalError("Failed to create vehicle", err)
	}
	s.invalidate(ctx)
	s.logger.InfoContext(ctx, "vehicle created", "vehicle_id", row.ID, "brand", row.Brand, "model", row.Model)

	return s.Get(ctx, row.ID)
}

func (s *Service) Update(ctx context.Context, caller account.Account, id int64, dto VehicleDTO) (*VehicleResponse, error) {
	if err := s.allowed(caller); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(row, dto)
	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "update vehicle failed", "vehicle_id", id, "error", err)
		return nil, internal.NewInternalError("Failed to update vehicle", err)
	}
	s.invalidate(ctx)

	return s.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*VehicleResponse, error) {
	row, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToResponse(row)
	return &resp, nil
}

// List pages through vehicles by id. A non positive limit means the default
// page size.
func (s *Service) List(ctx context.Context, skip, limit int) ([]VehicleResponse, error) {
	if skip < 0 {
		return nil, internal.NewValidationFieldError("skip", "must be zero or more", internal.ErrCodeInvalidRequest)
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	rows, err := s.repo.List(ctx, skip, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "list vehicles failed", "error", err)
		return nil, internal.NewInternalError("Failed to retrieve vehicles", err)
	}
	return toResponses(rows), nil
}

// Years returns every year covered by at least one vehicle, ascending.
func (s *Service) Years(ctx context.Context) (*YearsResponse, error) {
	var resp YearsResponse
	if s.cached(ctx, yearsKey(), &resp) {
		return &resp, nil
	}
	rows, err := s.repo.YearRanges(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "load year ranges failed", "error", err)
		return nil, internal.NewInternalError("Failed to retrieve years", err)
	}
	resp.Years = yearsCovered(rows)
	s.remember(ctx, yearsKey(), resp)
	return &resp, nil
}

func (s *Service) Brands(ctx context.Context, year int64) (*BrandsResponse, error) {
	resp := BrandsResponse{Year: year}
	if !s.cached(ctx, brandsKey(year), &resp.Brands) {
		brands, err := s.repo.BrandsForYear(ctx, year)
		if err != nil {
			s.logger.ErrorContext(ctx, "load brands failed", "year", year, "error", err)
			return nil, internal.NewInternalError("Failed to retrieve brands", err)
		}
		resp.Brands = brands
		s.remember(ctx, brandsKey(year), brands)
	}
	if len(resp.Brands) == 0 {
		return nil, internal.NewNotFoundError("No brands found for this year", internal.ErrCodeNoResults)
	}
	return &resp, nil
}

func (s *Service) Models(ctx context.Context, year int64, brand string) ([]string, error) {
	var models []string
	if !s.cached(ctx, modelsKey(year, brand), &models) {
		var err error
		models, err = s.repo.ModelsFor(ctx, year, brand)
		if err != nil {
			s.logger.ErrorContext(ctx, "load models failed", "year", year, "brand", brand, "error", err)
			return nil, internal.NewInternalError("Failed to retrieve models", err)
		}
		s.remember(ctx, modelsKey(year, brand), models)
	}
	if len(models) == 0 {
		return nil, internal.NewNotFoundError("No models found for this year and brand", internal.ErrCodeNoResults)
	}
	return models, nil
}

// Search matches vehicles covering year, optionally narrowed by brand and
// model.
func (s *Service) Search(ctx context.Context, year int64, brand, model string) ([]VehicleResponse, error) {
	if year <= 0 {
		return nil, internal.NewValidationFieldError("year", "is required", internal.ErrCodeInvalidRequest)
	}
	var out []VehicleResponse
	if !s.cached(ctx, searchKey(year, brand, model), &out) {
		rows, err := s.repo.Search(ctx, year, brand, model)
		if err != nil {
			s.logger.ErrorContext(ctx, "search vehicles failed", "year", year, "error", err)
			return nil, internal.NewInternalError("Failed to retrieve vehicles", err)
		}
		out = toResponses(rows)
		s.remember(ctx, searchKey(year, brand, model), out)
	}
	if len(out) == 0 {
		return nil, internal.NewNotFoundError("No vehicles found matching the criteria", internal.ErrCodeNoResults)
	}
	return out, nil
}

// Upload stores the file under <base>/<pdf|images>/ and records it.
func (s *Service) Upload(ctx context.Context, caller account.Account, vehicleID int64, kind vehicleDatamodel.AttachmentKind, up Upload) (*UploadResponse, error) {
	info, err := s.checkUpload(ctx, caller, vehicleID, kind, up)
	if err != nil {
		return nil, err
	}
	filePath, err := s.put(ctx, vehicleID, kind, info, up)
	if err != nil {
		return nil, err
	}
	return &UploadResponse{Message: info.label + " uploaded successfully", FilePath: filePath}, nil
}

// Replace removes every existing file of the kind, remote and row, before
// uploading the new one.
func (s *Service) Replace(ctx context.Context, caller account.Account, vehicleID int64, kind vehicleDatamodel.AttachmentKind, up Upload) (*UploadResponse, error) {
	info, err := s.checkUpload(ctx, caller, vehicleID, kind, up)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListAttachments(ctx, kind, vehicleID)
	if err != nil {
		s.logger.ErrorContext(ctx, "list attachments failed", "vehicle_id", vehicleID, "kind", kind, "error", err)
		return nil, internal.NewInternalError("Failed to replace file", err)
	}
	for _, f := range existing {
		if err := s.remove(ctx, kind, f); err != nil {
			return nil, err
		}
	}

	filePath, err := s.put(ctx, vehicleID, kind, info, up)
	if err != nil {
		return nil, err
	}
	return &UploadResponse{Message: info.label + " updated successfully", FilePath: filePath}, nil
}

func (s *Service) DeleteAttachment(ctx context.Context, caller account.Account, vehicleID int64, kind vehicleDatamodel.AttachmentKind, fileID int64) (*MessageResponse, error) {
	if err := s.allowed(caller); err != nil {
		return nil, err
	}
	info := kinds[kind]
	f, err := s.repo.FindAttachment(ctx, kind, vehicleID, fileID)
	if err != nil {
		s.logger.ErrorContext(ctx, "find attachment failed", "file_id", fileID, "error", err)
		return nil, internal.NewInternalError("Failed to delete file", err)
	}
	if f == nil {
		return nil, internal.NewNotFoundError(info.notFound, internal.ErrCodeFileNotFound)
	}
	if err := s.remove(ctx, kind, *f); err != nil {
		return nil, err
	}
	return &MessageResponse{Message: info.label + " deleted successfully"}, nil
}

// OpenFile streams a stored file with the MIME type of its extension.
func (s *Service) OpenFile(ctx context.Context, filePath string) (io.ReadCloser, string, error) {
	cleaned, err := storage.CleanPath(filePath)
	if err != nil {
		return nil, "", internal.NewValidationError("Invalid file path", internal.ErrCodeInvalidRequest)
	}
	rc, err := s.store.Open(ctx, cleaned)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.ErrorContext(ctx, "open stored file failed", "path", cleaned, "error", err)
		}
		return nil, "", internal.NewNotFoundError("Image not found", internal.ErrCodeFileNotFound)
	}
	return rc, storage.ContentType(cleaned), nil
}

func (s *Service) checkUpload(ctx context.Context, caller account.Account, vehicleID int64, kind vehicleDatamodel.AttachmentKind, up Upload) (kindInfo, error) {
	if err := s.allowed(caller); err != nil {
		return kindInfo{}, err
	}
	info, ok := kinds[kind]
	if !ok {
		return kindInfo{}, internal.NewValidationError("unknown attachment kind", internal.ErrCodeInvalidRequest)
	}
	if _, err := s.find(ctx, vehicleID); err != nil {
		return kindInfo{}, err
	}
	if up.Body == nil || up.Name == "" {
		return kindInfo{}, internal.NewValidationError("file is required", internal.ErrCodeInvalidRequest)
	}
	if !info.accepts(up.Name) {
		return kindInfo{}, internal.NewValidationError(info.badFormat, internal.ErrCodeInvalidFileType)
	}
	return info, nil
}

func (s *Service) put(ctx context.Context, vehicleID int64, kind vehicleDatamodel.AttachmentKind, info kindInfo, up Upload) (string, error) {
	now := s.now()
	body := &countingReader{r: up.Body}
	filePath, err := s.store.Upload(ctx, path.Join(s.baseDir, info.folder), storage.ObjectName(now, up.Name), body)
	if err != nil {
		s.logger.ErrorContext(ctx, "upload failed", "vehicle_id", vehicleID, "kind", kind, "error", err)
		return "", storageError("Failed to upload file", err)
	}

	row := &vehicleDatamodel.File{
		VehicleID:  vehicleID,
		FileName:   storage.SanitizeName(up.Name),
		FilePath:   filePath,
		FileSize:   body.n,
		UploadDate: now,
	}
	if err := s.repo.CreateAttachment(ctx, kind, row); err != nil {
		if delErr := s.store.Delete(ctx, filePath); delErr != nil {
			s.logger.WarnContext(ctx, "orphaned upload", "path", filePath, "error", delErr)
		}
		s.logger.ErrorContext(ctx, "record attachment failed", "vehicle_id", vehicleID, "error", err)
		return "", internal.NewInternalError("Failed to upload file", err)
	}
	s.invalidate(ctx)
	s.logger.InfoContext(ctx, "attachment stored", "vehicle_id", vehicleID, "kind", kind, "path", filePath, "size", body.n)
	return filePath, nil
}

// remove deletes the remote file, tolerating one that is already gone, and
// then its row.
func (s *Service) remove(ctx context.Context, kind vehicleDatamodel.AttachmentKind, f vehicleDatamodel.File) error {
	if err := s.store.Delete(ctx, f.FilePath); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.ErrorContext(ctx, "remote delete failed", "path", f.FilePath, "error", err)
		return storageError("Failed to delete file", err)
	}
	if err := s.repo.DeleteAttachment(ctx, kind, f.ID); err != nil {
		s.logger.ErrorContext(ctx, "delete attachment row failed", "file_id", f.ID, "error", err)
		return internal.NewInternalError("Failed to delete file", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) find(ctx context.Context, id int64) (*vehicleDatamodel.Vehicle, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "find vehicle failed", "vehicle_id", id, "error", err)
		return nil, internal.NewInternalError("Failed to retrieve vehicle", err)
	}
	if row == nil {
		return nil, internal.NewNotFoundError("Vehicle not found", internal.ErrCodeVehicleNotFound)
	}
	return row, nil
}

func (s *Service) allowed(caller account.Account) error {
	if err := auth.AllowKinds(caller, account.KindStaff); err != nil {
		return err
	}
	return auth.Authorize(caller, account.PermManageVehicles)
}

// cached reports a hit. Cache failures are logged and treated as misses.
func (s *Service) cached(ctx context.Context, key string, dest interface{}) bool {
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.WarnContext(ctx, "vehicle cache read failed", "key", key, "error", err)
		return false
	}
	return hit
}

func (s *Service) remember(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.logger.WarnContext(ctx, "vehicle cache write failed", "key", key, "error", err)
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, cachePrefix); err != nil {
		s.logger.WarnContext(ctx, "vehicle cache invalidation failed", "error", err)
	}
}

func apply(row *vehicleDatamodel.Vehicle, dto VehicleDTO) {
	row.Brand = dto.Brand
	row.Model = dto.Model
	row.YearFrom = dto.YearFrom
	row.YearTo = dto.YearTo
	row.DelayTimeNeutral = dto.DelayTimeNeutral
	row.DelayTimeDeactivation = dto.DelayTimeDeactivation
}

func storageError(msg string, err error) *internal.AppError {
	appErr := internal.NewInternalError(fmt.Sprintf("%s: storage unavailable", msg), err)
	appErr.Code = internal.ErrCodeStorageFailed
	return appErr
}
