package vehicle

import (
	"time"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/core/common/validation"
)

// VehicleDTO is used for both creation and full updates.
type VehicleDTO struct {
	Brand                 string `json:"brand"`
	Model                 string `json:"model"`
	YearFrom              int64  `json:"year_from"`
	YearTo                *int64 `json:"year_to"`
	DelayTimeNeutral      *int64 `json:"delay_time_neutral"`
	DelayTimeDeactivation *int64 `json:"delay_time_deactivation"`
}

func (d VehicleDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("brand", d.Brand).Required().MaxLength(100)
	v.Field("model", d.Model).Required().MaxLength(100)
	if d.DelayTimeNeutral != nil {
		v.Field("delay_time_neutral", *d.DelayTimeNeutral).MinInt(0, internal.ErrCodeInvalidRequest)
	}
	if d.DelayTimeDeactivation != nil {
		v.Field("delay_time_deactivation", *d.DelayTimeDeactivation).MinInt(0, internal.ErrCodeInvalidRequest)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return validation.ValidateYearRange(d.YearFrom, d.YearTo)
}

type FileResponse struct {
	ID         int64     `json:"id"`
	VehicleID  int64     `json:"vehicle_id"`
	FileName   string    `json:"file_name"`
	FilePath   string    `json:"file_path"`
	FileSize   int64     `json:"file_size"`
	UploadDate time.Time `json:"upload_date"`
}

type VehicleResponse struct {
	ID                    int64          `json:"id"`
	Brand                 string         `json:"brand"`
	Model                 string         `json:"model"`
	YearFrom              int64          `json:"year_from"`
	YearTo                *int64         `json:"year_to"`
	DelayTimeNeutral      *int64         `json:"delay_time_neutral"`
	DelayTimeDeactivation *int64         `json:"delay_time_deactivation"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	NeutralPDFs           []FileResponse `json:"neutral_pdfs"`
	DeactivationPDFs      []FileResponse `json:"deactivation_pdfs"`
	Images                []FileResponse `json:"images"`
}

type YearsResponse struct {
	Years []int64 `json:"years"`
}

type BrandsResponse struct {
	Year   int64    `json:"year"`
	Brands []string `json:"brands"`
}

type UploadResponse struct {
	Message  string `json:"message"`
	FilePath string `json:"file_path"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
