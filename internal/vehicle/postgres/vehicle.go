package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	vehicleDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/vehicle"
)

// coversYear matches rows whose range includes the year. A missing year_to
// leaves the range open.
const coversYear = "year_from <= ? AND (year_to IS NULL OR year_to >= ?)"

type VehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

func (r *VehicleRepository) withFiles(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("NeutralPDFs").
		Preload("DeactivationPDFs").
		Preload("Images")
}

func (r *VehicleRepository) Create(ctx context.Context, v *vehicleDatamodel.Vehicle) error {
	return r.db.WithContext(ctx).Omit("NeutralPDFs", "DeactivationPDFs", "Images").Create(v).Error
}

func (r *VehicleRepository) Update(ctx context.Context, v *vehicleDatamodel.Vehicle) error {
	return r.db.WithContext(ctx).Omit("NeutralPDFs", "DeactivationPDFs", "Images").Save(v).Error
}

func (r *VehicleRepository) FindByID(ctx context.Context, id int64) (*vehicleDatamodel.Vehicle, error) {
	var v vehicleDatamodel.Vehicle
	err := r.withFiles(ctx).First(&v, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (r *VehicleRepository) List(ctx context.Context, skip, limit int) ([]*vehicleDatamodel.Vehicle, error) {
	var rows []*vehicleDatamodel.Vehicle
	err := r.withFiles(ctx).Order("id").Offset(skip).Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *VehicleRepository) YearRanges(ctx context.Context) ([]*vehicleDatamodel.Vehicle, error) {
	var rows []*vehicleDatamodel.Vehicle
	err := r.db.WithContext(ctx).Select("id", "year_from", "year_to").Find(&rows).Error
	return rows, err
}

func (r *VehicleRepository) BrandsForYear(ctx context.Context, year int64) ([]string, error) {
	var brands []string
	err := r.db.WithContext(ctx).Model(&vehicleDatamodel.Vehicle{}).
		Distinct("brand").
		Where(coversYear, year, year).
		Order("brand").
		Pluck("brand", &brands).Error
	return brands, err
}

func (r *VehicleRepository) ModelsFor(ctx context.Context, year int64, brand string) ([]string, error) {
	var models []string
	err := r.db.WithContext(ctx).Model(&vehicleDatamodel.Vehicle{}).
		Distinct("model").
		Where("brand = ?", brand).
		Where(coversYear, year, year).
		Order("model").
		Pluck("model", &models).Error
	return models, err
}

func (r *VehicleRepository) Search(ctx context.Context, year int64, brand, model string) ([]*vehicleDatamodel.Vehicle, error) {
	q := r.withFiles(ctx).Where(coversYear, year, year)
	if brand != "" {
		q = q.Where("brand = ?", brand)
	}
	if model != "" {
		q = q.Where("model = ?", model)
	}
	var rows []*vehicleDatamodel.Vehicle
	err := q.Order("id").Find(&rows).Error
	return rows, err
}

func (r *VehicleRepository) CreateAttachment(ctx context.Context, kind vehicleDatamodel.AttachmentKind, f *vehicleDatamodel.File) error {
	return r.db.WithContext(ctx).Table(kind.Table()).Create(f).Error
}

func (r *VehicleRepository) FindAttachment(ctx context.Context, kind vehicleDatamodel.AttachmentKind, vehicleID, fileID int64) (*vehicleDatamodel.File, error) {
	var f vehicleDatamodel.File
	err := r.db.WithContext(ctx).Table(kind.Table()).
		Where("id = ? AND vehicle_id = ?", fileID, vehicleID).
		First(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func (r *VehicleRepository) ListAttachments(ctx context.Context, kind vehicleDatamodel.AttachmentKind, vehicleID int64) ([]vehicleDatamodel.File, error) {
	var files []vehicleDatamodel.File
	err := r.db.WithContext(ctx).Table(kind.Table()).Where("vehicle_id = ?", vehicleID).Order("id").Find(&files).Error
	return files, err
}

func (r *VehicleRepository) DeleteAttachment(ctx context.Context, kind vehicleDatamodel.AttachmentKind, fileID int64) error {
	return r.db.WithContext(ctx).Table(kind.Table()).Where("id = ?", fileID).Delete(&vehicleDatamodel.File{}).Error
}
