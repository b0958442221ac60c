package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	accountDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/account"
)

type GarageRepository struct {
	db *gorm.DB
}

func NewGarageRepository(db *gorm.DB) *GarageRepository {
	return &GarageRepository{db: db}
}

func (r *GarageRepository) FindRoleByName(ctx context.Context, name string) (*accountDatamodel.Role, error) {
	var role accountDatamodel.Role
	err := r.db.WithContext(ctx).Preload("Permissions").Where("name = ?", name).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *GarageRepository) FindByID(ctx context.Context, id int64) (*accountDatamodel.Garage, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *GarageRepository) FindByName(ctx context.Context, name string) (*accountDatamodel.Garage, error) {
	return r.findOne(ctx, "name = ?", name)
}

func (r *GarageRepository) FindByUsername(ctx context.Context, username string) (*accountDatamodel.Garage, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *GarageRepository) FindByEmail(ctx context.Context, email string) (*accountDatamodel.Garage, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *GarageRepository) Create(ctx context.Context, g *accountDatamodel.Garage) error {
	return r.db.WithContext(ctx).Omit("Role", "Remorqueurs").Create(g).Error
}

func (r *GarageRepository) Update(ctx context.Context, g *accountDatamodel.Garage) error {
	return r.db.WithContext(ctx).Omit("Role", "Remorqueurs").Save(g).Error
}

func (r *GarageRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&accountDatamodel.Garage{}).Where("is_active = ?", true).Count(&n).Error
	return n, err
}

func (r *GarageRepository) findOne(ctx context.Context, query string, arg interface{}) (*accountDatamodel.Garage, error) {
	var g accountDatamodel.Garage
	err := r.db.WithContext(ctx).Preload("Role.Permissions").Where(query, arg).First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}
