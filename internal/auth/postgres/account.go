package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/apdq/deliver-backend/internal/core/account"
	accountDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/account"
)

const rolePermissions = "Role.Permissions"

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindStaffByUsername(ctx context.Context, username string) (*account.StaffUser, error) {
	return r.findStaff(ctx, "username = ?", username)
}

func (r *Repository) FindStaffByID(ctx context.Context, id int64) (*account.StaffUser, error) {
	return r.findStaff(ctx, "id = ?", id)
}

func (r *Repository) FindGarageByUsername(ctx context.Context, username string) (*account.Garage, error) {
	return r.findGarage(ctx, "username = ?", username)
}

func (r *Repository) FindGarageByID(ctx context.Context, id int64) (*account.Garage, error) {
	return r.findGarage(ctx, "id = ?", id)
}

func (r *Repository) FindOperatorByUsername(ctx context.Context, username string) (*account.Operator, error) {
	return r.findOperator(ctx, "username = ?", username)
}

func (r *Repository) FindOperatorByID(ctx context.Context, id int64) (*account.Operator, error) {
	return r.findOperator(ctx, "id = ?", id)
}

func (r *Repository) findStaff(ctx context.Context, query string, arg interface{}) (*account.StaffUser, error) {
	var row accountDatamodel.User
	err := r.db.WithContext(ctx).Preload(rolePermissions).Where(query, arg).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return account.StaffFromDataModel(&row), nil
}

func (r *Repository) findGarage(ctx context.Context, query string, arg interface{}) (*account.Garage, error) {
	var row accountDatamodel.Garage
	err := r.db.WithContext(ctx).Preload(rolePermissions).Where(query, arg).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return account.GarageFromDataModel(&row), nil
}

func (r *Repository) findOperator(ctx context.Context, query string, arg interface{}) (*account.Operator, error) {
	var row accountDatamodel.Remorqueur
	err := r.db.WithContext(ctx).
		Preload(rolePermissions).
		Preload("Garage").
		Where(query, arg).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return account.OperatorFromDataModel(&row), nil
}
