package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	accountDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/account"
)

type StaffRepository struct {
	db *gorm.DB
}

func NewStaffRepository(db *gorm.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

func (r *StaffRepository) FindRoleByName(ctx context.Context, name string) (*accountDatamodel.Role, error) {
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

func (r *StaffRepository) FindUserByID(ctx context.Context, id int64) (*accountDatamodel.User, error) {
	return r.findUser(ctx, "id = ?", id)
}

func (r *StaffRepository) FindUserByUsername(ctx context.Context, username string) (*accountDatamodel.User, error) {
	return r.findUser(ctx, "username = ?", username)
}

func (r *StaffRepository) CreateUser(ctx context.Context, u *accountDatamodel.User) error {
	return r.db.WithContext(ctx).Omit("Role").Create(u).Error
}

func (r *StaffRepository) UpdateUser(ctx context.Context, u *accountDatamodel.User) error {
	return r.db.WithContext(ctx).Omit("Role").Save(u).Error
}

func (r *StaffRepository) ListGaragesWithRemorqueurs(ctx context.Context) ([]*accountDatamodel.Garage, error) {
	var rows []*accountDatamodel.Garage
	err := r.db.WithContext(ctx).
		Preload("Remorqueurs", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *StaffRepository) ListRemorqueursWithGarages(ctx context.Context) ([]*accountDatamodel.Remorqueur, error) {
	var rows []*accountDatamodel.Remorqueur
	err := r.db.WithContext(ctx).Preload("Garage").Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *StaffRepository) findUser(ctx context.Context, query string, arg interface{}) (*accountDatamodel.User, error) {
	var u accountDatamodel.User
	err := r.db.WithContext(ctx).Preload("Role.Permissions").Where(query, arg).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
