package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	accountDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/account"
	messageDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/message"
)

type RemorqueurRepository struct {
	db *gorm.DB
}

func NewRemorqueurRepository(db *gorm.DB) *RemorqueurRepository {
	return &RemorqueurRepository{db: db}
}

func (r *RemorqueurRepository) FindRoleByName(ctx context.Context, name string) (*accountDatamodel.Role, error) {
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

func (r *RemorqueurRepository) FindGarageByName(ctx context.Context, name string) (*accountDatamodel.Garage, error) {
	var g accountDatamodel.Garage
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (r *RemorqueurRepository) FindByID(ctx context.Context, id int64) (*accountDatamodel.Remorqueur, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *RemorqueurRepository) FindByUsername(ctx context.Context, username string) (*accountDatamodel.Remorqueur, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *RemorqueurRepository) ListByGarage(ctx context.Context, garageID int64) ([]*accountDatamodel.Remorqueur, error) {
	var rows []*accountDatamodel.Remorqueur
	err := r.db.WithContext(ctx).
		Preload("Role.Permissions").
		Preload("Garage").
		Where("garage_id = ?", garageID).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *RemorqueurRepository) Create(ctx context.Context, row *accountDatamodel.Remorqueur) error {
	return r.db.WithContext(ctx).Omit("Role", "Garage").Create(row).Error
}

func (r *RemorqueurRepository) Update(ctx context.Context, row *accountDatamodel.Remorqueur) error {
	return r.db.WithContext(ctx).Omit("Role", "Garage").Save(row).Error
}

func (r *RemorqueurRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("remorqueur_id = ?", id).Delete(&messageDatamodel.GarageMessageRecipient{}).Error; err != nil {
			return err
		}
		return tx.Delete(&accountDatamodel.Remorqueur{}, id).Error
	})
}

func (r *RemorqueurRepository) findOne(ctx context.Context, query string, arg interface{}) (*accountDatamodel.Remorqueur, error) {
	var row accountDatamodel.Remorqueur
	err := r.db.WithContext(ctx).
		Preload("Role.Permissions").
		Preload("Garage").
		Where(query, arg).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
