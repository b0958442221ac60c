package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	accountDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/account"
)

type BillingRepository struct {
	db *gorm.DB
}

func NewBillingRepository(db *gorm.DB) *BillingRepository {
	return &BillingRepository{db: db}
}

func (r *BillingRepository) FindGarageByID(ctx context.Context, id int64) (*accountDatamodel.Garage, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *BillingRepository) FindInactiveByEmail(ctx context.Context, email string) (*accountDatamodel.Garage, error) {
	return r.first(ctx, "email = ? AND is_active = ?", email, false)
}

func (r *BillingRepository) first(ctx context.Context, query string, args ...interface{}) (*accountDatamodel.Garage, error) {
	var g accountDatamodel.Garage
	err := r.db.WithContext(ctx).Where(query, args...).Order("id").First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (r *BillingRepository) Activate(ctx context.Context, garageID int64, sessionID, customerID string) error {
	return r.db.WithContext(ctx).Model(&accountDatamodel.Garage{}).
		Where("id = ?", garageID).
		Updates(map[string]interface{}{
			"is_active":          true,
			"payment_status":     "completed",
			"payment_session_id": sessionID,
			"stripe_customer_id": customerID,
		}).Error
}

func (r *BillingRepository) SetStatusByCustomer(ctx context.Context, customerID string, active bool, paymentStatus string) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&accountDatamodel.Garage{}).
			Where("stripe_customer_id = ?", customerID).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Model(&accountDatamodel.Garage{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"is_active":      active,
				"payment_status": paymentStatus,
			}).Error
	})
	return ids, err
}
