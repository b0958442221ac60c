package postgres

import (
	"context"

	"gorm.io/gorm"

	faqDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/faq"
)

type FAQRepository struct {
	db *gorm.DB
}

func NewFAQRepository(db *gorm.DB) *FAQRepository {
	return &FAQRepository{db: db}
}

func (r *FAQRepository) List(ctx context.Context) ([]*faqDatamodel.FAQ, error) {
	var rows []*faqDatamodel.FAQ
	err := r.db.WithContext(ctx).Order("id").Find(&rows).Error
	return rows, err
}

func (r *FAQRepository) ListByLanguage(ctx context.Context, language string) ([]*faqDatamodel.FAQ, error) {
	var rows []*faqDatamodel.FAQ
	err := r.db.WithContext(ctx).Where("language = ?", language).Order("id").Find(&rows).Error
	return rows, err
}

func (r *FAQRepository) Create(ctx context.Context, f *faqDatamodel.FAQ) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *FAQRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&faqDatamodel.FAQ{}, id)
	return res.RowsAffected > 0, res.Error
}
