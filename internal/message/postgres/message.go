package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	accountDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/account"
	messageDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/message"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) GarageIDsCreatedBy(ctx context.Context, adminID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&accountDatamodel.Garage{}).
		Where("created_by_id = ?", adminID).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *MessageRepository) ActiveGarageIDsCreatedBy(ctx context.Context, adminID int64, ids []int64) ([]int64, error) {
	var out []int64
	err := r.db.WithContext(ctx).Model(&accountDatamodel.Garage{}).
		Where("id IN ? AND is_active = ? AND created_by_id = ?", ids, true, adminID).
		Order("id ASC").
		Pluck("id", &out).Error
	return out, err
}

func (r *MessageRepository) RemorqueurIDsOfGarage(ctx context.Context, garageID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&accountDatamodel.Remorqueur{}).
		Where("garage_id = ?", garageID).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *MessageRepository) FilterRemorqueursOfGarage(ctx context.Context, garageID int64, ids []int64) ([]int64, error) {
	var out []int64
	err := r.db.WithContext(ctx).Model(&accountDatamodel.Remorqueur{}).
		Where("id IN ? AND garage_id = ?", ids, garageID).
		Order("id ASC").
		Pluck("id", &out).Error
	return out, err
}

func (r *MessageRepository) OperatorGarageID(ctx context.Context, remorqueurID int64) (int64, bool, error) {
	var op accountDatamodel.Remorqueur
	err := r.db.WithContext(ctx).Select("id", "garage_id").First(&op, remorqueurID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return op.GarageID, true, nil
}

func (r *MessageRepository) CreateAdminMessage(ctx context.Context, msg *messageDatamodel.AdminMessage, garageIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Recipients").Create(msg).Error; err != nil {
			return err
		}
		if len(garageIDs) == 0 {
			return nil
		}
		rows := make([]messageDatamodel.AdminMessageRecipient, 0, len(garageIDs))
		for _, id := range garageIDs {
			rows = append(rows, messageDatamodel.AdminMessageRecipient{MessageID: msg.ID, GarageID: id})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		msg.Recipients = rows
		return nil
	})
}

func (r *MessageRepository) CreateGarageMessage(ctx context.Context, msg *messageDatamodel.GarageMessage, remorqueurIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Recipients").Create(msg).Error; err != nil {
			return err
		}
		if len(remorqueurIDs) == 0 {
			return nil
		}
		rows := make([]messageDatamodel.GarageMessageRecipient, 0, len(remorqueurIDs))
		for _, id := range remorqueurIDs {
			rows = append(rows, messageDatamodel.GarageMessageRecipient{MessageID: msg.ID, RemorqueurID: id})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		msg.Recipients = rows
		return nil
	})
}

func (r *MessageRepository) ListAdminMessages(ctx context.Context) ([]*messageDatamodel.AdminMessage, error) {
	var msgs []*messageDatamodel.AdminMessage
	err := r.db.WithContext(ctx).Preload("Recipients").Order("id ASC").Find(&msgs).Error
	return msgs, err
}

func (r *MessageRepository) ListGarageMessagesBySender(ctx context.Context, garageID int64) ([]*messageDatamodel.GarageMessage, error) {
	var msgs []*messageDatamodel.GarageMessage
	err := r.db.WithContext(ctx).Preload("Recipients").
		Where("garage_id = ?", garageID).
		Order("id ASC").
		Find(&msgs).Error
	return msgs, err
}

func (r *MessageRepository) AdminInbox(ctx context.Context, garageID int64) ([]*messageDatamodel.AdminMessage, error) {
	var msgs []*messageDatamodel.AdminMessage
	err := r.db.WithContext(ctx).Preload("Recipients").
		Joins("JOIN admin_message_recipients amr ON amr.message_id = admin_messages.id").
		Where("amr.garage_id = ?", garageID).
		Order("admin_messages.created_at DESC, admin_messages.id DESC").
		Find(&msgs).Error
	return msgs, err
}

func (r *MessageRepository) GarageInbox(ctx context.Context, garageID, remorqueurID int64) ([]*messageDatamodel.GarageMessage, error) {
	var msgs []*messageDatamodel.GarageMessage
	err := r.db.WithContext(ctx).Preload("Recipients").
		Joins("JOIN garage_message_recipients gmr ON gmr.message_id = garage_messages.id").
		Where("garage_messages.garage_id = ? AND gmr.remorqueur_id = ?", garageID, remorqueurID).
		Order("garage_messages.created_at DESC, garage_messages.id DESC").
		Find(&msgs).Error
	return msgs, err
}

func (r *MessageRepository) FindGarageMessage(ctx context.Context, id int64) (*messageDatamodel.GarageMessage, error) {
	var msg messageDatamodel.GarageMessage
	err := r.db.WithContext(ctx).First(&msg, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (r *MessageRepository) DeleteAdminMessages(ctx context.Context, ids []int64) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id IN ?", ids).Delete(&messageDatamodel.AdminMessageRecipient{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&messageDatamodel.AdminMessage{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}

func (r *MessageRepository) DeleteGarageMessage(ctx context.Context, id int64) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", id).Delete(&messageDatamodel.GarageMessageRecipient{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&messageDatamodel.GarageMessage{}, id)
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}

func (r *MessageRepository) MarkAdminRead(ctx context.Context, messageID, garageID int64) (bool, error) {
	return r.markRead(ctx, &messageDatamodel.AdminMessageRecipient{}, "message_id = ? AND garage_id = ?", messageID, garageID)
}

func (r *MessageRepository) MarkGarageRead(ctx context.Context, messageID, remorqueurID int64) (bool, error) {
	return r.markRead(ctx, &messageDatamodel.GarageMessageRecipient{}, "message_id = ? AND remorqueur_id = ?", messageID, remorqueurID)
}

// markRead checks membership first: MySQL reports zero affected rows when
// the flag was already set.
func (r *MessageRepository) markRead(ctx context.Context, model interface{}, query string, args ...interface{}) (bool, error) {
	found := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(model).Where(query, args...).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		found = true
		return tx.Model(model).Where(query, args...).Update("is_read", true).Error
	})
	return found, err
}
