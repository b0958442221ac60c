package message

import "time"

type AdminMessage struct {
	ID         int64                   `gorm:"primaryKey"`
	Title      string                  `gorm:"column:title;size:255;not null"`
	Content    string                  `gorm:"column:content;type:text;not null"`
	CreatedAt  time.Time               `gorm:"column:created_at;not null;autoCreateTime:false"`
	AdminID    int64                   `gorm:"column:admin_id;not null;index"`
	ToAll      bool                    `gorm:"column:to_all;not null"`
	Recipients []AdminMessageRecipient `gorm:"foreignKey:MessageID"`
}

func (AdminMessage) TableName() string { return "admin_messages" }

type AdminMessageRecipient struct {
	MessageID int64 `gorm:"column:message_id;primaryKey;autoIncrement:false"`
	GarageID  int64 `gorm:"column:garage_id;primaryKey;autoIncrement:false;index"`
	IsRead    bool  `gorm:"column:is_read;not null"`
}

func (AdminMessageRecipient) TableName() string { return "admin_message_recipients" }

type GarageMessage struct {
	ID         int64                    `gorm:"primaryKey"`
	Title      string                   `gorm:"column:title;size:255;not null"`
	Content    string                   `gorm:"column:content;type:text;not null"`
	CreatedAt  time.Time                `gorm:"column:created_at;not null;autoCreateTime:false"`
	GarageID   int64                    `gorm:"column:garage_id;not null;index"`
	ToAll      bool                     `gorm:"column:to_all;not null"`
	Recipients []GarageMessageRecipient `gorm:"foreignKey:MessageID"`
}

func (GarageMessage) TableName() string { return "garage_messages" }

type GarageMessageRecipient struct {
	MessageID    int64 `gorm:"column:message_id;primaryKey;autoIncrement:false"`
	RemorqueurID int64 `gorm:"column:remorqueur_id;primaryKey;autoIncrement:false;index"`
	IsRead       bool  `gorm:"column:is_read;not null"`
}

func (GarageMessageRecipient) TableName() string { return "garage_message_recipients" }
