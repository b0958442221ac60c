package message

import (
	"time"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/core/common/validation"
)

type CreateAdminMessageDTO struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	ToAll     bool    `json:"to_all"`
	GarageIDs []int64 `json:"garage_ids"`
}

func (d CreateAdminMessageDTO) Validate() *internal.AppError {
	return validateMessage(d.Title, d.Content)
}

type CreateGarageMessageDTO struct {
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	ToAll         bool    `json:"to_all"`
	RemorqueurIDs []int64 `json:"remorqueur_ids"`
}

func (d CreateGarageMessageDTO) Validate() *internal.AppError {
	return validateMessage(d.Title, d.Content)
}

func validateMessage(title, content string) *internal.AppError {
	v := validation.NewValidator()
	v.Field("title", title).Required().MaxLength(255)
	v.Field("content", content).Required()
	return v.Validate()
}

type DeleteMessageDTO struct {
	MessageID int64 `json:"message_id"`
}

func (d DeleteMessageDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("message_id", d.MessageID).Required().MinInt(1, internal.ErrCodeInvalidRequest)
	return v.Validate()
}

type DeleteMessagesDTO struct {
	MessageIDs []int64 `json:"message_ids"`
}

func (d DeleteMessagesDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("message_ids", d.MessageIDs).Required()
	return v.Validate()
}

type AdminMessageResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	ToAll     bool      `json:"to_all"`
	GarageIDs []int64   `json:"garage_ids"`
	IsRead    bool      `json:"is_read"`
}

type GarageMessageResponse struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	ToAll         bool      `json:"to_all"`
	RemorqueurIDs []int64   `json:"remorqueur_ids"`
	IsRead        bool      `json:"is_read"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type AdminReadResponse struct {
	Message   string `json:"message"`
	MessageID int64  `json:"message_id"`
	GarageID  int64  `json:"garage_id"`
}

type GarageReadResponse struct {
	Message      string `json:"message"`
	MessageID    int64  `json:"message_id"`
	RemorqueurID int64  `json:"remorqueur_id"`
}
