package remorqueur

import (
	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/auth"
	"github.com/apdq/deliver-backend/internal/core/common/validation"
)

type CreateRemorqueurDTO struct {
	GarageName string `json:"garage_name"`
	Name       string `json:"name"`
	Tel        string `json:"tel"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	RoleName   string `json:"role_name"`
}

func (d CreateRemorqueurDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("garage_name", d.GarageName).Required()
	v.Field("name", d.Name).Required().MaxLength(255)
	v.Field("tel", d.Tel).Required().MaxLength(50)
	v.Field("username", d.Username).Required().MaxLength(255)
	v.Field("password", d.Password).Required().MinLength(8).MaxLength(128)
	v.Field("role_name", d.RoleName).Required()
	return v.Validate()
}

// UpdateRemorqueurDTO leaves a field untouched when it is nil or empty.
type UpdateRemorqueurDTO struct {
	Name     *string `json:"name"`
	Tel      *string `json:"tel"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	IsActive *bool   `json:"is_active"`
}

func (d UpdateRemorqueurDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", *d.Name).MaxLength(255)
	}
	if d.Tel != nil {
		v.Field("tel", *d.Tel).MaxLength(50)
	}
	if d.Username != nil {
		v.Field("username", *d.Username).MaxLength(255)
	}
	if d.Password != nil && *d.Password != "" {
		v.Field("password", *d.Password).MinLength(8).MaxLength(128)
	}
	return v.Validate()
}

type RemorqueurResponse struct {
	ID         int64         `json:"id"`
	Name       string        `json:"name"`
	Tel        string        `json:"tel"`
	Username   string        `json:"username"`
	Role       auth.RoleView `json:"role"`
	GarageName string        `json:"garage_name"`
	IsActive   bool          `json:"is_active"`
}

type DeleteResponse struct {
	Message      string `json:"message"`
	RemorqueurID int64  `json:"remorqueur_id"`
}
