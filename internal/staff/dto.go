package staff

import (
	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/auth"
	"github.com/apdq/deliver-backend/internal/core/common/validation"
)

type CreateUserDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
	RoleName string `json:"role_name"`
}

func (d CreateUserDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required().MaxLength(255)
	v.Field("password", d.Password).Required().MinLength(8).MaxLength(128)
	v.Field("role_name", d.RoleName).Required()
	return v.Validate()
}

type UpdateAdminDTO struct {
	Username    string  `json:"username"`
	NewUsername *string `json:"new_username"`
	Password    *string `json:"password"`
}

func (d UpdateAdminDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required()
	if d.NewUsername != nil && *d.NewUsername != "" {
		v.Field("new_username", *d.NewUsername).MaxLength(255)
	}
	if d.Password != nil && *d.Password != "" {
		v.Field("password", *d.Password).MinLength(8).MaxLength(128)
	}
	return v.Validate()
}

type UserResponse struct {
	ID       int64         `json:"id"`
	Username string        `json:"username"`
	Role     auth.RoleView `json:"role"`
	IsActive bool          `json:"is_active"`
}

type UpdateAdminResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type GarageSummary struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	RoleID      int64  `json:"role_id"`
	IsActive    bool   `json:"is_active"`
	CreatedByID int64  `json:"created_by_id"`
}

type RemorqueurSummary struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	RoleID   int64  `json:"role_id"`
	GarageID int64  `json:"garage_id"`
	IsActive bool   `json:"is_active"`
}

type GarageWithRemorqueurs struct {
	GarageSummary
	Remorqueurs []RemorqueurSummary `json:"remorqueurs"`
}

type RemorqueurWithGarage struct {
	RemorqueurSummary
	Garage *GarageSummary `json:"garage"`
}
