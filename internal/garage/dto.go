package garage

import (
	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/auth"
	"github.com/apdq/deliver-backend/internal/core/common/validation"
)

type CreateGarageDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	RoleName string `json:"role_name"`
}

func (d CreateGarageDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(255)
	v.Field("email", d.Email).Required().MaxLength(255).Email()
	v.Field("username", d.Username).Required().MaxLength(255)
	v.Field("password", d.Password).Required().MinLength(8).MaxLength(128)
	v.Field("role_name", d.RoleName).Required()
	return v.Validate()
}

type UpdateGarageDTO struct {
	GarageName string  `json:"garage_name"`
	Username   *string `json:"username"`
	Password   *string `json:"password"`
}

func (d UpdateGarageDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("garage_name", d.GarageName).Required()
	if d.Username != nil && *d.Username != "" {
		v.Field("username", *d.Username).MaxLength(255)
	}
	if d.Password != nil && *d.Password != "" {
		v.Field("password", *d.Password).MinLength(8).MaxLength(128)
	}
	return v.Validate()
}

type GarageResponse struct {
	ID               int64         `json:"id"`
	Name             string        `json:"name"`
	Email            string        `json:"email"`
	Username         string        `json:"username"`
	RoleID           int64         `json:"role_id"`
	IsActive         bool          `json:"is_active"`
	StripeCustomerID *string       `json:"stripe_customer_id"`
	PaymentStatus    *string       `json:"payment_status"`
	Role             auth.RoleView `json:"role"`
}

type UpdateGarageResponse struct {
	Message    string `json:"message"`
	GarageName string `json:"garage_name"`
	Username   string `json:"username"`
}

type CountResponse struct {
	TotalGarages int64 `json:"total_garages"`
}
