package auth

import (
	"time"

	"github.com/apdq/deliver-backend/internal"
	"github.com/apdq/deliver-backend/internal/core/account"
	"github.com/apdq/deliver-backend/internal/core/common/validation"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (d LoginDTO) Validate() *internal.AppError {
	return validation.ValidateCredentials(d.Username, d.Password)
}

type UserView struct {
	ID         int64   `json:"id"`
	Username   string  `json:"username"`
	IsActive   bool    `json:"is_active"`
	GarageName *string `json:"garage_name"`
}

type PermissionView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type RoleView struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Permissions []PermissionView `json:"permissions"`
}

func NewRoleView(r account.Role) RoleView {
	perms := make([]PermissionView, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, PermissionView{ID: p.ID, Name: p.Name})
	}
	return RoleView{ID: r.ID, Name: r.Name, Permissions: perms}
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	User        UserView  `json:"user"`
	Role        RoleView  `json:"role"`
	ExpiresAt   time.Time `json:"expires_at"`
	GarageName  *string   `json:"garage_name"`
}

// LoginResult is what a successful login produces before rendering.
type LoginResult struct {
	Account   account.Account
	Token     string
	ExpiresAt time.Time
}

func (r *LoginResult) ToResponse() LoginResponse {
	var garageName *string
	if name := r.Account.GarageName(); name != "" {
		garageName = &name
	}
	return LoginResponse{
		AccessToken: r.Token,
		TokenType:   TokenType,
		User: UserView{
			ID:         r.Account.ID(),
			Username:   r.Account.Username(),
			IsActive:   r.Account.IsActive(),
			GarageName: garageName,
		},
		Role:       NewRoleView(r.Account.Role()),
		ExpiresAt:  r.ExpiresAt,
		GarageName: garageName,
	}
}
