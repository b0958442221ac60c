// Package account defines the authenticatable principals of the platform.
//
// An Account is one of three variants: a StaffUser (platform administrators),
// a Garage (a towing company) or an Operator (a tow-truck driver belonging to
// a garage). Each lives in its own table and links to exactly one Role.
package account

import "fmt"

type Kind string

const (
	KindStaff    Kind = "staff"
	KindGarage   Kind = "garage"
	KindOperator Kind = "remorqueur"
)

// ParseKind accepts only the three known kinds.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindStaff, KindGarage, KindOperator:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown account kind %q", s)
}

const (
	RoleSuperAdmin = "superadmin"
	RoleAPDQ       = "apdq"
	RoleGarage     = "garage"
	RoleOperator   = "remorqueur"
)

type Permission struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Role struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
}

// PermissionNames keeps the order the permissions were loaded in.
func (r Role) PermissionNames() []string {
	names := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		names = append(names, p.Name)
	}
	return names
}

func (r Role) Has(permission string) bool {
	for _, p := range r.Permissions {
		if p.Name == permission {
			return true
		}
	}
	return false
}

// Account is the capability shared by every principal.
type Account interface {
	ID() int64
	Username() string
	Kind() Kind
	Role() Role
	IsActive() bool
	// RoleTag is the role claim written into tokens.
	RoleTag() string
	// GarageName is empty for staff users.
	GarageName() string
	PasswordHash() string
}

type StaffUser struct {
	UserID       int64
	Name         string
	Hash         string
	Active       bool
	AssignedRole Role
}

func (u *StaffUser) ID() int64            { return u.UserID }
func (u *StaffUser) Username() string     { return u.Name }
func (u *StaffUser) Kind() Kind           { return KindStaff }
func (u *StaffUser) Role() Role           { return u.AssignedRole }
func (u *StaffUser) IsActive() bool       { return u.Active }
func (u *StaffUser) RoleTag() string      { return u.AssignedRole.Name }
func (u *StaffUser) GarageName() string   { return "" }
func (u *StaffUser) PasswordHash() string { return u.Hash }

type Garage struct {
	GarageID         int64
	Name             string
	Email            string
	Login            string
	Hash             string
	Active           bool
	CreatedByID      int64
	PaymentStatus    *string
	PaymentSessionID *string
	StripeCustomerID *string
	AssignedRole     Role
}

func (g *Garage) ID() int64            { return g.GarageID }
func (g *Garage) Username() string     { return g.Login }
func (g *Garage) Kind() Kind           { return KindGarage }
func (g *Garage) Role() Role           { return g.AssignedRole }
func (g *Garage) IsActive() bool       { return g.Active }
func (g *Garage) RoleTag() string      { return RoleGarage }
func (g *Garage) GarageName() string   { return g.Name }
func (g *Garage) PasswordHash() string { return g.Hash }

type Operator struct {
	OperatorID   int64
	Name         string
	Tel          string
	Login        string
	Hash         string
	Active       bool
	GarageID     int64
	Garage       *Garage
	AssignedRole Role
}

func (o *Operator) ID() int64            { return o.OperatorID }
func (o *Operator) Username() string     { return o.Login }
func (o *Operator) Kind() Kind           { return KindOperator }
func (o *Operator) Role() Role           { return o.AssignedRole }
func (o *Operator) IsActive() bool       { return o.Active }
func (o *Operator) RoleTag() string      { return RoleOperator }
func (o *Operator) PasswordHash() string { return o.Hash }

func (o *Operator) GarageName() string {
	if o.Garage == nil {
		return ""
	}
	return o.Garage.Name
}

// IsStaffAdmin reports whether acc is a staff user holding one of the
// administrative roles.
func IsStaffAdmin(acc Account) bool {
	if acc == nil || acc.Kind() != KindStaff {
		return false
	}
	switch acc.Role().Name {
	case RoleSuperAdmin, RoleAPDQ:
		return true
	}
	return false
}
