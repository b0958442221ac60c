package account

import (
	accountDatamodel "github.com/apdq/deliver-backend/internal/core/datamodel/account"
)

func RoleFromDataModel(r accountDatamodel.Role) Role {
	perms := make([]Permission, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, Permission{ID: p.ID, Name: p.Name})
	}
	return Role{ID: r.ID, Name: r.Name, Permissions: perms}
}

func StaffFromDataModel(u *accountDatamodel.User) *StaffUser {
	return &StaffUser{
		UserID:       u.ID,
		Name:         u.Username,
		Hash:         u.Password,
		Active:       u.IsActive,
		AssignedRole: RoleFromDataModel(u.Role),
	}
}

func GarageFromDataModel(g *accountDatamodel.Garage) *Garage {
	return &Garage{
		GarageID:         g.ID,
		Name:             g.Name,
		Email:            g.Email,
		Login:            g.Username,
		Hash:             g.Password,
		Active:           g.IsActive,
		CreatedByID:      g.CreatedByID,
		PaymentStatus:    g.PaymentStatus,
		PaymentSessionID: g.PaymentSessionID,
		StripeCustomerID: g.StripeCustomerID,
		AssignedRole:     RoleFromDataModel(g.Role),
	}
}

func OperatorFromDataModel(r *accountDatamodel.Remorqueur) *Operator {
	op := &Operator{
		OperatorID:   r.ID,
		Name:         r.Name,
		Tel:          r.Tel,
		Login:        r.Username,
		Hash:         r.Password,
		Active:       r.IsActive,
		GarageID:     r.GarageID,
		AssignedRole: RoleFromDataModel(r.Role),
	}
	if r.Garage != nil {
		op.Garage = GarageFromDataModel(r.Garage)
	}
	return op
}
