package account

const (
	PermCreateGarage      = "create_garage"
	PermViewAccounts      = "view_accounts"
	PermSendAdminMessage  = "send_admin_message"
	PermManageFAQ         = "manage_faq"
	PermManageVehicles    = "manage_vehicles"
	PermCreateRemorqueur  = "create_remorqueur"
	PermUpdateRemorqueur  = "update_remorqueur"
	PermDeleteRemorqueur  = "delete_remorqueur"
	PermSendGarageMessage = "send_garage_message"
)

var staffPermissions = []string{
	PermCreateGarage,
	PermViewAccounts,
	PermSendAdminMessage,
	PermManageFAQ,
	PermManageVehicles,
}

// DefaultRoles lists every seeded role with its permission names, in seed
// order.
var DefaultRoles = []struct {
	Name        string
	Permissions []string
}{
	{RoleSuperAdmin, staffPermissions},
	{RoleAPDQ, staffPermissions},
	{RoleGarage, []string{PermCreateRemorqueur, PermUpdateRemorqueur, PermDeleteRemorqueur, PermSendGarageMessage}},
	{RoleOperator, nil},
}

// AllPermissions returns each permission name once, in first-seen order.
func AllPermissions() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range DefaultRoles {
		for _, p := range r.Permissions {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}
