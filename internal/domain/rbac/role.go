// Package rbac contains the static role-permission model for the Novix
// platform. The mapping from role to allow-set is declared as data, not
// computed: the set of roles is fixed at deployment time and the table must
// be reviewable in one place.
package rbac

// Role represents a platform role for authorization purposes.
type Role string

const (
	// RoleSuperAdmin has full access across all shops and the platform layer.
	RoleSuperAdmin Role = "super_admin"
	// RoleShopAdmin administers a single shop.
	RoleShopAdmin Role = "shop_admin"
	// RoleStoreManager runs day-to-day store operations.
	RoleStoreManager Role = "store_manager"
	// RoleSalesAssociate handles sales and customer conversations.
	RoleSalesAssociate Role = "sales_associate"
	// RoleAuditor has read access plus ticket filing for audit findings.
	RoleAuditor Role = "auditor"
	// RoleStaff has baseline read access.
	RoleStaff Role = "staff"
)

// AllRoles lists every known role. The permission table is total over this set.
var AllRoles = []Role{
	RoleSuperAdmin,
	RoleShopAdmin,
	RoleStoreManager,
	RoleSalesAssociate,
	RoleAuditor,
	RoleStaff,
}

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid returns true if the role is a known valid role.
func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleShopAdmin, RoleStoreManager, RoleSalesAssociate, RoleAuditor, RoleStaff:
		return true
	default:
		return false
	}
}
