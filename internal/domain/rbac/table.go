package rbac

import "fmt"

// PermissionDenied is returned by Require when a role lacks an action.
// It carries the role and action so the caller's error boundary can report
// exactly what was refused.
type PermissionDenied struct {
	Role   Role
	Action Action
}

// Error implements the error interface.
func (e *PermissionDenied) Error() string {
	return fmt.Sprintf("permission denied: role %q lacks %q", e.Role, e.Action)
}

// permissionTable maps each role to its allow-set. Established once at init
// and never mutated. Keep additions grouped by resource so a reviewer can
// diff role capabilities line by line.
var permissionTable = map[Role]map[Action]struct{}{
	RoleSuperAdmin: actionSet(
		ActionShopsRead, ActionShopsCreate, ActionShopsUpdate, ActionShopsDelete,
		ActionProductsRead, ActionProductsCreate, ActionProductsUpdate, ActionProductsDelete,
		ActionInventoryRead, ActionInventoryUpdate,
		ActionOrdersRead, ActionOrdersUpdate, ActionOrdersCancel,
		ActionCustomersRead, ActionCustomersUpdate,
		ActionConversationsRead, ActionConversationsAssign, ActionMessagesSend,
		ActionTicketsRead, ActionTicketsCreate, ActionTicketsUpdate,
		ActionReportsRead, ActionReportsExport,
		ActionUsersRead, ActionUsersManage,
		ActionSettingsRead, ActionSettingsUpdate,
		ActionGamificationRead, ActionGamificationManage,
		ActionKudosSend,
	),
	RoleShopAdmin: actionSet(
		ActionShopsRead, ActionShopsUpdate,
		ActionProductsRead, ActionProductsCreate, ActionProductsUpdate, ActionProductsDelete,
		ActionInventoryRead, ActionInventoryUpdate,
		ActionOrdersRead, ActionOrdersUpdate, ActionOrdersCancel,
		ActionCustomersRead, ActionCustomersUpdate,
		ActionConversationsRead, ActionConversationsAssign, ActionMessagesSend,
		ActionTicketsRead, ActionTicketsCreate, ActionTicketsUpdate,
		ActionReportsRead, ActionReportsExport,
		ActionUsersRead, ActionUsersManage,
		ActionSettingsRead, ActionSettingsUpdate,
		ActionGamificationRead, ActionGamificationManage,
		ActionKudosSend,
	),
	RoleStoreManager: actionSet(
		ActionShopsRead,
		ActionProductsRead, ActionProductsUpdate,
		ActionInventoryRead, ActionInventoryUpdate,
		ActionOrdersRead, ActionOrdersUpdate, ActionOrdersCancel,
		ActionCustomersRead,
		ActionConversationsRead, ActionConversationsAssign, ActionMessagesSend,
		ActionTicketsRead, ActionTicketsCreate, ActionTicketsUpdate,
		ActionReportsRead,
		ActionGamificationRead,
		ActionKudosSend,
	),
	RoleSalesAssociate: actionSet(
		ActionShopsRead,
		ActionProductsRead,
		ActionInventoryRead,
		ActionOrdersRead, ActionOrdersUpdate,
		ActionCustomersRead,
		ActionConversationsRead, ActionMessagesSend,
		ActionTicketsRead, ActionTicketsCreate,
		ActionGamificationRead,
		ActionKudosSend,
	),
	RoleAuditor: actionSet(
		ActionShopsRead,
		ActionProductsRead,
		ActionInventoryRead,
		ActionOrdersRead,
		ActionCustomersRead,
		ActionConversationsRead,
		ActionTicketsRead, ActionTicketsCreate,
		ActionReportsRead, ActionReportsExport,
		ActionUsersRead,
		ActionSettingsRead,
		ActionGamificationRead,
	),
	RoleStaff: actionSet(
		ActionShopsRead,
		ActionProductsRead,
		ActionInventoryRead,
		ActionOrdersRead,
		ActionGamificationRead,
		ActionKudosSend,
	),
}

func actionSet(actions ...Action) map[Action]struct{} {
	set := make(map[Action]struct{}, len(actions))
	for _, a := range actions {
		set[a] = struct{}{}
	}
	return set
}

// Has reports whether role may perform action. Unknown roles never panic;
// they simply have no permissions.
func Has(role Role, action Action) bool {
	set, ok := permissionTable[role]
	if !ok {
		return false
	}
	_, ok = set[action]
	return ok
}

// HasAll reports whether role may perform every action in actions.
// An empty slice is vacuously true.
func HasAll(role Role, actions ...Action) bool {
	for _, a := range actions {
		if !Has(role, a) {
			return false
		}
	}
	return true
}

// HasAny reports whether role may perform at least one action in actions.
func HasAny(role Role, actions ...Action) bool {
	for _, a := range actions {
		if Has(role, a) {
			return true
		}
	}
	return false
}

// Permissions returns a copy of the allow-set for role. Unknown roles get an
// empty set, not an error. The copy keeps the underlying table immutable.
func Permissions(role Role) map[Action]struct{} {
	set, ok := permissionTable[role]
	if !ok {
		return map[Action]struct{}{}
	}
	out := make(map[Action]struct{}, len(set))
	for a := range set {
		out[a] = struct{}{}
	}
	return out
}

// Require checks the same condition as Has but returns a *PermissionDenied
// error on failure, for callers that want abort-on-failure semantics.
func Require(role Role, action Action) error {
	if Has(role, action) {
		return nil
	}
	return &PermissionDenied{Role: role, Action: action}
}
