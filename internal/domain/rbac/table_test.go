package rbac

import (
	"errors"
	"sort"
	"testing"
)

func TestHas(t *testing.T) {
	tests := []struct {
		name   string
		role   Role
		action Action
		want   bool
	}{
		{"auditor can file tickets", RoleAuditor, ActionTicketsCreate, true},
		{"auditor cannot delete shops", RoleAuditor, ActionShopsDelete, false},
		{"auditor cannot send kudos", RoleAuditor, ActionKudosSend, false},
		{"super admin can delete shops", RoleSuperAdmin, ActionShopsDelete, true},
		{"shop admin cannot create shops", RoleShopAdmin, ActionShopsCreate, false},
		{"store manager can cancel orders", RoleStoreManager, ActionOrdersCancel, true},
		{"sales associate can message customers", RoleSalesAssociate, ActionMessagesSend, true},
		{"sales associate cannot export reports", RoleSalesAssociate, ActionReportsExport, false},
		{"staff can read orders", RoleStaff, ActionOrdersRead, true},
		{"staff cannot update inventory", RoleStaff, ActionInventoryUpdate, false},
		{"unknown role never matches", Role("unknown_role"), ActionOrdersRead, false},
		{"empty role never matches", Role(""), ActionShopsRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Has(tt.role, tt.action); got != tt.want {
				t.Errorf("Has(%q, %q) = %v, want %v", tt.role, tt.action, got, tt.want)
			}
		})
	}
}

func TestHasAll(t *testing.T) {
	if !HasAll(RoleStaff, ActionShopsRead, ActionProductsRead, ActionKudosSend) {
		t.Error("HasAll() = false for actions staff holds")
	}
	if HasAll(RoleStaff, ActionShopsRead, ActionShopsDelete) {
		t.Error("HasAll() = true despite one missing action")
	}
	if !HasAll(RoleStaff) {
		t.Error("HasAll() with no actions should be true")
	}
	if HasAll(Role("ghost"), ActionShopsRead) {
		t.Error("HasAll() = true for unknown role")
	}
}

func TestHasAny(t *testing.T) {
	if !HasAny(RoleAuditor, ActionShopsDelete, ActionTicketsCreate) {
		t.Error("HasAny() = false though one action is allowed")
	}
	if HasAny(RoleStaff, ActionShopsDelete, ActionUsersManage) {
		t.Error("HasAny() = true though no action is allowed")
	}
	if HasAny(RoleStaff) {
		t.Error("HasAny() with no actions should be false")
	}
}

func TestPermissions_Staff(t *testing.T) {
	want := []Action{
		ActionShopsRead,
		ActionProductsRead,
		ActionInventoryRead,
		ActionOrdersRead,
		ActionGamificationRead,
		ActionKudosSend,
	}

	got := Permissions(RoleStaff)
	if len(got) != len(want) {
		t.Fatalf("Permissions(staff) has %d actions, want %d: %v", len(got), len(want), sortedActions(got))
	}
	for _, a := range want {
		if _, ok := got[a]; !ok {
			t.Errorf("Permissions(staff) missing %q", a)
		}
	}
}

func TestPermissions_UnknownRoleIsEmpty(t *testing.T) {
	got := Permissions(Role("nobody"))
	if len(got) != 0 {
		t.Errorf("Permissions(unknown) = %v, want empty set", sortedActions(got))
	}
}

func TestPermissions_CopyDoesNotMutateTable(t *testing.T) {
	got := Permissions(RoleStaff)
	got[ActionShopsDelete] = struct{}{}

	if Has(RoleStaff, ActionShopsDelete) {
		t.Error("mutating the returned set leaked into the permission table")
	}
}

func TestPermissionTable_TotalOverRoles(t *testing.T) {
	for _, role := range AllRoles {
		if _, ok := permissionTable[role]; !ok {
			t.Errorf("permission table has no entry for role %q", role)
		}
	}
	if len(permissionTable) != len(AllRoles) {
		t.Errorf("permission table has %d entries, want %d", len(permissionTable), len(AllRoles))
	}
}

func TestRequire(t *testing.T) {
	if err := Require(RoleSuperAdmin, ActionShopsDelete); err != nil {
		t.Errorf("Require() unexpected error: %v", err)
	}

	err := Require(RoleSalesAssociate, ActionShopsDelete)
	if err == nil {
		t.Fatal("Require() expected error for disallowed action")
	}

	var denied *PermissionDenied
	if !errors.As(err, &denied) {
		t.Fatalf("Require() error type = %T, want *PermissionDenied", err)
	}
	if denied.Role != RoleSalesAssociate {
		t.Errorf("PermissionDenied.Role = %q, want %q", denied.Role, RoleSalesAssociate)
	}
	if denied.Action != ActionShopsDelete {
		t.Errorf("PermissionDenied.Action = %q, want %q", denied.Action, ActionShopsDelete)
	}
}

func TestRoleIsValid(t *testing.T) {
	for _, role := range AllRoles {
		if !role.IsValid() {
			t.Errorf("IsValid(%q) = false, want true", role)
		}
	}
	if Role("intern").IsValid() {
		t.Error(`IsValid("intern") = true, want false`)
	}
}

func sortedActions(set map[Action]struct{}) []string {
	out := make([]string, 0, len(set))
	for a := range set {
		out = append(out, string(a))
	}
	sort.Strings(out)
	return out
}
