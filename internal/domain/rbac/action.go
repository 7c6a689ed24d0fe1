package rbac

// Action is a fine-grained permission, namespaced as <resource>:<verb>.
type Action string

const (
	ActionShopsRead   Action = "shops:read"
	ActionShopsCreate Action = "shops:create"
	ActionShopsUpdate Action = "shops:update"
	ActionShopsDelete Action = "shops:delete"

	ActionProductsRead   Action = "products:read"
	ActionProductsCreate Action = "products:create"
	ActionProductsUpdate Action = "products:update"
	ActionProductsDelete Action = "products:delete"

	ActionInventoryRead   Action = "inventory:read"
	ActionInventoryUpdate Action = "inventory:update"

	ActionOrdersRead   Action = "orders:read"
	ActionOrdersUpdate Action = "orders:update"
	ActionOrdersCancel Action = "orders:cancel"

	ActionCustomersRead   Action = "customers:read"
	ActionCustomersUpdate Action = "customers:update"

	ActionConversationsRead   Action = "conversations:read"
	ActionConversationsAssign Action = "conversations:assign"
	ActionMessagesSend        Action = "messages:send"

	ActionTicketsRead   Action = "tickets:read"
	ActionTicketsCreate Action = "tickets:create"
	ActionTicketsUpdate Action = "tickets:update"

	ActionReportsRead   Action = "reports:read"
	ActionReportsExport Action = "reports:export"

	ActionUsersRead   Action = "users:read"
	ActionUsersManage Action = "users:manage"

	ActionSettingsRead   Action = "settings:read"
	ActionSettingsUpdate Action = "settings:update"

	ActionGamificationRead   Action = "gamification:read"
	ActionGamificationManage Action = "gamification:manage"

	ActionKudosSend Action = "kudos:send"
)

// String returns the string representation of the Action.
func (a Action) String() string {
	return string(a)
}
