package service

import (
	"cloudsqlconsole/internal/core"
)

// Action is one of the gate-controlled operations.
type Action string

const (
	ActionCreateUser        Action = "CREATE_USER"
	ActionManageConnections Action = "MANAGE_CONNECTIONS"
	ActionExecuteQuery      Action = "EXECUTE_QUERY"
	ActionReadOnlyQuery     Action = "READ_ONLY_QUERY"
)

// capabilities is the fixed role -> permitted actions table. It is not
// inherited or overridable at runtime.
var capabilities = map[core.Role]map[Action]bool{
	core.RoleAdmin: {
		ActionCreateUser:        true,
		ActionManageConnections: true,
		ActionExecuteQuery:      true,
		ActionReadOnlyQuery:     true,
	},
	core.RoleDeveloper: {
		ActionManageConnections: true,
		ActionExecuteQuery:      true,
		ActionReadOnlyQuery:     true,
	},
	core.RoleBusinessUser: {
		ActionReadOnlyQuery: true,
	},
}

// PermissionGate decides whether a role may perform a requested action, and
// consults the read-only classifier for SQL submissions from restricted
// roles.
type PermissionGate struct {
	classifier *Classifier
}

func NewPermissionGate(classifier *Classifier) *PermissionGate {
	return &PermissionGate{classifier: classifier}
}

// Authorize is pure: no side effects, no I/O.
func (g *PermissionGate) Authorize(role core.Role, action Action) bool {
	return capabilities[role][action]
}

// CheckQuery gates a raw SQL submission. Roles holding EXECUTE_QUERY bypass
// the classifier entirely; they may run destructive statements on purpose.
func (g *PermissionGate) CheckQuery(role core.Role, sqlText string) error {
	if g.Authorize(role, ActionExecuteQuery) {
		return nil
	}
	if !g.Authorize(role, ActionReadOnlyQuery) {
		return core.ErrInsufficientPermissions(role, string(ActionExecuteQuery))
	}
	if !g.classifier.IsReadOnly(sqlText) {
		return core.ErrReadOnlyRequired(role)
	}
	return nil
}

// CanReadSavedQuery applies the saved-query visibility rules: a business
// user sees only their own rows, a developer sees rows saved under the
// developer role, an admin sees everything.
func (g *PermissionGate) CanReadSavedQuery(user *core.UserAccount, sq *core.SavedQuery) bool {
	switch user.Role {
	case core.RoleAdmin:
		return true
	case core.RoleDeveloper:
		return sq.RoleAtSave == core.RoleDeveloper
	case core.RoleBusinessUser:
		return sq.CreatedBy == user.ID
	}
	return false
}

// CanDeleteSavedQuery restricts deletion to the creator regardless of role.
func (g *PermissionGate) CanDeleteSavedQuery(user *core.UserAccount, sq *core.SavedQuery) bool {
	return sq.CreatedBy == user.ID
}
