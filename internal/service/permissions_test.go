package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudsqlconsole/internal/core"
)

func TestAuthorizeTable(t *testing.T) {
	gate := NewPermissionGate(NewClassifier())

	tests := []struct {
		role   core.Role
		action Action
		want   bool
	}{
		{core.RoleAdmin, ActionCreateUser, true},
		{core.RoleAdmin, ActionManageConnections, true},
		{core.RoleAdmin, ActionExecuteQuery, true},
		{core.RoleAdmin, ActionReadOnlyQuery, true},

		{core.RoleDeveloper, ActionCreateUser, false},
		{core.RoleDeveloper, ActionManageConnections, true},
		{core.RoleDeveloper, ActionExecuteQuery, true},
		{core.RoleDeveloper, ActionReadOnlyQuery, true},

		{core.RoleBusinessUser, ActionCreateUser, false},
		{core.RoleBusinessUser, ActionManageConnections, false},
		{core.RoleBusinessUser, ActionExecuteQuery, false},
		{core.RoleBusinessUser, ActionReadOnlyQuery, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, gate.Authorize(tt.role, tt.action),
			"role=%s action=%s", tt.role, tt.action)
	}
}

func TestAuthorizeUnknownRole(t *testing.T) {
	gate := NewPermissionGate(NewClassifier())
	assert.False(t, gate.Authorize(core.Role("superuser"), ActionReadOnlyQuery))
}

func TestCheckQuery(t *testing.T) {
	gate := NewPermissionGate(NewClassifier())

	// Admin and developer bypass the classifier entirely
	assert.NoError(t, gate.CheckQuery(core.RoleAdmin, "DROP TABLE t"))
	assert.NoError(t, gate.CheckQuery(core.RoleDeveloper, "DELETE FROM t"))

	// Business users may run read-only statements
	assert.NoError(t, gate.CheckQuery(core.RoleBusinessUser, "SELECT * FROM t"))

	// ...but not mutations
	err := gate.CheckQuery(core.RoleBusinessUser, "DELETE FROM t")
	require.Error(t, err)
	ce := core.AsCoded(err)
	require.NotNil(t, ce)
	assert.Equal(t, core.CodeReadOnlyRequired, ce.Code)

	// Unknown roles hold no capabilities at all
	err = gate.CheckQuery(core.Role("ghost"), "SELECT 1")
	require.Error(t, err)
	ce = core.AsCoded(err)
	require.NotNil(t, ce)
	assert.Equal(t, core.CodeInsufficientPerms, ce.Code)
}

func TestSavedQueryAccess(t *testing.T) {
	gate := NewPermissionGate(NewClassifier())

	admin := &core.UserAccount{ID: 1, Role: core.RoleAdmin}
	dev := &core.UserAccount{ID: 2, Role: core.RoleDeveloper}
	analyst := &core.UserAccount{ID: 3, Role: core.RoleBusinessUser}

	ownQuery := &core.SavedQuery{ID: 10, CreatedBy: 3, RoleAtSave: core.RoleBusinessUser}
	devQuery := &core.SavedQuery{ID: 11, CreatedBy: 2, RoleAtSave: core.RoleDeveloper}
	adminQuery := &core.SavedQuery{ID: 12, CreatedBy: 1, RoleAtSave: core.RoleAdmin}

	// Admin reads everything
	assert.True(t, gate.CanReadSavedQuery(admin, ownQuery))
	assert.True(t, gate.CanReadSavedQuery(admin, devQuery))
	assert.True(t, gate.CanReadSavedQuery(admin, adminQuery))

	// Developer reads rows saved under the developer role
	assert.True(t, gate.CanReadSavedQuery(dev, devQuery))
	assert.False(t, gate.CanReadSavedQuery(dev, ownQuery))
	assert.False(t, gate.CanReadSavedQuery(dev, adminQuery))

	// Business user reads only their own rows
	assert.True(t, gate.CanReadSavedQuery(analyst, ownQuery))
	assert.False(t, gate.CanReadSavedQuery(analyst, devQuery))

	// Delete is creator-only regardless of role
	assert.True(t, gate.CanDeleteSavedQuery(analyst, ownQuery))
	assert.False(t, gate.CanDeleteSavedQuery(admin, ownQuery))
	assert.False(t, gate.CanDeleteSavedQuery(dev, ownQuery))
}
