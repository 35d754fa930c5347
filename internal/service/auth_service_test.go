package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudsqlconsole/internal/core"
	"cloudsqlconsole/internal/data"
	"cloudsqlconsole/internal/logger"
)

func newAuthService(t *testing.T) (*AuthService, *data.UserRepo, *data.SessionRepo) {
	t.Helper()
	logger.InitDiscard()

	db, err := data.InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	userRepo := data.NewUserRepo(db)
	sessionRepo := data.NewSessionRepo(db)
	return NewAuthService(userRepo, sessionRepo), userRepo, sessionRepo
}

func createUser(t *testing.T, svc *AuthService, repo *data.UserRepo, username, password string, role core.Role) *core.UserAccount {
	t.Helper()
	hash, err := svc.HashSecret(password)
	require.NoError(t, err)
	user, err := repo.Create(username, hash, role)
	require.NoError(t, err)
	return user
}

func TestLoginValidateLogoutRoundTrip(t *testing.T) {
	svc, userRepo, _ := newAuthService(t)
	created := createUser(t, svc, userRepo, "alice", "hunter2", core.RoleDeveloper)

	user, token, err := svc.Login("alice", "hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, created.ID, user.ID)

	resolved := svc.Validate(token)
	require.NotNil(t, resolved)
	assert.Equal(t, created.ID, resolved.ID)
	assert.Equal(t, core.RoleDeveloper, resolved.Role)

	assert.True(t, svc.Logout(token))
	assert.Nil(t, svc.Validate(token))

	// Logout stays successful when the token is already gone
	assert.True(t, svc.Logout(token))
}

func TestLoginFailureModesAreIndistinguishable(t *testing.T) {
	svc, userRepo, _ := newAuthService(t)
	createUser(t, svc, userRepo, "alice", "hunter2", core.RoleDeveloper)

	inactive := createUser(t, svc, userRepo, "bob", "hunter2", core.RoleDeveloper)
	inactive.IsActive = false
	inactive.PasswordHash = ""
	require.NoError(t, userRepo.Update(inactive))

	_, _, unknownErr := svc.Login("nobody", "hunter2")
	_, _, wrongPassErr := svc.Login("alice", "wrong")
	_, _, inactiveErr := svc.Login("bob", "hunter2")

	require.Error(t, unknownErr)
	assert.Equal(t, unknownErr, wrongPassErr)
	assert.Equal(t, unknownErr, inactiveErr)
	assert.Equal(t, core.CodeInvalidCredentials, core.AsCoded(unknownErr).Code)
}

func TestValidateExpiredSessionIsRemoved(t *testing.T) {
	svc, userRepo, sessionRepo := newAuthService(t)
	user := createUser(t, svc, userRepo, "alice", "hunter2", core.RoleDeveloper)

	expired := &core.Session{
		UserID:    user.ID,
		Token:     "deadbeef",
		ExpiresAt: time.Now().Add(-time.Second),
		CreatedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, sessionRepo.Create(expired))

	assert.Nil(t, svc.Validate("deadbeef"))

	// The expired row was deleted as a side effect
	session, err := sessionRepo.GetByToken("deadbeef")
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestValidateRejectsInactiveOwner(t *testing.T) {
	svc, userRepo, _ := newAuthService(t)
	user := createUser(t, svc, userRepo, "alice", "hunter2", core.RoleDeveloper)

	_, token, err := svc.Login("alice", "hunter2")
	require.NoError(t, err)
	require.NotNil(t, svc.Validate(token))

	user.IsActive = false
	user.PasswordHash = ""
	require.NoError(t, userRepo.Update(user))

	assert.Nil(t, svc.Validate(token))
}

func TestValidateEmptyAndUnknownToken(t *testing.T) {
	svc, _, _ := newAuthService(t)
	assert.Nil(t, svc.Validate(""))
	assert.Nil(t, svc.Validate("no-such-token"))
}

func TestBootstrapDefaultAdmin(t *testing.T) {
	svc, userRepo, _ := newAuthService(t)

	require.NoError(t, svc.BootstrapDefaultAdmin())

	admin, err := userRepo.GetByUsername(DefaultAdminUsername)
	require.NoError(t, err)
	assert.Equal(t, core.RoleAdmin, admin.Role)

	_, _, err = svc.Login(DefaultAdminUsername, DefaultAdminPassword)
	assert.NoError(t, err)

	// A second call must not create another account
	require.NoError(t, svc.BootstrapDefaultAdmin())
	count, err := userRepo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBootstrapSkippedWhenUsersExist(t *testing.T) {
	svc, userRepo, _ := newAuthService(t)
	createUser(t, svc, userRepo, "alice", "hunter2", core.RoleAdmin)

	require.NoError(t, svc.BootstrapDefaultAdmin())
	_, err := userRepo.GetByUsername(DefaultAdminUsername)
	assert.Error(t, err)
}

func TestResetPassword(t *testing.T) {
	svc, userRepo, _ := newAuthService(t)
	createUser(t, svc, userRepo, "alice", "old-pass", core.RoleDeveloper)

	require.NoError(t, svc.ResetPassword("alice", "new-pass"))

	_, _, err := svc.Login("alice", "old-pass")
	assert.Error(t, err)
	_, _, err = svc.Login("alice", "new-pass")
	assert.NoError(t, err)
}
