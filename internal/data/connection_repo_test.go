package data

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudsqlconsole/internal/core"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newProfile(name string) *core.ConnectionProfile {
	return &core.ConnectionProfile{
		Name:      name,
		Engine:    core.EnginePostgreSQL,
		Host:      "localhost",
		Port:      5432,
		Database:  "app",
		Username:  "app",
		SecretEnc: "enc",
	}
}

func TestConnectionCRUD(t *testing.T) {
	repo := NewConnectionRepo(newTestDB(t))

	p := newProfile("primary")
	p.UseTLS = true
	require.NoError(t, repo.Create(p))
	require.NotZero(t, p.ID)

	got, err := repo.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "primary", got.Name)
	assert.Equal(t, core.EnginePostgreSQL, got.Engine)
	assert.True(t, got.UseTLS)
	assert.False(t, got.IsActive)

	got.Host = "db.internal"
	require.NoError(t, repo.Update(got))
	got, err = repo.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", got.Host)

	require.NoError(t, repo.Delete(p.ID))
	_, err = repo.GetByID(p.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestActivateKeepsExactlyOneActive(t *testing.T) {
	repo := NewConnectionRepo(newTestDB(t))

	a := newProfile("a")
	b := newProfile("b")
	c := newProfile("c")
	for _, p := range []*core.ConnectionProfile{a, b, c} {
		require.NoError(t, repo.Create(p))
	}

	require.NoError(t, repo.Activate(a.ID))
	require.NoError(t, repo.Activate(b.ID))

	profiles, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, profiles, 3)

	var active []int64
	for _, p := range profiles {
		if p.IsActive {
			active = append(active, p.ID)
		}
	}
	require.Len(t, active, 1)
	assert.Equal(t, b.ID, active[0])
}

func TestActivateUnknownID(t *testing.T) {
	repo := NewConnectionRepo(newTestDB(t))

	a := newProfile("a")
	require.NoError(t, repo.Create(a))
	require.NoError(t, repo.Activate(a.ID))

	// Activating a missing profile fails and must not clear the current one
	assert.ErrorIs(t, repo.Activate(9999), sql.ErrNoRows)

	got, err := repo.GetByID(a.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestConnectionCount(t *testing.T) {
	repo := NewConnectionRepo(newTestDB(t))

	n, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, repo.Create(newProfile("a")))
	n, err = repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
