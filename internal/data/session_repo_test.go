package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudsqlconsole/internal/core"
)

func TestSessionRoundTrip(t *testing.T) {
	repo := NewSessionRepo(newTestDB(t))

	s := &core.Session{
		UserID:    1,
		Token:     "abc123",
		ExpiresAt: time.Now().Add(24 * time.Hour),
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(s))
	require.NotZero(t, s.ID)

	got, err := repo.GetByToken("abc123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.UserID)

	require.NoError(t, repo.DeleteByToken("abc123"))
	got, err = repo.GetByToken("abc123")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetByTokenUnknown(t *testing.T) {
	repo := NewSessionRepo(newTestDB(t))
	got, err := repo.GetByToken("no-such-token")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteExpiredKeepsValidSessions(t *testing.T) {
	repo := NewSessionRepo(newTestDB(t))

	// Timestamps carrying a negative UTC offset must not trip the sweep
	// into deleting sessions that are still hours from expiring.
	loc := time.FixedZone("UTC-5", -5*60*60)
	now := time.Now().In(loc)

	valid := &core.Session{
		UserID:    1,
		Token:     "still-good",
		ExpiresAt: now.Add(2 * time.Hour),
		CreatedAt: now,
	}
	expired := &core.Session{
		UserID:    1,
		Token:     "long-gone",
		ExpiresAt: now.Add(-time.Hour),
		CreatedAt: now.Add(-25 * time.Hour),
	}
	require.NoError(t, repo.Create(valid))
	require.NoError(t, repo.Create(expired))

	n, err := repo.DeleteExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetByToken("still-good")
	require.NoError(t, err)
	assert.NotNil(t, got)

	got, err = repo.GetByToken("long-gone")
	require.NoError(t, err)
	assert.Nil(t, got)
}
