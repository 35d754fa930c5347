package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudsqlconsole/internal/core"
)

func TestHistoryRecordAndResult(t *testing.T) {
	repo := NewHistoryRepo(newTestDB(t))

	record := &core.QueryRecord{
		Name:         "SELECT 1",
		SQLText:      "SELECT 1",
		ConnectionID: 7,
	}
	require.NoError(t, repo.CreateRecord(record))
	require.NotZero(t, record.ID)

	result := &core.QueryResultRecord{
		QueryID: record.ID,
		Rows: []map[string]any{
			{"n": float64(1)},
		},
		Columns: []core.ColumnDescriptor{
			{Name: "n", TypeTag: "INT4"},
		},
		DurationMs: 12,
		RowCount:   1,
	}
	require.NoError(t, repo.CreateResult(result))

	got, err := repo.GetLatestResult(record.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record.ID, got.QueryID)
	assert.Equal(t, int64(12), got.DurationMs)
	assert.Equal(t, 1, got.RowCount)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, float64(1), got.Rows[0]["n"])
	require.Len(t, got.Columns, 1)
	assert.Equal(t, "INT4", got.Columns[0].TypeTag)
}

func TestGetLatestResultPicksNewest(t *testing.T) {
	repo := NewHistoryRepo(newTestDB(t))

	record := &core.QueryRecord{SQLText: "SELECT 1"}
	require.NoError(t, repo.CreateRecord(record))

	for i := 1; i <= 3; i++ {
		require.NoError(t, repo.CreateResult(&core.QueryResultRecord{
			QueryID:  record.ID,
			Rows:     []map[string]any{},
			Columns:  []core.ColumnDescriptor{},
			RowCount: i,
		}))
	}

	got, err := repo.GetLatestResult(record.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.RowCount)
}

func TestGetLatestResultMissing(t *testing.T) {
	repo := NewHistoryRepo(newTestDB(t))
	got, err := repo.GetLatestResult(42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetRecentOrdersNewestFirst(t *testing.T) {
	repo := NewHistoryRepo(newTestDB(t))

	for _, sql := range []string{"SELECT 1", "SELECT 2", "SELECT 3"} {
		require.NoError(t, repo.CreateRecord(&core.QueryRecord{SQLText: sql}))
	}

	records, err := repo.GetRecent(2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "SELECT 3", records[0].SQLText)
	assert.Equal(t, "SELECT 2", records[1].SQLText)
}

func TestSavedQueryRepo(t *testing.T) {
	repo := NewSavedQueryRepo(newTestDB(t))

	sq := &core.SavedQuery{
		Name:       "daily actives",
		SQLText:    "SELECT count(*) FROM users",
		CreatedBy:  3,
		RoleAtSave: core.RoleBusinessUser,
	}
	require.NoError(t, repo.Create(sq))
	require.NotZero(t, sq.ID)

	got, err := repo.GetByID(sq.ID)
	require.NoError(t, err)
	assert.Equal(t, "daily actives", got.Name)
	assert.Equal(t, core.RoleBusinessUser, got.RoleAtSave)
	assert.Equal(t, int64(3), got.CreatedBy)

	all, err := repo.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.Delete(sq.ID))
	all, err = repo.GetAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}
