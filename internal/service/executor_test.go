package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudsqlconsole/internal/core"
)

func testCipher(t *testing.T) *SecretCipher {
	t.Helper()
	cipher, err := NewSecretCipher("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	return cipher
}

func TestAddPagination(t *testing.T) {
	e := NewQueryExecutor(testCipher(t))

	sql, applied := e.addPagination("SELECT * FROM t", 10, 0)
	assert.True(t, applied)
	assert.Equal(t, "SELECT * FROM t LIMIT 10 OFFSET 0", sql)

	sql, applied = e.addPagination("SELECT * FROM t", 25, 50)
	assert.True(t, applied)
	assert.Equal(t, "SELECT * FROM t LIMIT 25 OFFSET 50", sql)
}

func TestAddPaginationSkipsManualLimit(t *testing.T) {
	e := NewQueryExecutor(testCipher(t))

	// A statement that already paginates itself is left untouched
	sql, applied := e.addPagination("SELECT * FROM t LIMIT 5", 10, 0)
	assert.False(t, applied)
	assert.Equal(t, "SELECT * FROM t LIMIT 5", sql)

	sql, applied = e.addPagination("select * from t limit 5", 10, 0)
	assert.False(t, applied)
	assert.Equal(t, "select * from t limit 5", sql)
}

func TestAddPaginationStripsTrailingSemicolons(t *testing.T) {
	e := NewQueryExecutor(testCipher(t))

	sql, applied := e.addPagination("SELECT * FROM t;", 10, 0)
	assert.True(t, applied)
	assert.Equal(t, "SELECT * FROM t LIMIT 10 OFFSET 0", sql)

	sql, _ = e.addPagination("SELECT * FROM t ;  ", 10, 0)
	assert.Equal(t, "SELECT * FROM t LIMIT 10 OFFSET 0", sql)
}

func TestAddPaginationSkipsNonSelectStatements(t *testing.T) {
	e := NewQueryExecutor(testCipher(t))

	// LIMIT/OFFSET is only valid on SELECT-shaped statements; everything
	// else must reach the engine untouched.
	for _, sql := range []string{
		"DELETE FROM t",
		"UPDATE t SET x = 1",
		"SHOW TABLES",
		"DESCRIBE t",
		"EXPLAIN SELECT * FROM t",
	} {
		got, applied := e.addPagination(sql, 101, 0)
		assert.False(t, applied, "sql: %q", sql)
		assert.Equal(t, sql, got)
	}

	// SELECT and WITH still paginate
	_, applied := e.addPagination("  select * from t", 10, 0)
	assert.True(t, applied)
	_, applied = e.addPagination("WITH c AS (SELECT 1) SELECT * FROM c", 10, 0)
	assert.True(t, applied)
}

func TestAddPaginationDoesNotTreatLimitSubstringAsClause(t *testing.T) {
	e := NewQueryExecutor(testCipher(t))

	// "limits" is not a LIMIT clause
	_, applied := e.addPagination("SELECT * FROM limits_audit", 10, 0)
	assert.True(t, applied)
}

func TestExecuteRejectsBadPaginationBeforeIO(t *testing.T) {
	e := NewQueryExecutor(testCipher(t))

	// The profile is unreachable on purpose: validation must fire first.
	profile := &core.ConnectionProfile{
		Engine: core.EngineMySQL,
		Host:   "203.0.113.1",
		Port:   3306,
	}

	tests := []struct {
		name string
		page *PageRequest
	}{
		{"zero limit", &PageRequest{Limit: 0}},
		{"negative limit", &PageRequest{Limit: -5}},
		{"limit above cap", &PageRequest{Limit: MaxPageLimit + 1}},
		{"negative offset", &PageRequest{Limit: 10, Offset: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Execute(context.Background(), profile, "SELECT 1", tt.page)
			require.Error(t, err)
			ce := core.AsCoded(err)
			require.NotNil(t, ce)
			assert.Equal(t, core.CodeInvalidPagination, ce.Code)
		})
	}
}

func TestTrimOverflow(t *testing.T) {
	row := func(n int) []map[string]any {
		rows := make([]map[string]any, n)
		for i := range rows {
			rows[i] = map[string]any{"n": i}
		}
		return rows
	}

	// Exactly limit rows: no further page
	rows, more := trimOverflow(row(10), 10)
	assert.False(t, more)
	assert.Len(t, rows, 10)

	// Limit+1 rows: overflow trimmed, further page reported
	rows, more = trimOverflow(row(11), 10)
	assert.True(t, more)
	assert.Len(t, rows, 10)

	// Short page
	rows, more = trimOverflow(row(3), 10)
	assert.False(t, more)
	assert.Len(t, rows, 3)
}

func TestBuildDSN(t *testing.T) {
	mysqlProfile := &core.ConnectionProfile{
		Engine:   core.EngineMySQL,
		Host:     "db.internal",
		Port:     3306,
		Database: "sales",
		Username: "reader",
	}
	driver, dsn, err := buildDSN(mysqlProfile, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "mysql", driver)
	assert.Contains(t, dsn, "reader:s3cret@tcp(db.internal:3306)/sales")
	assert.Contains(t, dsn, "parseTime=true")

	mysqlProfile.UseTLS = true
	_, dsn, err = buildDSN(mysqlProfile, "s3cret")
	require.NoError(t, err)
	assert.Contains(t, dsn, "tls=skip-verify")

	pgProfile := &core.ConnectionProfile{
		Engine:   core.EnginePostgreSQL,
		Host:     "pg.internal",
		Port:     5432,
		Database: "sales",
		Username: "reader",
	}
	driver, dsn, err = buildDSN(pgProfile, "pass word")
	require.NoError(t, err)
	assert.Equal(t, "postgres", driver)
	assert.Contains(t, dsn, "host='pg.internal'")
	assert.Contains(t, dsn, `password='pass word'`)
	assert.Contains(t, dsn, "sslmode=disable")

	pgProfile.UseTLS = true
	_, dsn, err = buildDSN(pgProfile, "x")
	require.NoError(t, err)
	assert.Contains(t, dsn, "sslmode=require")

	_, _, err = buildDSN(&core.ConnectionProfile{Engine: "oracle"}, "x")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unsupported engine"))
}

func TestPqQuote(t *testing.T) {
	assert.Equal(t, `'plain'`, pqQuote("plain"))
	assert.Equal(t, `'it\'s'`, pqQuote("it's"))
	assert.Equal(t, `'a\\b'`, pqQuote(`a\b`))
}
