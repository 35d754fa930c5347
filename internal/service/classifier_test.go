package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifierReadOnly(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name string
		sql  string
		want bool
	}{
		{"plain select", "SELECT 1", true},
		{"lowercase select", "select * from users", true},
		{"leading whitespace", "   SELECT id FROM t", true},
		{"leading line comment", "  -- comment\nSELECT 1", true},
		{"leading block comment", "/* note */ SELECT 1", true},
		{"cte", "WITH c AS (SELECT 1) SELECT * FROM c", true},
		{"explain", "EXPLAIN SELECT * FROM t", true},
		{"describe", "DESCRIBE t", true},
		{"desc", "DESC t", true},
		{"show", "SHOW TABLES", true},
		{"trailing semicolon", "SELECT 1;", true},

		{"empty", "", false},
		{"whitespace only", "   \n\t ", false},
		{"comment only", "-- nothing here", false},
		{"update", "UPDATE t SET x=1", false},
		{"insert", "INSERT INTO t VALUES (1)", false},
		{"delete", "DELETE FROM t", false},
		{"drop", "DROP TABLE t", false},
		{"truncate", "TRUNCATE TABLE t", false},
		{"lowercase delete", "delete from t where id = 1", false},
		{"smuggled second statement", "SELECT 1; DROP TABLE x", false},
		{"multi select batch", "SELECT 1; SELECT 2", false},
		{"write inside cte", "WITH c AS (DELETE FROM t RETURNING *) SELECT * FROM c", false},
		{"write in subquery", "SELECT * FROM (INSERT INTO t VALUES (1)) x", false},
		{"grant", "GRANT ALL ON t TO alice", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsReadOnly(tt.sql), "sql: %q", tt.sql)
		})
	}
}

func TestClassifierDoesNotRejectKeywordSubstrings(t *testing.T) {
	c := NewClassifier()

	// Column and table names containing write keywords as substrings must
	// not trip the whole-word check.
	assert.True(t, c.IsReadOnly("SELECT updated_at FROM deletions"))
	assert.True(t, c.IsReadOnly("SELECT * FROM replacements"))
}
