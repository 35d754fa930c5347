package service

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"cloudsqlconsole/internal/core"
)

const (
	MaxPageLimit = 1000

	connectTimeout = 10 * time.Second
)

// PageRequest asks the engine to window the result set.
type PageRequest struct {
	Limit  int
	Offset int
}

// QueryExecutor opens a short-lived connection per call against the target
// engine, optionally injects pagination, and normalizes the driver result
// into the canonical shape. No pooling across calls.
type QueryExecutor struct {
	cipher *SecretCipher

	limitClause  *regexp.Regexp
	selectShaped *regexp.Regexp
	trailingSemi *regexp.Regexp
}

func NewQueryExecutor(cipher *SecretCipher) *QueryExecutor {
	return &QueryExecutor{
		cipher:       cipher,
		limitClause:  regexp.MustCompile(`(?i)\bLIMIT\b`),
		selectShaped: regexp.MustCompile(`(?i)^\s*(SELECT|WITH)\b`),
		trailingSemi: regexp.MustCompile(`[;\s]+$`),
	}
}

// TestConnection opens a connection, pings it and closes it. Any failure
// reports false, never an error.
func (e *QueryExecutor) TestConnection(ctx context.Context, profile *core.ConnectionProfile) bool {
	db, err := e.open(profile)
	if err != nil {
		return false
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	return db.PingContext(pingCtx) == nil
}

// Execute runs sqlText against the profile's engine and returns the
// canonical result. Pagination parameters are validated before any I/O.
func (e *QueryExecutor) Execute(ctx context.Context, profile *core.ConnectionProfile, sqlText string, page *PageRequest) (*core.ExecutionResult, error) {
	if page != nil {
		if page.Limit < 1 || page.Limit > MaxPageLimit {
			return nil, core.ErrInvalidPagination(fmt.Sprintf("limit must be between 1 and %d", MaxPageLimit))
		}
		if page.Offset < 0 {
			return nil, core.ErrInvalidPagination("offset must not be negative")
		}
	}

	// One row beyond the limit is requested so a further page can be
	// detected; the overshoot row is trimmed before returning.
	finalSQL := sqlText
	paginated := false
	if page != nil {
		finalSQL, paginated = e.addPagination(sqlText, page.Limit+1, page.Offset)
	}

	db, err := e.open(profile)
	if err != nil {
		return nil, core.ErrQueryExecutionFailed(err)
	}
	defer db.Close()

	start := time.Now()
	rows, err := db.QueryContext(ctx, finalSQL)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return nil, core.ErrQueryExecutionFailed(err)
	}
	defer rows.Close()

	columns, resultRows, err := scanRows(rows)
	if err != nil {
		return nil, core.ErrQueryExecutionFailed(err)
	}

	hasMore := false
	if paginated {
		resultRows, hasMore = trimOverflow(resultRows, page.Limit)
	}

	return &core.ExecutionResult{
		Rows:        resultRows,
		Columns:     columns,
		DurationMs:  elapsed,
		RowCount:    len(resultRows),
		HasMoreRows: hasMore,
	}, nil
}

// GetSchema lists the target database's tables with approximate row counts.
func (e *QueryExecutor) GetSchema(ctx context.Context, profile *core.ConnectionProfile) ([]core.SchemaTable, error) {
	db, err := e.open(profile)
	if err != nil {
		return nil, core.ErrSchemaFetchFailed(err)
	}
	defer db.Close()

	var query string
	switch profile.Engine {
	case core.EngineMySQL:
		query = `SELECT table_name, COALESCE(table_rows, 0)
			FROM information_schema.tables
			WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
			ORDER BY table_name`
	case core.EnginePostgreSQL:
		query = `SELECT c.relname, GREATEST(c.reltuples::bigint, 0)
			FROM pg_class c
			JOIN pg_namespace n ON n.oid = c.relnamespace
			WHERE n.nspname = 'public' AND c.relkind = 'r'
			ORDER BY c.relname`
	default:
		return nil, core.ErrSchemaFetchFailed(fmt.Errorf("unsupported engine: %s", profile.Engine))
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, core.ErrSchemaFetchFailed(err)
	}
	defer rows.Close()

	var tables []core.SchemaTable
	for rows.Next() {
		var t core.SchemaTable
		if err := rows.Scan(&t.Name, &t.RowCount); err != nil {
			return nil, core.ErrSchemaFetchFailed(err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, core.ErrSchemaFetchFailed(err)
	}
	return tables, nil
}

// addPagination appends LIMIT/OFFSET to SELECT-shaped statements that do not
// already carry a LIMIT clause; callers who paginated by hand are left alone.
// Anything else (DML, DDL, SHOW, DESCRIBE) passes through untouched — an
// appended LIMIT would be a syntax error there.
func (e *QueryExecutor) addPagination(sqlText string, limit, offset int) (string, bool) {
	if !e.selectShaped.MatchString(sqlText) {
		return sqlText, false
	}
	if e.limitClause.MatchString(sqlText) {
		return sqlText, false
	}
	// Trailing semicolons would end the statement before the appended clause
	trimmed := e.trailingSemi.ReplaceAllString(sqlText, "")
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", trimmed, limit, offset), true
}

// trimOverflow drops the extra row fetched beyond the page limit. A full
// page plus one means there is more behind it.
func trimOverflow(rows []map[string]any, limit int) ([]map[string]any, bool) {
	if len(rows) > limit {
		return rows[:limit], true
	}
	return rows, false
}

// open decrypts the profile secret and dials a fresh connection.
func (e *QueryExecutor) open(profile *core.ConnectionProfile) (*sql.DB, error) {
	secret, err := e.cipher.Decrypt(profile.SecretEnc)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt connection secret: %w", err)
	}

	driver, dsn, err := buildDSN(profile, secret)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", profile.Engine, err)
	}
	return db, nil
}

func buildDSN(profile *core.ConnectionProfile, secret string) (driver, dsn string, err error) {
	switch profile.Engine {
	case core.EngineMySQL:
		cfg := mysql.NewConfig()
		cfg.User = profile.Username
		cfg.Passwd = secret
		cfg.Net = "tcp"
		cfg.Addr = fmt.Sprintf("%s:%d", profile.Host, profile.Port)
		cfg.DBName = profile.Database
		cfg.ParseTime = true
		cfg.Timeout = connectTimeout
		if profile.UseTLS {
			cfg.TLSConfig = "skip-verify"
		}
		return "mysql", cfg.FormatDSN(), nil
	case core.EnginePostgreSQL:
		sslmode := "disable"
		if profile.UseTLS {
			sslmode = "require"
		}
		parts := []string{
			fmt.Sprintf("host=%s", pqQuote(profile.Host)),
			fmt.Sprintf("port=%d", profile.Port),
			fmt.Sprintf("dbname=%s", pqQuote(profile.Database)),
			fmt.Sprintf("user=%s", pqQuote(profile.Username)),
			fmt.Sprintf("password=%s", pqQuote(secret)),
			fmt.Sprintf("sslmode=%s", sslmode),
			fmt.Sprintf("connect_timeout=%d", int(connectTimeout.Seconds())),
		}
		return "postgres", strings.Join(parts, " "), nil
	}
	return "", "", fmt.Errorf("unsupported engine: %s", profile.Engine)
}

// pqQuote single-quotes a libpq DSN value so spaces and quotes survive.
func pqQuote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// scanRows normalizes driver rows into ordered column descriptors and
// generic row maps. []byte values are decoded to strings for JSON output.
func scanRows(rows *sql.Rows) ([]core.ColumnDescriptor, []map[string]any, error) {
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, nil, err
	}

	columns := make([]core.ColumnDescriptor, len(colTypes))
	for i, ct := range colTypes {
		columns[i] = core.ColumnDescriptor{
			Name:    ct.Name(),
			TypeTag: ct.DatabaseTypeName(),
		}
	}

	resultRows := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range columns {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, nil, err
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			val := values[i]
			if b, ok := val.([]byte); ok {
				rowMap[col.Name] = string(b)
			} else {
				rowMap[col.Name] = val
			}
		}
		resultRows = append(resultRows, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return columns, resultRows, nil
}
