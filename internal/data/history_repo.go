package data

import (
	"database/sql"
	"encoding/json"
	"time"

	"cloudsqlconsole/internal/core"
)

// HistoryRepo persists the execution history: one query_history row per
// executed statement plus a query_results snapshot. Row data and column
// descriptors are stored as JSON text.
type HistoryRepo struct {
	db *sql.DB
}

func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

func (r *HistoryRepo) CreateRecord(q *core.QueryRecord) error {
	res, err := r.db.Exec(`INSERT INTO query_history (name, sql_text, connection_id, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`, q.Name, q.SQLText, q.ConnectionID)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	q.ID = id
	return nil
}

func (r *HistoryRepo) CreateResult(qr *core.QueryResultRecord) error {
	rowData, err := json.Marshal(qr.Rows)
	if err != nil {
		return err
	}
	cols, err := json.Marshal(qr.Columns)
	if err != nil {
		return err
	}

	res, err := r.db.Exec(`INSERT INTO query_results (query_id, row_data, columns, duration_ms, row_count, created_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		qr.QueryID, string(rowData), string(cols), qr.DurationMs, qr.RowCount)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	qr.ID = id
	return nil
}

func (r *HistoryRepo) GetRecent(limit int) ([]core.QueryRecord, error) {
	rows, err := r.db.Query(`SELECT id, name, sql_text, connection_id, created_at, updated_at
		FROM query_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []core.QueryRecord
	for rows.Next() {
		var q core.QueryRecord
		var name sql.NullString
		var connID sql.NullInt64
		if err := rows.Scan(&q.ID, &name, &q.SQLText, &connID, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		q.Name = name.String
		q.ConnectionID = connID.Int64
		records = append(records, q)
	}
	return records, rows.Err()
}

// GetLatestResult returns the newest result snapshot for a history entry, or
// nil, nil when none was recorded.
func (r *HistoryRepo) GetLatestResult(queryID int64) (*core.QueryResultRecord, error) {
	var qr core.QueryResultRecord
	var rowData, cols string
	var created time.Time
	err := r.db.QueryRow(`SELECT id, query_id, row_data, columns, duration_ms, row_count, created_at
		FROM query_results WHERE query_id = ? ORDER BY id DESC LIMIT 1`, queryID).
		Scan(&qr.ID, &qr.QueryID, &rowData, &cols, &qr.DurationMs, &qr.RowCount, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	qr.CreatedAt = created

	if err := json.Unmarshal([]byte(rowData), &qr.Rows); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cols), &qr.Columns); err != nil {
		return nil, err
	}
	return &qr, nil
}
