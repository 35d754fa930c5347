package data

import (
	"database/sql"

	"cloudsqlconsole/internal/core"
)

type SavedQueryRepo struct {
	db *sql.DB
}

func NewSavedQueryRepo(db *sql.DB) *SavedQueryRepo {
	return &SavedQueryRepo{db: db}
}

func (r *SavedQueryRepo) Create(q *core.SavedQuery) error {
	res, err := r.db.Exec(`INSERT INTO saved_queries (name, sql_text, created_by, role_at_save, created_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`, q.Name, q.SQLText, q.CreatedBy, string(q.RoleAtSave))
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	q.ID = id
	return nil
}

func (r *SavedQueryRepo) GetByID(id int64) (*core.SavedQuery, error) {
	var q core.SavedQuery
	var role string
	err := r.db.QueryRow(`SELECT id, name, sql_text, created_by, role_at_save, created_at FROM saved_queries WHERE id = ?`, id).
		Scan(&q.ID, &q.Name, &q.SQLText, &q.CreatedBy, &role, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	q.RoleAtSave = core.Role(role)
	return &q, nil
}

func (r *SavedQueryRepo) GetAll() ([]core.SavedQuery, error) {
	rows, err := r.db.Query(`SELECT id, name, sql_text, created_by, role_at_save, created_at FROM saved_queries ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var queries []core.SavedQuery
	for rows.Next() {
		var q core.SavedQuery
		var role string
		if err := rows.Scan(&q.ID, &q.Name, &q.SQLText, &q.CreatedBy, &role, &q.CreatedAt); err != nil {
			return nil, err
		}
		q.RoleAtSave = core.Role(role)
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

func (r *SavedQueryRepo) Delete(id int64) error {
	_, err := r.db.Exec(`DELETE FROM saved_queries WHERE id=?`, id)
	return err
}
