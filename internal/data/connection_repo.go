package data

import (
	"database/sql"

	"cloudsqlconsole/internal/core"
)

type ConnectionRepo struct {
	db *sql.DB
}

func NewConnectionRepo(db *sql.DB) *ConnectionRepo {
	return &ConnectionRepo{db: db}
}

func (r *ConnectionRepo) Create(c *core.ConnectionProfile) error {
	res, err := r.db.Exec(`INSERT INTO connections (name, engine, host, port, db_name, username, secret_enc, use_tls, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		c.Name, string(c.Engine), c.Host, c.Port, c.Database, c.Username, c.SecretEnc, c.UseTLS, c.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (r *ConnectionRepo) GetAll() ([]core.ConnectionProfile, error) {
	rows, err := r.db.Query(`SELECT id, name, engine, host, port, db_name, username, secret_enc, use_tls, is_active, created_at
		FROM connections ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []core.ConnectionProfile
	for rows.Next() {
		c, err := scanProfile(rows.Scan)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *c)
	}
	return profiles, rows.Err()
}

func (r *ConnectionRepo) GetByID(id int64) (*core.ConnectionProfile, error) {
	row := r.db.QueryRow(`SELECT id, name, engine, host, port, db_name, username, secret_enc, use_tls, is_active, created_at
		FROM connections WHERE id = ?`, id)
	return scanProfile(row.Scan)
}

func scanProfile(scan func(dest ...any) error) (*core.ConnectionProfile, error) {
	var c core.ConnectionProfile
	var engine string
	// SQLite stores booleans as integers (0 or 1)
	var useTLS, isActive int
	err := scan(&c.ID, &c.Name, &engine, &c.Host, &c.Port, &c.Database, &c.Username, &c.SecretEnc, &useTLS, &isActive, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.Engine = core.EngineKind(engine)
	c.UseTLS = useTLS == 1
	c.IsActive = isActive == 1
	return &c, nil
}

func (r *ConnectionRepo) Update(c *core.ConnectionProfile) error {
	_, err := r.db.Exec(`UPDATE connections SET name=?, engine=?, host=?, port=?, db_name=?, username=?, secret_enc=?, use_tls=?, is_active=? WHERE id=?`,
		c.Name, string(c.Engine), c.Host, c.Port, c.Database, c.Username, c.SecretEnc, c.UseTLS, c.IsActive, c.ID)
	return err
}

func (r *ConnectionRepo) Delete(id int64) error {
	_, err := r.db.Exec(`DELETE FROM connections WHERE id=?`, id)
	return err
}

// Activate clears all is_active flags and sets the target's inside one
// transaction, so the store never holds zero or two active profiles between
// the two writes.
func (r *ConnectionRepo) Activate(id int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE connections SET is_active = 0 WHERE is_active = 1`); err != nil {
		return err
	}
	res, err := tx.Exec(`UPDATE connections SET is_active = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

func (r *ConnectionRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM connections`).Scan(&count)
	return count, err
}
