package data

import (
	"database/sql"
	"time"

	"cloudsqlconsole/internal/core"
)

type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) Create(s *core.Session) error {
	// Timestamps are stored in UTC so text-level comparisons in SQL agree
	// with chronological order regardless of the server's zone.
	res, err := r.db.Exec(`INSERT INTO sessions (user_id, token, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		s.UserID, s.Token, s.ExpiresAt.UTC(), s.CreatedAt.UTC())
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	s.ID = id
	return nil
}

// GetByToken returns nil, nil when no session exists for the token.
func (r *SessionRepo) GetByToken(token string) (*core.Session, error) {
	var s core.Session
	err := r.db.QueryRow(`SELECT id, user_id, token, expires_at, created_at FROM sessions WHERE token = ?`, token).
		Scan(&s.ID, &s.UserID, &s.Token, &s.ExpiresAt, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepo) DeleteByToken(token string) error {
	_, err := r.db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	return err
}

// DeleteExpired removes every session past its expiry and reports how many
// rows went away. The bound is computed in Go, like Validate's expiry check,
// so the sweep never depends on the database clock or its timestamp format.
func (r *SessionRepo) DeleteExpired() (int64, error) {
	res, err := r.db.Exec(`DELETE FROM sessions WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
