package data

import (
	"database/sql"
	"time"

	"cloudsqlconsole/internal/core"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(username, passwordHash string, role core.Role) (*core.UserAccount, error) {
	res, err := r.db.Exec(`INSERT INTO users (username, password_hash, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, 1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`, username, passwordHash, string(role))
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	now := time.Now()
	return &core.UserAccount{ID: id, Username: username, Role: role, IsActive: true, CreatedAt: now, UpdatedAt: now}, nil
}

func (r *UserRepo) GetByUsername(username string) (*core.UserAccount, error) {
	return r.scanOne(r.db.QueryRow(
		`SELECT id, username, password_hash, role, is_active, created_at, updated_at FROM users WHERE username = ?`, username))
}

func (r *UserRepo) GetByID(id int64) (*core.UserAccount, error) {
	return r.scanOne(r.db.QueryRow(
		`SELECT id, username, password_hash, role, is_active, created_at, updated_at FROM users WHERE id = ?`, id))
}

func (r *UserRepo) scanOne(row *sql.Row) (*core.UserAccount, error) {
	var u core.UserAccount
	var role string
	var isActive int
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &isActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = core.Role(role)
	u.IsActive = isActive == 1
	return &u, nil
}

func (r *UserRepo) GetAll() ([]core.UserAccount, error) {
	rows, err := r.db.Query(`SELECT id, username, role, is_active, created_at, updated_at FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []core.UserAccount
	for rows.Next() {
		var u core.UserAccount
		var role string
		var isActive int
		if err := rows.Scan(&u.ID, &u.Username, &role, &isActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Role = core.Role(role)
		u.IsActive = isActive == 1
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepo) Update(u *core.UserAccount) error {
	// Only update password if hash is not empty
	if u.PasswordHash != "" {
		_, err := r.db.Exec(`UPDATE users SET username=?, password_hash=?, role=?, is_active=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`,
			u.Username, u.PasswordHash, string(u.Role), u.IsActive, u.ID)
		return err
	}
	_, err := r.db.Exec(`UPDATE users SET username=?, role=?, is_active=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`,
		u.Username, string(u.Role), u.IsActive, u.ID)
	return err
}

func (r *UserRepo) Delete(id int64) error {
	_, err := r.db.Exec(`DELETE FROM users WHERE id=?`, id)
	return err
}

// Count returns the total number of accounts (used by the bootstrap check)
func (r *UserRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}
