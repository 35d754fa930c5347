package core

// UserRepository defines storage operations for user accounts
type UserRepository interface {
	Create(username, passwordHash string, role Role) (*UserAccount, error)
	GetByUsername(username string) (*UserAccount, error)
	GetByID(id int64) (*UserAccount, error)
	GetAll() ([]UserAccount, error)
	Update(user *UserAccount) error
	Delete(id int64) error
	Count() (int, error)
}

// SessionRepository defines storage operations for session tokens
type SessionRepository interface {
	Create(session *Session) error
	GetByToken(token string) (*Session, error)
	DeleteByToken(token string) error
	DeleteExpired() (int64, error)
}

// ConnectionRepository defines storage operations for connection profiles
type ConnectionRepository interface {
	Create(profile *ConnectionProfile) error
	GetAll() ([]ConnectionProfile, error)
	GetByID(id int64) (*ConnectionProfile, error)
	Update(profile *ConnectionProfile) error
	Delete(id int64) error
	// Activate clears every is_active flag and sets the target's, in one
	// transaction, so readers never observe zero or two active profiles.
	Activate(id int64) error
	Count() (int, error)
}

// HistoryRepository defines storage operations for the execution history
type HistoryRepository interface {
	CreateRecord(record *QueryRecord) error
	CreateResult(result *QueryResultRecord) error
	GetRecent(limit int) ([]QueryRecord, error)
	GetLatestResult(queryID int64) (*QueryResultRecord, error)
}

// SavedQueryRepository defines storage operations for saved queries
type SavedQueryRepository interface {
	Create(query *SavedQuery) error
	GetAll() ([]SavedQuery, error)
	GetByID(id int64) (*SavedQuery, error)
	Delete(id int64) error
}
