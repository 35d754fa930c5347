package core

import (
	"time"
)

// Role is the trust level assigned to a user account.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDeveloper    Role = "developer"
	RoleBusinessUser Role = "business_user"
)

// ValidRole reports whether s names a known role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleAdmin, RoleDeveloper, RoleBusinessUser:
		return true
	}
	return false
}

// EngineKind identifies a target database engine.
type EngineKind string

const (
	EngineMySQL      EngineKind = "mysql"
	EnginePostgreSQL EngineKind = "postgresql"
)

// ValidEngine reports whether s names a supported engine.
func ValidEngine(s string) bool {
	switch EngineKind(s) {
	case EngineMySQL, EnginePostgreSQL:
		return true
	}
	return false
}

type UserAccount struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session binds an opaque bearer token to a user until it expires.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// ConnectionProfile describes how to reach one engine instance. The secret
// is held encrypted at rest and never serialized out.
type ConnectionProfile struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Engine    EngineKind `json:"engine"`
	Host      string     `json:"host"`
	Port      int        `json:"port"`
	Database  string     `json:"database"`
	Username  string     `json:"username"`
	SecretEnc string     `json:"-"`
	UseTLS    bool       `json:"use_tls"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
}

// QueryRecord is one entry in the execution history. ConnectionID is a weak
// reference: the profile may have been deleted since.
type QueryRecord struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	SQLText      string    `json:"sql_text"`
	ConnectionID int64     `json:"connection_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// QueryResultRecord is the persisted snapshot of one execution. Immutable
// once written.
type QueryResultRecord struct {
	ID         int64              `json:"id"`
	QueryID    int64              `json:"query_id"`
	Rows       []map[string]any   `json:"rows"`
	Columns    []ColumnDescriptor `json:"columns"`
	DurationMs int64              `json:"duration_ms"`
	RowCount   int                `json:"row_count"`
	CreatedAt  time.Time          `json:"created_at"`
}

type SavedQuery struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	SQLText    string    `json:"sql_text"`
	CreatedBy  int64     `json:"created_by"`
	RoleAtSave Role      `json:"role_at_save"`
	CreatedAt  time.Time `json:"created_at"`
}

// ColumnDescriptor pairs a result column name with the driver-native type
// tag. The tag is an opaque display hint, not a unified type system.
type ColumnDescriptor struct {
	Name    string `json:"name"`
	TypeTag string `json:"type_tag"`
}

// ExecutionResult is the canonical engine-agnostic result shape.
type ExecutionResult struct {
	Rows        []map[string]any   `json:"rows"`
	Columns     []ColumnDescriptor `json:"columns"`
	DurationMs  int64              `json:"execution_time_ms"`
	RowCount    int                `json:"row_count"`
	HasMoreRows bool               `json:"has_more_rows"`
}

// SchemaTable is one entry in an engine's table listing. RowCount is the
// engine's approximation, not an exact count.
type SchemaTable struct {
	Name     string `json:"name"`
	RowCount int64  `json:"approx_row_count"`
}
