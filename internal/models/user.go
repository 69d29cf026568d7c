package models

import "time"

// User represents an account row in the Users table.
type User struct {
	// RowID is the Grist row identifier, needed for PATCH updates.
	RowID int64
	// UserID is the application-level user identifier.
	UserID int64
	// Email is the account email address.
	Email string
	// UserName is the display/login name.
	UserName string
	// Password holds the stored credential, either a bcrypt hash or a
	// legacy plaintext value.
	Password string
	// LastLogin is the timestamp of the most recent successful login.
	LastLogin time.Time
}

// LoginAttempt is an append-only audit entry for the LoginLogs table.
// It is write-only from the service's perspective.
type LoginAttempt struct {
	Username  string
	Success   bool
	IP        string
	UserAgent string
	Note      string
}
