package model

import (
	"database/sql"
	"time"
)

// LoginAttempt is the per-email throttling record in the `login_attempts`
// table. Attempts grows monotonically within a window; once BlockedUntil is
// set and in the future, every authentication attempt for the email is
// rejected regardless of credential correctness.
type LoginAttempt struct {
	Email        string       // login_attempts.email (primary key)
	Attempts     uint32       // login_attempts.attempts
	LastAttempt  time.Time    // login_attempts.last_attempt
	BlockedUntil sql.NullTime // login_attempts.blocked_until (nullable)
}

// BlockedAt reports whether the email is locked out at the given instant.
func (a LoginAttempt) BlockedAt(now time.Time) bool {
	return a.BlockedUntil.Valid && now.Before(a.BlockedUntil.Time)
}
