package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/heliogen/genomevault/internal/model"
)

// AttemptRepo tracks failed authentication attempts per email in the
// `login_attempts` table. The counter lives in the store rather than in
// process memory so the lockout stays correct when several service
// instances handle requests for the same email.
type AttemptRepo struct{ DB *sql.DB }

func NewAttemptRepo(db *sql.DB) *AttemptRepo { return &AttemptRepo{DB: db} }

// Get returns the attempt record for the email, or sql.ErrNoRows.
func (r *AttemptRepo) Get(ctx context.Context, email string) (model.LoginAttempt, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var a model.LoginAttempt
	err := r.DB.QueryRowContext(ctx,
		"SELECT email,attempts,last_attempt,blocked_until FROM login_attempts WHERE email=? LIMIT 1",
		email).Scan(&a.Email, &a.Attempts, &a.LastAttempt, &a.BlockedUntil)
	return a, err
}

// RecordFailure bumps the failure counter with a single atomic upsert.
// Counters older than the window restart at 1. Once the counter reaches
// maxFailures the same statement stamps blocked_until, so the check and the
// write cannot race across concurrent requests. The updated record is
// returned so callers can report the lockout.
func (r *AttemptRepo) RecordFailure(ctx context.Context, email string, maxFailures int, window, blockFor time.Duration) (model.LoginAttempt, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	windowSec := int64(window / time.Second)
	blockSec := int64(blockFor / time.Second)
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO login_attempts (email, attempts, last_attempt)
		 VALUES (?, 1, NOW())
		 ON DUPLICATE KEY UPDATE
		   attempts = IF(last_attempt < NOW() - INTERVAL ? SECOND, 1, attempts + 1),
		   blocked_until = IF(IF(last_attempt < NOW() - INTERVAL ? SECOND, 1, attempts + 1) >= ?,
		                      NOW() + INTERVAL ? SECOND, blocked_until),
		   last_attempt = NOW()`,
		email, windowSec, windowSec, maxFailures, blockSec)
	if err != nil {
		return model.LoginAttempt{}, err
	}
	return r.Get(ctx, email)
}

// Reset clears the counter after a successful authentication. Also used by
// the erasure saga; idempotent.
func (r *AttemptRepo) Reset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM login_attempts WHERE email=?", email)
	return err
}

// Blocked reports whether the email is currently locked out and until when.
func (r *AttemptRepo) Blocked(ctx context.Context, email string) (time.Time, bool, error) {
	a, err := r.Get(ctx, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	if a.BlockedAt(time.Now().UTC()) {
		return a.BlockedUntil.Time, true, nil
	}
	return time.Time{}, false, nil
}
