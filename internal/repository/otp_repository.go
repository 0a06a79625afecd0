package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/heliogen/genomevault/internal/model"
)

// OTPRepo persists one-time codes in the `otp_verifications` table. Issuing
// never deletes older rows; validation always selects the most recently
// created row for the email, so a reissued code implicitly supersedes the
// previous one.
type OTPRepo struct{ DB *sql.DB }

func NewOTPRepo(db *sql.DB) *OTPRepo { return &OTPRepo{DB: db} }

// LatestByEmail returns the most recently issued code for the email.
// Ordered by created_at then id so two codes created in the same second
// still resolve deterministically.
func (r *OTPRepo) LatestByEmail(ctx context.Context, email string) (model.OTPVerification, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var o model.OTPVerification
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,code,expires_at,verified,created_at FROM otp_verifications WHERE email=? ORDER BY created_at DESC, id DESC LIMIT 1",
		email).Scan(&o.ID, &o.Email, &o.Code, &o.ExpiresAt, &o.Verified, &o.CreatedAt)
	return o, err
}

// InsertIfCooldownElapsed inserts a new code only when no other code for the
// email was created within the cooldown window. The guard runs inside the
// INSERT itself (conditional write), so two concurrent issuances for the
// same email cannot both pass the cooldown check: at most one row is
// inserted and the loser observes inserted=false.
func (r *OTPRepo) InsertIfCooldownElapsed(ctx context.Context, email, code string, expiresAt time.Time, cooldown time.Duration) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO otp_verifications (email, code, expires_at)
		 SELECT ?, ?, ? FROM DUAL
		 WHERE NOT EXISTS (
		   SELECT 1 FROM otp_verifications
		   WHERE email=? AND created_at > NOW() - INTERVAL ? SECOND
		 )`,
		email, code, expiresAt, email, int64(cooldown/time.Second))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkVerified flips the code row to verified and the owning profile to
// email_verified inside one transaction. Both mutations commit together or
// not at all, so concurrent duplicate submissions can never leave a
// half-verified state.
func (r *OTPRepo) MarkVerified(ctx context.Context, otpID uint64, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"UPDATE otp_verifications SET verified=1 WHERE id=?", otpID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE profiles SET email_verified=1 WHERE email=? AND auth_type=?",
		email, model.AuthTypeEmail); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteByEmail removes all code rows for the email. Used by the erasure
// saga; idempotent.
func (r *OTPRepo) DeleteByEmail(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM otp_verifications WHERE email=?", email)
	return err
}
