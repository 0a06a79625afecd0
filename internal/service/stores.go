package service

import (
	"context"
	"time"

	"github.com/heliogen/genomevault/internal/model"
)

// The store interfaces below are the only way services touch persistence.
// They are satisfied by the repository types and by in-memory fakes in
// tests. Lookups return sql.ErrNoRows when the key is absent, matching the
// driver convention the repositories expose.

// ProfileStore is the credential-store surface for identity profiles.
type ProfileStore interface {
	CreateWallet(ctx context.Context, name, address, role, tier string) (uint64, error)
	CreateEmail(ctx context.Context, name, email, role, tier string) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.Profile, error)
	GetByWallet(ctx context.Context, address string) (model.Profile, error)
	GetByID(ctx context.Context, id uint64) (model.Profile, error)
	TouchLastLogin(ctx context.Context, id uint64) error
	Delete(ctx context.Context, id uint64) error
}

// OTPStore persists one-time codes.
type OTPStore interface {
	LatestByEmail(ctx context.Context, email string) (model.OTPVerification, error)
	InsertIfCooldownElapsed(ctx context.Context, email, code string, expiresAt time.Time, cooldown time.Duration) (bool, error)
	MarkVerified(ctx context.Context, otpID uint64, email string) error
	DeleteByEmail(ctx context.Context, email string) error
}

// AttemptStore tracks per-email failure counters and lockouts.
type AttemptStore interface {
	Blocked(ctx context.Context, email string) (time.Time, bool, error)
	RecordFailure(ctx context.Context, email string, maxFailures int, window, blockFor time.Duration) (model.LoginAttempt, error)
	Reset(ctx context.Context, email string) error
}

// TokenStore persists refresh-token hashes.
type TokenStore interface {
	StoreRefresh(ctx context.Context, profileID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForProfile(ctx context.Context, profileID uint64) error
	DeleteAllForProfile(ctx context.Context, profileID uint64) error
}

// RecordStore persists off-platform ledger pointers.
type RecordStore interface {
	Create(ctx context.Context, ownerID uint64, title, ledgerRef, fileKey string) (string, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.HealthRecord, error)
	DeleteByOwner(ctx context.Context, ownerID uint64) (int64, error)
}

// Notifier is the outbound channel that informs a user of a freshly issued
// code. Implemented by queue.Publisher.
type Notifier interface {
	NotifyOTP(ctx context.Context, email, name, code string, expiresAt time.Time) error
}

// ErasureNotifier announces completed erasures. Best-effort only.
type ErasureNotifier interface {
	PublishAccountErased(ctx context.Context, profileID uint64, authType string) error
}
