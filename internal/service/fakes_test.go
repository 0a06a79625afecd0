package service

// In-memory fakes for the store interfaces. Each fake keeps just enough
// state to emulate the repository semantics the services rely on, plus
// error-injection knobs for the failure paths.

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heliogen/genomevault/internal/model"
	"github.com/heliogen/genomevault/internal/repository"
)

type fakeProfiles struct {
	rows      map[uint64]model.Profile
	nextID    uint64
	deleteErr error
	touched   []uint64
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{rows: map[uint64]model.Profile{}}
}

func (f *fakeProfiles) addEmail(email, name string, verified bool) model.Profile {
	f.nextID++
	p := model.Profile{
		ID: f.nextID, Name: name,
		Email:         sql.NullString{String: strings.ToLower(email), Valid: true},
		AuthType:      model.AuthTypeEmail,
		Role:          model.RolePatient,
		Tier:          model.TierF1,
		EmailVerified: verified,
		CreatedAt:     time.Now().UTC(),
	}
	f.rows[p.ID] = p
	return p
}

func (f *fakeProfiles) CreateWallet(_ context.Context, name, address, role, tier string) (uint64, error) {
	for _, p := range f.rows {
		if p.WalletAddress.Valid && p.WalletAddress.String == address {
			return 0, repository.ErrWalletExists
		}
	}
	f.nextID++
	f.rows[f.nextID] = model.Profile{
		ID: f.nextID, Name: name,
		WalletAddress: sql.NullString{String: address, Valid: true},
		AuthType:      model.AuthTypeWallet, Role: role, Tier: tier,
		CreatedAt: time.Now().UTC(),
	}
	return f.nextID, nil
}

func (f *fakeProfiles) CreateEmail(_ context.Context, name, email, role, tier string) (uint64, error) {
	email = strings.ToLower(email)
	for _, p := range f.rows {
		if p.Email.Valid && p.Email.String == email {
			return 0, repository.ErrEmailExists
		}
	}
	f.nextID++
	f.rows[f.nextID] = model.Profile{
		ID: f.nextID, Name: name,
		Email:    sql.NullString{String: email, Valid: true},
		AuthType: model.AuthTypeEmail, Role: role, Tier: tier,
		CreatedAt: time.Now().UTC(),
	}
	return f.nextID, nil
}

func (f *fakeProfiles) GetByEmail(_ context.Context, email string) (model.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, p := range f.rows {
		if p.Email.Valid && p.Email.String == email {
			return p, nil
		}
	}
	return model.Profile{}, sql.ErrNoRows
}

func (f *fakeProfiles) GetByWallet(_ context.Context, address string) (model.Profile, error) {
	for _, p := range f.rows {
		if p.WalletAddress.Valid && p.WalletAddress.String == address {
			return p, nil
		}
	}
	return model.Profile{}, sql.ErrNoRows
}

func (f *fakeProfiles) GetByID(_ context.Context, id uint64) (model.Profile, error) {
	if p, ok := f.rows[id]; ok {
		return p, nil
	}
	return model.Profile{}, sql.ErrNoRows
}

func (f *fakeProfiles) TouchLastLogin(_ context.Context, id uint64) error {
	f.touched = append(f.touched, id)
	if p, ok := f.rows[id]; ok {
		p.LastLoginAt = time.Now().UTC()
		f.rows[id] = p
	}
	return nil
}

func (f *fakeProfiles) Delete(_ context.Context, id uint64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeProfiles) setVerified(email string) {
	for id, p := range f.rows {
		if p.Email.Valid && p.Email.String == email {
			p.EmailVerified = true
			f.rows[id] = p
		}
	}
}

type fakeOTPs struct {
	rows     []model.OTPVerification
	nextID   uint64
	profiles *fakeProfiles // verified flag flips with the code row, like the real tx
	verifies int
}

func (f *fakeOTPs) add(email, code string, createdAt, expiresAt time.Time) {
	f.nextID++
	f.rows = append(f.rows, model.OTPVerification{
		ID: f.nextID, Email: strings.ToLower(email), Code: code,
		ExpiresAt: expiresAt, CreatedAt: createdAt,
	})
}

func (f *fakeOTPs) LatestByEmail(_ context.Context, email string) (model.OTPVerification, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].Email == email {
			return f.rows[i], nil
		}
	}
	return model.OTPVerification{}, sql.ErrNoRows
}

func (f *fakeOTPs) InsertIfCooldownElapsed(ctx context.Context, email, code string, expiresAt time.Time, cooldown time.Duration) (bool, error) {
	if latest, err := f.LatestByEmail(ctx, email); err == nil {
		if time.Since(latest.CreatedAt) < cooldown {
			return false, nil
		}
	}
	f.add(email, code, time.Now().UTC(), expiresAt)
	return true, nil
}

func (f *fakeOTPs) MarkVerified(_ context.Context, otpID uint64, email string) error {
	f.verifies++
	for i := range f.rows {
		if f.rows[i].ID == otpID {
			f.rows[i].Verified = true
		}
	}
	if f.profiles != nil {
		f.profiles.setVerified(strings.ToLower(email))
	}
	return nil
}

func (f *fakeOTPs) DeleteByEmail(_ context.Context, email string) error {
	email = strings.ToLower(email)
	kept := f.rows[:0]
	for _, r := range f.rows {
		if r.Email != email {
			kept = append(kept, r)
		}
	}
	f.rows = kept
	return nil
}

type fakeAttempts struct {
	rows     map[string]model.LoginAttempt
	resets   []string
	failures int
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{rows: map[string]model.LoginAttempt{}}
}

func (f *fakeAttempts) Blocked(_ context.Context, email string) (time.Time, bool, error) {
	a, ok := f.rows[strings.ToLower(email)]
	if !ok {
		return time.Time{}, false, nil
	}
	if a.BlockedAt(time.Now().UTC()) {
		return a.BlockedUntil.Time, true, nil
	}
	return time.Time{}, false, nil
}

func (f *fakeAttempts) RecordFailure(_ context.Context, email string, maxFailures int, _, blockFor time.Duration) (model.LoginAttempt, error) {
	f.failures++
	email = strings.ToLower(email)
	a := f.rows[email]
	a.Email = email
	a.Attempts++
	a.LastAttempt = time.Now().UTC()
	if int(a.Attempts) >= maxFailures {
		a.BlockedUntil = sql.NullTime{Time: time.Now().UTC().Add(blockFor), Valid: true}
	}
	f.rows[email] = a
	return a, nil
}

func (f *fakeAttempts) Reset(_ context.Context, email string) error {
	email = strings.ToLower(email)
	f.resets = append(f.resets, email)
	delete(f.rows, email)
	return nil
}

type fakeTokens struct {
	byProfile map[uint64]int
	deleteErr error
}

func newFakeTokens() *fakeTokens { return &fakeTokens{byProfile: map[uint64]int{}} }

func (f *fakeTokens) StoreRefresh(_ context.Context, profileID uint64, _ string, _ time.Time) error {
	f.byProfile[profileID]++
	return nil
}
func (f *fakeTokens) ValidateRefresh(context.Context, string) (uint64, error) {
	return 0, sql.ErrNoRows
}
func (f *fakeTokens) RevokeByHash(context.Context, string) error          { return nil }
func (f *fakeTokens) RevokeAllForProfile(context.Context, uint64) error   { return nil }
func (f *fakeTokens) DeleteAllForProfile(_ context.Context, id uint64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.byProfile, id)
	return nil
}

type fakeRecords struct {
	byOwner   map[uint64][]model.HealthRecord
	deleteErr error
}

func newFakeRecords() *fakeRecords { return &fakeRecords{byOwner: map[uint64][]model.HealthRecord{}} }

func (f *fakeRecords) Create(_ context.Context, ownerID uint64, title, ledgerRef, fileKey string) (string, error) {
	id := uuid.NewString()
	f.byOwner[ownerID] = append(f.byOwner[ownerID], model.HealthRecord{
		ID: id, OwnerID: ownerID, Title: title, LedgerRef: ledgerRef,
		FileKey: fileKey, CreatedAt: time.Now().UTC(),
	})
	return id, nil
}

func (f *fakeRecords) ListByOwner(_ context.Context, ownerID uint64) ([]model.HealthRecord, error) {
	return f.byOwner[ownerID], nil
}

func (f *fakeRecords) DeleteByOwner(_ context.Context, ownerID uint64) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	n := int64(len(f.byOwner[ownerID]))
	delete(f.byOwner, ownerID)
	return n, nil
}

type sentOTP struct {
	Email, Name, Code string
	ExpiresAt         time.Time
}

type fakeNotifier struct {
	sent []sentOTP
	err  error
}

func (f *fakeNotifier) NotifyOTP(_ context.Context, email, name, code string, expiresAt time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentOTP{Email: email, Name: name, Code: code, ExpiresAt: expiresAt})
	return nil
}

type fakeErasedEvents struct {
	published []uint64
	err       error
}

func (f *fakeErasedEvents) PublishAccountErased(_ context.Context, profileID uint64, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, profileID)
	return nil
}
