package handler

// memStore is a single in-memory implementation of every store interface
// the handlers and services consume, enough to run the full HTTP stack in
// httptest without MySQL.

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heliogen/genomevault/internal/model"
	"github.com/heliogen/genomevault/internal/repository"
)

type refreshRow struct {
	profileID uint64
	exp       time.Time
	revoked   bool
}

type memStore struct {
	mu sync.Mutex

	profiles map[uint64]model.Profile
	nextID   uint64

	otps      []model.OTPVerification
	nextOTPID uint64

	attempts map[string]model.LoginAttempt

	refresh map[string]refreshRow // keyed by hash

	records map[uint64][]model.HealthRecord
}

func newMemStore() *memStore {
	return &memStore{
		profiles: map[uint64]model.Profile{},
		attempts: map[string]model.LoginAttempt{},
		refresh:  map[string]refreshRow{},
		records:  map[uint64][]model.HealthRecord{},
	}
}

// ----- ProfileStore -----

func (m *memStore) CreateWallet(_ context.Context, name, address, role, tier string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.WalletAddress.Valid && p.WalletAddress.String == address {
			return 0, repository.ErrWalletExists
		}
	}
	m.nextID++
	m.profiles[m.nextID] = model.Profile{
		ID: m.nextID, Name: name,
		WalletAddress: sql.NullString{String: address, Valid: true},
		AuthType:      model.AuthTypeWallet, Role: role, Tier: tier,
		CreatedAt: time.Now().UTC(),
	}
	return m.nextID, nil
}

func (m *memStore) CreateEmail(_ context.Context, name, email, role, tier string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(email)
	for _, p := range m.profiles {
		if p.Email.Valid && p.Email.String == email {
			return 0, repository.ErrEmailExists
		}
	}
	m.nextID++
	m.profiles[m.nextID] = model.Profile{
		ID: m.nextID, Name: name,
		Email:    sql.NullString{String: email, Valid: true},
		AuthType: model.AuthTypeEmail, Role: role, Tier: tier,
		CreatedAt: time.Now().UTC(),
	}
	return m.nextID, nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, p := range m.profiles {
		if p.Email.Valid && p.Email.String == email {
			return p, nil
		}
	}
	return model.Profile{}, sql.ErrNoRows
}

func (m *memStore) GetByWallet(_ context.Context, address string) (model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.WalletAddress.Valid && p.WalletAddress.String == address {
			return p, nil
		}
	}
	return model.Profile{}, sql.ErrNoRows
}

func (m *memStore) GetByID(_ context.Context, id uint64) (model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[id]; ok {
		return p, nil
	}
	return model.Profile{}, sql.ErrNoRows
}

func (m *memStore) TouchLastLogin(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[id]; ok {
		p.LastLoginAt = time.Now().UTC()
		m.profiles[id] = p
	}
	return nil
}

func (m *memStore) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, id)
	return nil
}

// ----- OTPStore -----

func (m *memStore) LatestByEmail(_ context.Context, email string) (model.OTPVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for i := len(m.otps) - 1; i >= 0; i-- {
		if m.otps[i].Email == email {
			return m.otps[i], nil
		}
	}
	return model.OTPVerification{}, sql.ErrNoRows
}

func (m *memStore) InsertIfCooldownElapsed(_ context.Context, email, code string, expiresAt time.Time, cooldown time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(email)
	for i := len(m.otps) - 1; i >= 0; i-- {
		if m.otps[i].Email == email {
			if time.Since(m.otps[i].CreatedAt) < cooldown {
				return false, nil
			}
			break
		}
	}
	m.nextOTPID++
	m.otps = append(m.otps, model.OTPVerification{
		ID: m.nextOTPID, Email: email, Code: code,
		ExpiresAt: expiresAt, CreatedAt: time.Now().UTC(),
	})
	return true, nil
}

func (m *memStore) MarkVerified(_ context.Context, otpID uint64, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.otps {
		if m.otps[i].ID == otpID {
			m.otps[i].Verified = true
		}
	}
	email = strings.ToLower(email)
	for id, p := range m.profiles {
		if p.Email.Valid && p.Email.String == email {
			p.EmailVerified = true
			m.profiles[id] = p
		}
	}
	return nil
}

func (m *memStore) DeleteByEmail(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(email)
	kept := m.otps[:0]
	for _, r := range m.otps {
		if r.Email != email {
			kept = append(kept, r)
		}
	}
	m.otps = kept
	return nil
}

// setOTPCreatedAt backdates the latest code row to get past the cooldown
// or the TTL in tests.
func (m *memStore) setOTPCreatedAt(email string, createdAt, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(email)
	for i := len(m.otps) - 1; i >= 0; i-- {
		if m.otps[i].Email == email {
			m.otps[i].CreatedAt = createdAt
			m.otps[i].ExpiresAt = expiresAt
			return
		}
	}
}

// ----- AttemptStore -----

func (m *memStore) Blocked(_ context.Context, email string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[strings.ToLower(email)]
	if ok && a.BlockedAt(time.Now().UTC()) {
		return a.BlockedUntil.Time, true, nil
	}
	return time.Time{}, false, nil
}

func (m *memStore) RecordFailure(_ context.Context, email string, maxFailures int, _, blockFor time.Duration) (model.LoginAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(email)
	a := m.attempts[email]
	a.Email = email
	a.Attempts++
	a.LastAttempt = time.Now().UTC()
	if int(a.Attempts) >= maxFailures {
		a.BlockedUntil = sql.NullTime{Time: time.Now().UTC().Add(blockFor), Valid: true}
	}
	m.attempts[email] = a
	return a, nil
}

func (m *memStore) Reset(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.attempts, strings.ToLower(email))
	return nil
}

// ----- TokenStore -----

func (m *memStore) StoreRefresh(_ context.Context, profileID uint64, tokenHash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh[tokenHash] = refreshRow{profileID: profileID, exp: exp}
	return nil
}

func (m *memStore) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.refresh[tokenHash]
	if !ok || row.revoked || time.Now().After(row.exp) {
		return 0, sql.ErrNoRows
	}
	return row.profileID, nil
}

func (m *memStore) RevokeByHash(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.refresh[tokenHash]; ok {
		row.revoked = true
		m.refresh[tokenHash] = row
	}
	return nil
}

func (m *memStore) RevokeAllForProfile(_ context.Context, profileID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, row := range m.refresh {
		if row.profileID == profileID {
			row.revoked = true
			m.refresh[h] = row
		}
	}
	return nil
}

func (m *memStore) DeleteAllForProfile(_ context.Context, profileID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, row := range m.refresh {
		if row.profileID == profileID {
			delete(m.refresh, h)
		}
	}
	return nil
}

// ----- RecordStore -----

func (m *memStore) Create(_ context.Context, ownerID uint64, title, ledgerRef, fileKey string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.records[ownerID] = append(m.records[ownerID], model.HealthRecord{
		ID: id, OwnerID: ownerID, Title: title, LedgerRef: ledgerRef,
		FileKey: fileKey, CreatedAt: time.Now().UTC(),
	})
	return id, nil
}

func (m *memStore) ListByOwner(_ context.Context, ownerID uint64) ([]model.HealthRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[ownerID], nil
}

func (m *memStore) DeleteByOwner(_ context.Context, ownerID uint64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.records[ownerID]))
	delete(m.records, ownerID)
	return n, nil
}

// ----- Notifier -----

type memNotifier struct {
	mu   sync.Mutex
	sent []string // emails in dispatch order
	err  error
}

func (n *memNotifier) NotifyOTP(_ context.Context, email, _, _ string, _ time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, email)
	return nil
}
