package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newEraseFixture(t *testing.T) (*EraseService, *fakeProfiles, *fakeOTPs, *fakeAttempts, *fakeTokens, *fakeRecords, *fakeErasedEvents) {
	t.Helper()
	profiles := newFakeProfiles()
	codes := &fakeOTPs{profiles: profiles}
	attempts := newFakeAttempts()
	tokens := newFakeTokens()
	records := newFakeRecords()
	events := &fakeErasedEvents{}
	svc := NewEraseService(profiles, codes, attempts, tokens, records, events)
	return svc, profiles, codes, attempts, tokens, records, events
}

func seedErasable(t *testing.T, profiles *fakeProfiles, codes *fakeOTPs, attempts *fakeAttempts, tokens *fakeTokens, records *fakeRecords) uint64 {
	t.Helper()
	ctx := context.Background()
	p := profiles.addEmail("ada@example.com", "Ada", true)
	codes.add(p.Email.String, "123456", time.Now().UTC(), time.Now().UTC().Add(10*time.Minute))
	_, err := attempts.RecordFailure(ctx, p.Email.String, 5, 15*time.Minute, 15*time.Minute)
	require.NoError(t, err)
	require.NoError(t, tokens.StoreRefresh(ctx, p.ID, "hash", time.Now().Add(time.Hour)))
	_, err = records.Create(ctx, p.ID, "WGS 2025", "ledger:tx:abc", "s3/key1")
	require.NoError(t, err)
	_, err = records.Create(ctx, p.ID, "Panel 2026", "ledger:tx:def", "s3/key2")
	require.NoError(t, err)
	return p.ID
}

func TestEraseRemovesAllOffPlatformData(t *testing.T) {
	svc, profiles, codes, attempts, tokens, records, events := newEraseFixture(t)
	id := seedErasable(t, profiles, codes, attempts, tokens, records)
	ctx := context.Background()

	require.NoError(t, svc.Erase(ctx, id))

	require.Empty(t, profiles.rows)
	require.Empty(t, codes.rows)
	require.Empty(t, attempts.rows)
	require.Empty(t, tokens.byProfile)
	require.Empty(t, records.byOwner)
	require.Equal(t, []uint64{id}, events.published)
}

func TestEraseIdempotent(t *testing.T) {
	svc, profiles, codes, attempts, tokens, records, _ := newEraseFixture(t)
	id := seedErasable(t, profiles, codes, attempts, tokens, records)
	ctx := context.Background()

	require.NoError(t, svc.Erase(ctx, id))
	// A retry for an already-erased profile is a no-op success.
	require.NoError(t, svc.Erase(ctx, id))
}

func TestEraseSecondaryFailuresDoNotAbort(t *testing.T) {
	svc, profiles, codes, attempts, tokens, records, _ := newEraseFixture(t)
	id := seedErasable(t, profiles, codes, attempts, tokens, records)
	records.deleteErr = errors.New("records table unavailable")
	tokens.deleteErr = errors.New("tokens table unavailable")

	// Sub-failures are logged and skipped; the profile delete still lands.
	require.NoError(t, svc.Erase(context.Background(), id))
	require.Empty(t, profiles.rows)
}

func TestErasePrimaryFailureSurfaces(t *testing.T) {
	svc, profiles, codes, attempts, tokens, records, events := newEraseFixture(t)
	id := seedErasable(t, profiles, codes, attempts, tokens, records)
	profiles.deleteErr = errors.New("deadlock")

	err := svc.Erase(context.Background(), id)
	require.Error(t, err)
	require.Len(t, profiles.rows, 1, "profile must survive a failed primary delete")
	require.Empty(t, events.published, "no erased event without the primary delete")
}

func TestEraseEventFailureIgnored(t *testing.T) {
	svc, profiles, codes, attempts, tokens, records, events := newEraseFixture(t)
	id := seedErasable(t, profiles, codes, attempts, tokens, records)
	events.err = errors.New("broker down")

	require.NoError(t, svc.Erase(context.Background(), id))
	require.Empty(t, profiles.rows)
}

func TestEraseWithoutEventPublisher(t *testing.T) {
	svc, profiles, codes, attempts, tokens, records, _ := newEraseFixture(t)
	id := seedErasable(t, profiles, codes, attempts, tokens, records)
	svc.Events = nil

	require.NoError(t, svc.Erase(context.Background(), id))
	require.Empty(t, profiles.rows)
}
