package service

import (
	"context"
	"database/sql"
	"log"
)

// EraseService implements the right-to-be-forgotten saga. Secondary
// deletions (record pointers, refresh tokens, code rows, attempt counters)
// are best-effort: failures are logged and the saga continues, because the
// contract is off-platform anonymization that never blocks on sub-failures.
// Only the final profile delete is primary: if it fails, the whole
// operation fails and the caller may retry, since every step is idempotent.
// The external immutable ledger is never touched; only the off-platform
// pointers to it are removed.
type EraseService struct {
	Profiles ProfileStore
	Codes    OTPStore
	Attempts AttemptStore
	Tokens   TokenStore
	Records  RecordStore
	Events   ErasureNotifier // optional
}

func NewEraseService(p ProfileStore, c OTPStore, a AttemptStore, t TokenStore, rec RecordStore, ev ErasureNotifier) *EraseService {
	return &EraseService{Profiles: p, Codes: c, Attempts: a, Tokens: t, Records: rec, Events: ev}
}

// Erase removes every off-platform record linked to the profile. Calling it
// for an already-erased profile succeeds: deletes are idempotent, so a
// retry after a partial failure converges.
func (s *EraseService) Erase(ctx context.Context, profileID uint64) error {
	p, err := s.Profiles.GetByID(ctx, profileID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return err
	}

	if n, derr := s.Records.DeleteByOwner(ctx, profileID); derr != nil {
		log.Printf("erasure: delete record pointers for %d: %v", profileID, derr)
	} else if n > 0 {
		log.Printf("erasure: removed %d record pointers for %d", n, profileID)
	}

	if derr := s.Tokens.DeleteAllForProfile(ctx, profileID); derr != nil {
		log.Printf("erasure: delete refresh tokens for %d: %v", profileID, derr)
	}

	if p.Email.Valid {
		if derr := s.Codes.DeleteByEmail(ctx, p.Email.String); derr != nil {
			log.Printf("erasure: delete otp rows for %d: %v", profileID, derr)
		}
		if derr := s.Attempts.Reset(ctx, p.Email.String); derr != nil {
			log.Printf("erasure: reset attempts for %d: %v", profileID, derr)
		}
	}

	// Primary step. Everything above was best-effort; this one must land.
	if err := s.Profiles.Delete(ctx, profileID); err != nil {
		return err
	}

	if s.Events != nil {
		if perr := s.Events.PublishAccountErased(ctx, profileID, p.AuthType); perr != nil {
			log.Printf("erasure: publish erased event for %d: %v", profileID, perr)
		}
	}
	return nil
}
