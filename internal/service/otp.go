package service

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/heliogen/genomevault/internal/model"
	"github.com/heliogen/genomevault/internal/utils"
)

// OTPService owns the one-time code lifecycle: issuance with a resend
// cooldown, validation against the most recent code, expiry, single-use
// consumption and the per-email failure lockout.
type OTPService struct {
	Profiles ProfileStore
	Codes    OTPStore
	Attempts AttemptStore
	Notifier Notifier

	TTL           time.Duration // code lifetime (issue -> expiry)
	Cooldown      time.Duration // minimum gap between two issuances per email
	MaxFailures   int           // wrong codes before a lockout
	FailureWindow time.Duration // window the failure counter lives in
	BlockFor      time.Duration // lockout duration

	now func() time.Time // test hook
}

// NewOTPService wires an OTPService with the platform defaults applied to
// any zero knob.
func NewOTPService(p ProfileStore, c OTPStore, a AttemptStore, n Notifier,
	ttl, cooldown time.Duration, maxFailures int, blockFor time.Duration) *OTPService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if blockFor <= 0 {
		blockFor = 15 * time.Minute
	}
	return &OTPService{
		Profiles: p, Codes: c, Attempts: a, Notifier: n,
		TTL: ttl, Cooldown: cooldown,
		MaxFailures: maxFailures, FailureWindow: blockFor, BlockFor: blockFor,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Issue generates, stores and dispatches a fresh code for an unverified
// email profile. Order of checks matters: every rejection here happens
// before any mutation, except the notifier failure which is surfaced as
// ErrDelivery after the code row has already been committed.
func (s *OTPService) Issue(ctx context.Context, email string) (model.OTPVerification, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	p, err := s.Profiles.GetByEmail(ctx, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.OTPVerification{}, ErrNotFound
		}
		return model.OTPVerification{}, err
	}
	if p.EmailVerified {
		return model.OTPVerification{}, ErrAlreadyVerified
	}

	if until, blocked, err := s.Attempts.Blocked(ctx, email); err != nil {
		return model.OTPVerification{}, err
	} else if blocked {
		return model.OTPVerification{}, &RateLimitedError{RetryAfter: ceilSeconds(until.Sub(s.now()))}
	}

	latest, err := s.Codes.LatestByEmail(ctx, email)
	if err != nil && err != sql.ErrNoRows {
		return model.OTPVerification{}, err
	}
	if err == nil {
		if elapsed := s.now().Sub(latest.CreatedAt); elapsed < s.Cooldown {
			return model.OTPVerification{}, &RateLimitedError{RetryAfter: ceilSeconds(s.Cooldown - elapsed)}
		}
	}

	code, err := utils.RandomOTPCode()
	if err != nil {
		return model.OTPVerification{}, err
	}
	expires := s.now().Add(s.TTL)

	// The conditional insert is the real cooldown guard: the read above only
	// produces a friendly retry-after, this write decides the race.
	inserted, err := s.Codes.InsertIfCooldownElapsed(ctx, email, code, expires, s.Cooldown)
	if err != nil {
		return model.OTPVerification{}, err
	}
	if !inserted {
		retry := ceilSeconds(s.Cooldown)
		if prev, err := s.Codes.LatestByEmail(ctx, email); err == nil {
			if remaining := s.Cooldown - s.now().Sub(prev.CreatedAt); remaining > 0 {
				retry = ceilSeconds(remaining)
			}
		}
		return model.OTPVerification{}, &RateLimitedError{RetryAfter: retry}
	}

	rec := model.OTPVerification{Email: email, Code: code, ExpiresAt: expires, CreatedAt: s.now()}
	if err := s.Notifier.NotifyOTP(ctx, email, p.Name, code, expires); err != nil {
		// The code row is committed; the caller can retry issuance once the
		// cooldown passes, which supersedes this undelivered code.
		return rec, fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return rec, nil
}

// Validate checks a submitted code against the most recently issued record
// for the email and, on success, flips both the code row and the profile to
// verified in one transaction. A second call with the same correct code
// observes the already-verified row and succeeds without mutating again.
// The verified profile is returned so callers can mint a session.
func (s *OTPService) Validate(ctx context.Context, email, code string) (model.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)

	p, err := s.Profiles.GetByEmail(ctx, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Profile{}, ErrNotFound
		}
		return model.Profile{}, err
	}

	if until, blocked, err := s.Attempts.Blocked(ctx, email); err != nil {
		return model.Profile{}, err
	} else if blocked {
		return model.Profile{}, &RateLimitedError{RetryAfter: ceilSeconds(until.Sub(s.now()))}
	}

	latest, err := s.Codes.LatestByEmail(ctx, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Profile{}, ErrNotFound
		}
		return model.Profile{}, err
	}
	if latest.Expired(s.now()) {
		return model.Profile{}, ErrExpired
	}
	// Constant-time comparison; the code is short-lived and single-use, but
	// there is no reason to leak prefix length through timing either.
	if subtle.ConstantTimeCompare([]byte(latest.Code), []byte(code)) != 1 {
		if _, ferr := s.Attempts.RecordFailure(ctx, email, s.MaxFailures, s.FailureWindow, s.BlockFor); ferr != nil {
			log.Printf("otp: record failure for %s: %v", email, ferr)
		}
		return model.Profile{}, ErrMismatch
	}

	if !latest.Verified {
		if err := s.Codes.MarkVerified(ctx, latest.ID, email); err != nil {
			return model.Profile{}, err
		}
	}
	if err := s.Attempts.Reset(ctx, email); err != nil {
		log.Printf("otp: reset attempts for %s: %v", email, err)
	}

	p.EmailVerified = true
	if err := s.Profiles.TouchLastLogin(ctx, p.ID); err != nil {
		log.Printf("otp: touch last login for %d: %v", p.ID, err)
	}
	return p, nil
}

// ceilSeconds rounds a duration up to whole seconds, never below zero.
func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
