// Package service implements the identity core: OTP lifecycle, wallet/email
// identity reconciliation and right-to-be-forgotten erasure. Services sit
// between the HTTP handlers and the repositories and own every business
// rule; handlers only translate these sentinels into status codes.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals that the referenced profile or code record does
	// not exist. Handlers translate it into HTTP 404.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyVerified rejects code issuance for an email that has
	// already been proven.
	ErrAlreadyVerified = errors.New("email already verified")
	// ErrExpired rejects a code past its TTL, even when it matches.
	ErrExpired = errors.New("code expired")
	// ErrMismatch rejects a wrong code.
	ErrMismatch = errors.New("code mismatch")
	// ErrDelivery reports that the code was stored but the notifier failed,
	// so the user was never informed. Retrying issuance is safe: the
	// cooldown and TTL still govern the stored code.
	ErrDelivery = errors.New("notification delivery failed")
	// ErrInvalidRole rejects roles outside patient/doctor/researcher.
	ErrInvalidRole = errors.New("invalid role")
	// ErrInvalidTier rejects tiers outside F1/F2/F3.
	ErrInvalidTier = errors.New("invalid subscription tier")
	// ErrInvalidEmail rejects malformed email input before any mutation.
	ErrInvalidEmail = errors.New("invalid email")
)

// RateLimitedError carries the remaining wait in whole seconds (ceiling of
// the remaining cooldown or lockout). Its message is the exact string the
// resend endpoint returns.
type RateLimitedError struct {
	RetryAfter int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("wait %d seconds", e.RetryAfter)
}
