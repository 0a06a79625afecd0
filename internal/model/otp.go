package model

import "time"

// OTPVerification models a row in the `otp_verifications` table. Each row is
// a single one-time code issued for an email address. Rows are never updated
// except to flip Verified; issuing a new code inserts a new row, and
// validation always reads the most recently created row for the email.
//
// Fields:
//  ID        - primary key identifier.
//  Email     - email address the code was issued for.
//  Code      - 6-digit numeric code (100000-999999).
//  ExpiresAt - absolute expiry timestamp (issue time + TTL).
//  Verified  - whether the code has been consumed successfully.
//  CreatedAt - timestamp of issuance, drives the resend cooldown.
type OTPVerification struct {
	ID        uint64    // otp_verifications.id
	Email     string    // otp_verifications.email
	Code      string    // otp_verifications.code
	ExpiresAt time.Time // otp_verifications.expires_at
	Verified  bool      // otp_verifications.verified
	CreatedAt time.Time // otp_verifications.created_at
}

// Expired reports whether the code is past its expiry at the given instant.
func (o OTPVerification) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
