// Package queue defines message payloads exchanged over the message broker
// and the publisher/consumer pair that moves them.
package queue

// OTPIssuedEvent is published when a one-time code has been generated and
// stored. The mail delivery worker consumes it and sends the code to the
// user's inbox; the payload carries everything the worker needs without a
// database query.
type OTPIssuedEvent struct {
	CorrelationID string `json:"correlation_id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Code          string `json:"code"`
	ExpiresAt     string `json:"expires_at"`
	IssuedAt      string `json:"issued_at"`
}

// AccountErasedEvent is published after a right-to-be-forgotten erasure has
// removed a profile's off-platform records. Downstream consumers can use it
// to purge caches or secondary indexes; the ledger itself is untouched.
type AccountErasedEvent struct {
	CorrelationID string `json:"correlation_id"`
	ProfileID     uint64 `json:"profile_id"`
	AuthType      string `json:"auth_type"`
	ErasedAt      string `json:"erased_at"`
}
