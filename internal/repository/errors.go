// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios. For example, ErrEmailExists signals that an insert would
// violate the unique index on the email anchor, while ErrWalletExists
// does the same for the wallet address anchor. Lookups that find no row
// propagate sql.ErrNoRows, as the underlying driver does.
package repository

import "errors"

// ErrEmailExists is returned when a profile insert collides with the
// unique email index. Handlers should translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrWalletExists is returned when a profile insert collides with the
// unique wallet_address index. Handlers should translate this into
// HTTP 409, though the reconciler usually resolves it by re-reading the
// existing row instead.
var ErrWalletExists = errors.New("wallet address already exists")
