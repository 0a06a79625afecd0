package model

import "time"

// HealthRecord is an off-platform pointer row in the `health_records` table.
// The clinical asset itself lives encrypted on the external ledger; this row
// only carries the reference and the storage key of the encrypted blob.
// Erasure removes these rows and never touches the ledger.
//
// Fields:
//  ID        - uuid identifier of the pointer row.
//  OwnerID   - profile that owns the record.
//  Title     - human-readable label shown in the vault listing.
//  LedgerRef - opaque reference into the external immutable ledger.
//  FileKey   - storage key of the encrypted payload.
//  CreatedAt - timestamp of creation.
type HealthRecord struct {
	ID        string    // health_records.id (uuid)
	OwnerID   uint64    // health_records.owner_id
	Title     string    // health_records.title
	LedgerRef string    // health_records.ledger_ref
	FileKey   string    // health_records.file_key
	CreatedAt time.Time // health_records.created_at
}
