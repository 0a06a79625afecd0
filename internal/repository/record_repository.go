package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/heliogen/genomevault/internal/model"
)

// RecordRepo stores off-platform pointers to clinical assets on the
// external ledger. Only the pointer rows live here; the ledger itself is
// immutable and never written by this service.
type RecordRepo struct{ DB *sql.DB }

func NewRecordRepo(db *sql.DB) *RecordRepo { return &RecordRepo{DB: db} }

// Create inserts a pointer row and returns its uuid.
func (r *RecordRepo) Create(ctx context.Context, ownerID uint64, title, ledgerRef, fileKey string) (string, error) {
	id := uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO health_records (id, owner_id, title, ledger_ref, file_key) VALUES (?,?,?,?,?)",
		id, ownerID, title, ledgerRef, fileKey)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListByOwner returns all pointer rows for a profile, newest first.
func (r *RecordRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.HealthRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,owner_id,title,ledger_ref,file_key,created_at FROM health_records WHERE owner_id=? ORDER BY created_at DESC",
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.HealthRecord
	for rows.Next() {
		var rec model.HealthRecord
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.Title, &rec.LedgerRef, &rec.FileKey, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteByOwner removes all pointer rows for a profile and reports how many
// were deleted. Idempotent.
func (r *RecordRepo) DeleteByOwner(ctx context.Context, ownerID uint64) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM health_records WHERE owner_id=?", ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
