package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/heliogen/genomevault/internal/model"
)

// ProfileRepo persists identity profiles. Both anchors (email and
// wallet_address) carry unique indexes; the column that does not match the
// profile's auth_type stays NULL.
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

const profileColumns = "id,name,email,wallet_address,auth_type,user_role,subscription_tier,email_verified,created_at,last_login_at"

func scanProfile(row *sql.Row) (model.Profile, error) {
	var p model.Profile
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.WalletAddress, &p.AuthType,
		&p.Role, &p.Tier, &p.EmailVerified, &p.CreatedAt, &p.LastLoginAt)
	return p, err
}

// CreateWallet inserts a wallet-anchored profile and returns its ID.
func (r *ProfileRepo) CreateWallet(ctx context.Context, name, address, role, tier string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO profiles (name, wallet_address, auth_type, user_role, subscription_tier, email_verified) VALUES (?,?,?,?,?,0)",
		name, address, model.AuthTypeWallet, role, tier)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrWalletExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// CreateEmail inserts an email-anchored profile with email_verified=false.
func (r *ProfileRepo) CreateEmail(ctx context.Context, name, email, role, tier string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO profiles (name, email, auth_type, user_role, subscription_tier, email_verified) VALUES (?,?,?,?,?,0)",
		name, email, model.AuthTypeEmail, role, tier)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches an email-anchored profile by normalized email.
func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (model.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanProfile(r.DB.QueryRowContext(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE email=? AND auth_type=? LIMIT 1",
		email, model.AuthTypeEmail))
}

// GetByWallet fetches a wallet-anchored profile by normalized address.
func (r *ProfileRepo) GetByWallet(ctx context.Context, address string) (model.Profile, error) {
	return scanProfile(r.DB.QueryRowContext(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE wallet_address=? AND auth_type=? LIMIT 1",
		address, model.AuthTypeWallet))
}

// GetByID fetches a profile by id.
func (r *ProfileRepo) GetByID(ctx context.Context, id uint64) (model.Profile, error) {
	return scanProfile(r.DB.QueryRowContext(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE id=? LIMIT 1", id))
}

// TouchLastLogin records a successful login on the profile.
func (r *ProfileRepo) TouchLastLogin(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE profiles SET last_login_at=NOW() WHERE id=?", id)
	return err
}

// Delete hard-deletes a profile row. Dependent rows are removed by the
// erasure saga, not by foreign-key cascades, so each step can fail
// independently.
func (r *ProfileRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM profiles WHERE id=?", id)
	return err
}
