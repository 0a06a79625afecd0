package service

import (
	"context"
	"database/sql"
	"log"
	"strings"

	"github.com/heliogen/genomevault/internal/model"
	"github.com/heliogen/genomevault/internal/repository"
	"github.com/heliogen/genomevault/internal/utils"
)

// Reconciler resolves inbound authentication requests to profiles. The two
// resolution paths (wallet, email) are independent and never mixed in one
// call; the wallet path implements the three-step connect -> onboarding
// prompt -> create handshake, with the address itself as the idempotency
// key across the two calls.
type Reconciler struct {
	Profiles ProfileStore
}

func NewReconciler(p ProfileStore) *Reconciler { return &Reconciler{Profiles: p} }

// WalletResult is the outcome of a wallet resolution. Exactly one of the
// three shapes applies: an existing user, a new user, or an onboarding
// prompt (RequiresOnboarding set, User nil, nothing persisted).
type WalletResult struct {
	User               model.AppUser
	IsNewUser          bool
	RequiresOnboarding bool
}

// ResolveWallet looks up the profile anchored to the address. When absent
// and no role was supplied, it asks the caller to collect role/tier first
// without creating anything; when absent and a role is present, it creates
// the profile with a placeholder name derived from the address prefix.
func (r *Reconciler) ResolveWallet(ctx context.Context, address, role, tier string) (WalletResult, error) {
	norm, err := utils.NormalizeWalletAddress(address)
	if err != nil {
		return WalletResult{}, err
	}

	p, err := r.Profiles.GetByWallet(ctx, norm)
	if err == nil {
		if terr := r.Profiles.TouchLastLogin(ctx, p.ID); terr != nil {
			log.Printf("reconciler: touch last login for %d: %v", p.ID, terr)
		}
		return WalletResult{User: p.AppUser(), IsNewUser: false}, nil
	}
	if err != sql.ErrNoRows {
		return WalletResult{}, err
	}

	if strings.TrimSpace(role) == "" {
		// Unknown address, no role yet: the client must collect role/tier
		// and retry. No record is created at this step.
		return WalletResult{RequiresOnboarding: true}, nil
	}

	role = strings.ToUpper(strings.TrimSpace(role))
	if !model.ValidRole(role) {
		return WalletResult{}, ErrInvalidRole
	}
	tier = strings.ToUpper(strings.TrimSpace(tier))
	if tier == "" {
		tier = model.TierF1
	}
	if !model.ValidTier(tier) {
		return WalletResult{}, ErrInvalidTier
	}

	name := utils.PlaceholderName(norm)
	id, err := r.Profiles.CreateWallet(ctx, name, norm, role, tier)
	if err != nil {
		if err == repository.ErrWalletExists {
			// Lost a race against a concurrent connect for the same address;
			// the address is the idempotency key, so return the winner.
			existing, gerr := r.Profiles.GetByWallet(ctx, norm)
			if gerr != nil {
				return WalletResult{}, gerr
			}
			return WalletResult{User: existing.AppUser(), IsNewUser: false}, nil
		}
		return WalletResult{}, err
	}

	u := model.WalletUser{ID: id, Name: name, Address: norm, Role: role, Tier: tier}
	return WalletResult{User: u, IsNewUser: true}, nil
}

// RegisterEmail creates an unverified email-anchored profile. Verification
// flows through the OTP lifecycle; until it completes, the profile cannot
// hold a session.
func (r *Reconciler) RegisterEmail(ctx context.Context, name, email, role, tier string) (model.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return model.Profile{}, ErrInvalidEmail
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}

	role = strings.ToUpper(strings.TrimSpace(role))
	if role == "" {
		role = model.RolePatient
	}
	if !model.ValidRole(role) {
		return model.Profile{}, ErrInvalidRole
	}
	tier = strings.ToUpper(strings.TrimSpace(tier))
	if tier == "" {
		tier = model.TierF1
	}
	if !model.ValidTier(tier) {
		return model.Profile{}, ErrInvalidTier
	}

	id, err := r.Profiles.CreateEmail(ctx, name, email, role, tier)
	if err != nil {
		return model.Profile{}, err // repository.ErrEmailExists passes through
	}
	return model.Profile{
		ID:       id,
		Name:     name,
		Email:    sql.NullString{String: email, Valid: true},
		AuthType: model.AuthTypeEmail,
		Role:     role,
		Tier:     tier,
	}, nil
}
