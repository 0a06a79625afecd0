package model

import (
	"database/sql"
	"time"
)

// AuthType discriminates the two mutually exclusive authentication modes.
// A profile is anchored either to a wallet address or to an email address,
// never to both.
const (
	AuthTypeWallet = "wallet"
	AuthTypeEmail  = "email"
)

// Roles supported by the platform. Stored uppercase, normalized on input.
const (
	RolePatient    = "PATIENT"
	RoleDoctor     = "DOCTOR"
	RoleResearcher = "RESEARCHER"
)

// Subscription tiers, orthogonal to role. F1 is the default.
const (
	TierF1 = "F1"
	TierF2 = "F2"
	TierF3 = "F3"
)

// ValidRole reports whether the (already normalized) role is one the
// platform knows about.
func ValidRole(role string) bool {
	switch role {
	case RolePatient, RoleDoctor, RoleResearcher:
		return true
	}
	return false
}

// ValidTier reports whether the (already normalized) tier is known.
func ValidTier(tier string) bool {
	switch tier {
	case TierF1, TierF2, TierF3:
		return true
	}
	return false
}

// Profile mirrors the `profiles` table. Exactly one of Email or
// WalletAddress is set depending on AuthType; the unused anchor column is
// NULL so the unique indexes on both columns can coexist.
//
// Fields:
//  ID            - primary key identifier of the profile.
//  Name          - display name (placeholder derived from the address for wallet users).
//  Email         - unique email address (NULL for wallet profiles).
//  WalletAddress - unique lowercased wallet address (NULL for email profiles).
//  AuthType      - "wallet" or "email".
//  Role          - PATIENT, DOCTOR or RESEARCHER.
//  Tier          - subscription tier F1/F2/F3.
//  EmailVerified - whether the email anchor has been proven via OTP.
//  CreatedAt     - timestamp of creation.
//  LastLoginAt   - timestamp of the most recent successful login.
type Profile struct {
	ID            uint64         // profiles.id
	Name          string         // profiles.name
	Email         sql.NullString // profiles.email (nullable)
	WalletAddress sql.NullString // profiles.wallet_address (nullable)
	AuthType      string         // profiles.auth_type
	Role          string         // profiles.user_role
	Tier          string         // profiles.subscription_tier
	EmailVerified bool           // profiles.email_verified
	CreatedAt     time.Time      // profiles.created_at
	LastLoginAt   time.Time      // profiles.last_login_at
}

// AppUser is the tagged union over the two identity modes. Modeling the
// modes as distinct types keeps wallet-only fields off email users and vice
// versa; a shared struct with optional fields invites cross-mode leakage.
type AppUser interface {
	ProfileID() uint64
	DisplayName() string
	UserRole() string
	SubscriptionTier() string
	AuthMode() string
}

// WalletUser is the wallet-anchored variant of AppUser.
type WalletUser struct {
	ID      uint64
	Name    string
	Address string
	Role    string
	Tier    string
}

func (u WalletUser) ProfileID() uint64        { return u.ID }
func (u WalletUser) DisplayName() string      { return u.Name }
func (u WalletUser) UserRole() string         { return u.Role }
func (u WalletUser) SubscriptionTier() string { return u.Tier }
func (u WalletUser) AuthMode() string         { return AuthTypeWallet }

// EmailUser is the email-anchored variant of AppUser.
type EmailUser struct {
	ID       uint64
	Name     string
	Email    string
	Role     string
	Tier     string
	Verified bool
}

func (u EmailUser) ProfileID() uint64        { return u.ID }
func (u EmailUser) DisplayName() string      { return u.Name }
func (u EmailUser) UserRole() string         { return u.Role }
func (u EmailUser) SubscriptionTier() string { return u.Tier }
func (u EmailUser) AuthMode() string         { return AuthTypeEmail }

// AppUser converts a stored profile row into the matching union variant.
func (p Profile) AppUser() AppUser {
	switch p.AuthType {
	case AuthTypeWallet:
		return WalletUser{ID: p.ID, Name: p.Name, Address: p.WalletAddress.String, Role: p.Role, Tier: p.Tier}
	default:
		return EmailUser{ID: p.ID, Name: p.Name, Email: p.Email.String, Role: p.Role, Tier: p.Tier, Verified: p.EmailVerified}
	}
}
