package handler

import (
	"context"      // provides context with cancellation for DB calls
	"database/sql" // SQL database interactions
	"errors"       // sentinel matching via errors.Is/As
	"net/http"     // HTTP status codes and primitives
	"strconv"      // string-to-int conversion
	"strings"      // string manipulation utilities
	"time"         // timeouts for DB calls

	"github.com/golang-jwt/jwt/v5" // JSON Web Token library for parsing access tokens
	"github.com/labstack/echo/v4"  // Echo framework for HTTP routing

	"github.com/heliogen/genomevault/internal/config"     // app configuration
	"github.com/heliogen/genomevault/internal/model"      // identity model types
	"github.com/heliogen/genomevault/internal/repository" // DB repositories
	"github.com/heliogen/genomevault/internal/service"    // identity services
	"github.com/heliogen/genomevault/internal/utils"      // helper functions (address checksums, token issuing)
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	OTP      *service.OTPService
	Rec      *service.Reconciler
	Profiles service.ProfileStore
	Tokens   service.TokenStore
}

func NewAuthHandler(cfg config.Config, otp *service.OTPService, rec *service.Reconciler, p service.ProfileStore, t service.TokenStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, OTP: otp, Rec: rec, Profiles: p, Tokens: t}
}

// ----- DTOs -----

type walletReq struct {
	WalletAddress    string `json:"walletAddress"`
	Role             string `json:"role"` // patient | doctor | researcher
	SubscriptionTier string `json:"subscriptionTier"`
}
type registerReq struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	SubscriptionTier string `json:"subscriptionTier"`
}
type verifyReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}
type resendReq struct {
	Email string `json:"email"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID            uint64 `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	WalletAddress string `json:"wallet_address,omitempty"`
	AuthType      string `json:"auth_type"`
	Role          string `json:"role"`
	Tier          string `json:"subscription_tier"`
}
type authResp struct {
	User      userPart  `json:"user"`
	IsNewUser bool      `json:"is_new_user"`
	Access    tokenPart `json:"access"`
	Refresh   tokenPart `json:"refresh"`
}

func userPartFrom(u model.AppUser) userPart {
	part := userPart{
		ID:       u.ProfileID(),
		Name:     u.DisplayName(),
		AuthType: u.AuthMode(),
		Role:     u.UserRole(),
		Tier:     u.SubscriptionTier(),
	}
	switch v := u.(type) {
	case model.WalletUser:
		// Addresses are stored lowercase; clients get the checksummed form.
		if cs, err := utils.ChecksumAddress(v.Address); err == nil {
			part.WalletAddress = cs
		} else {
			part.WalletAddress = v.Address
		}
	case model.EmailUser:
		part.Email = v.Email
	}
	return part
}

// issueSession mints an access/refresh pair for the user and stores the
// refresh hash.
func (h *AuthHandler) issueSession(ctx context.Context, u model.AppUser, isNew bool) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ProfileID(), u.UserRole(), u.SubscriptionTier(), u.AuthMode(), h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ProfileID(), utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:      userPartFrom(u),
		IsNewUser: isNew,
		Access:    tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh:   tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, nil
}

// WalletAuth: resolve a wallet address to an existing profile, an
// onboarding prompt, or a freshly created profile. The handshake is
// idempotent on the address: connect without role -> onboarding_required,
// retry with role/tier -> create, any later connect -> existing user.
func (h *AuthHandler) WalletAuth(c echo.Context) error {
	var req walletReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.WalletAddress) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "wallet address required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Rec.ResolveWallet(ctx, req.WalletAddress, req.Role, req.SubscriptionTier)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrInvalidAddress):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid wallet address"})
		case errors.Is(err, service.ErrInvalidRole):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
		case errors.Is(err, service.ErrInvalidTier):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid subscription tier"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "wallet auth failed"})
	}

	if res.RequiresOnboarding {
		cs, _ := utils.ChecksumAddress(req.WalletAddress)
		return c.JSON(http.StatusOK, echo.Map{
			"requires_onboarding": true,
			"wallet_address":      cs,
		})
	}

	resp, err := h.issueSession(ctx, res.User, res.IsNewUser)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}
	status := http.StatusOK
	if res.IsNewUser {
		status = http.StatusCreated
	}
	return c.JSON(status, resp)
}

// Register: create an unverified email profile and send the first code.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Rec.RegisterEmail(ctx, req.Name, req.Email, req.Role, req.SubscriptionTier)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email"})
		case errors.Is(err, service.ErrInvalidRole):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
		case errors.Is(err, service.ErrInvalidTier):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid subscription tier"})
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create profile failed"})
	}

	rec, err := h.OTP.Issue(ctx, p.Email.String)
	if errors.Is(err, service.ErrDelivery) {
		// Profile exists but the code never reached the user; the client
		// should retry via resend once the cooldown passes.
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send verification code"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue code failed"})
	}

	body := echo.Map{
		"success": true,
		"message": "verification code sent",
		"user":    userPartFrom(p.AppUser()),
	}
	if !h.Cfg.Production() {
		body["debug_code"] = rec.Code
	}
	return c.JSON(http.StatusCreated, body)
}

// Verify: validate a code and, on success, return a session for the now
// verified profile. Safe to call twice with the same correct code.
func (h *AuthHandler) Verify(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Code) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/code required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.OTP.Validate(ctx, req.Email, req.Code)
	if err != nil {
		var rl *service.RateLimitedError
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no pending verification"})
		case errors.Is(err, service.ErrExpired):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "code expired"})
		case errors.Is(err, service.ErrMismatch):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid code"})
		case errors.As(err, &rl):
			c.Response().Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter))
			return c.JSON(http.StatusTooManyRequests, echo.Map{"error": rl.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}

	resp, err := h.issueSession(ctx, p.AppUser(), false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Resend: issue a fresh code for an unverified email, honoring the resend
// cooldown. The 429 body carries the remaining wait in seconds.
func (h *AuthHandler) Resend(c echo.Context) error {
	var req resendReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.OTP.Issue(ctx, req.Email)
	if err != nil {
		var rl *service.RateLimitedError
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no account found for this email"})
		case errors.Is(err, service.ErrAlreadyVerified):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already verified"})
		case errors.As(err, &rl):
			c.Response().Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter))
			return c.JSON(http.StatusTooManyRequests, echo.Map{"error": rl.Error()})
		case errors.Is(err, service.ErrDelivery):
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send verification code"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue code failed"})
	}

	body := echo.Map{"success": true, "message": "verification code sent"}
	if !h.Cfg.Production() {
		body["debug_code"] = rec.Code
	}
	return c.JSON(http.StatusOK, body)
}

// Refresh: validate by hash, revoke old, issue new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	raw := strings.TrimSpace(req.RefreshToken)
	hash := utils.HashRefreshRaw(raw)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	profileID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	p, err := h.Profiles.GetByID(ctx, profileID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load profile failed"})
	}

	resp, err := h.issueSession(ctx, p.AppUser(), false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// RefreshAccess: validate a refresh token and return a new access token
// WITHOUT rotating the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	raw := strings.TrimSpace(req.RefreshToken)
	hash := utils.HashRefreshRaw(raw)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	profileID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		// Invalid, expired or revoked refresh token
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	p, err := h.Profiles.GetByID(ctx, profileID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load profile failed"})
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, p.ID, p.Role, p.Tier, p.AuthType, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	// Only return a new access token; do not rotate the refresh token
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout supports two modes: revoking a specific refresh token, or revoking
// all refresh tokens for the profile named by a valid bearer token. If a
// refresh token is present in the body, that session alone ends; with only
// a bearer, every session ends.
func (h *AuthHandler) Logout(c echo.Context) error {
	// Parse the Authorization header here so this endpoint works without
	// the JWT middleware.
	var uid uint64
	hasBearer := false
	authHeader := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		rawToken := strings.TrimPrefix(authHeader, "Bearer ")
		tok, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, echo.ErrUnauthorized
			}
			return []byte(h.Cfg.JWTSecret), nil
		})
		if err == nil && tok.Valid {
			if claims, ok := tok.Claims.(jwt.MapClaims); ok {
				switch subVal := claims["sub"].(type) {
				case float64:
					// JWT numeric values decode as float64.
					uid = uint64(subVal)
					hasBearer = true
				case string:
					if parsed, err := strconv.ParseUint(subVal, 10, 64); err == nil {
						uid = parsed
						hasBearer = true
					}
				}
			}
		}
	}

	// Invalid JSON simply leaves req.RefreshToken empty; the bearer may
	// still suffice.
	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if hasBearer && refreshToken == "" {
		if uid == 0 {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		if err := h.Tokens.RevokeAllForProfile(ctx, uid); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}
	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
}

// Me: simple protected endpoint.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id":   c.Get("user_id"),
		"role":      c.Get("role"),
		"tier":      c.Get("tier"),
		"auth_type": c.Get("auth_type"),
	})
}
