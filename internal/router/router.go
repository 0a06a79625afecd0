package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/heliogen/genomevault/internal/config"     // cache/ratelimit configuration
	"github.com/heliogen/genomevault/internal/handler"    // import the handlers that implement business logic
	"github.com/heliogen/genomevault/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/heliogen/genomevault/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance: the health check and the public tier catalog.
// The tier catalog sits behind the Redis response cache when a client is
// available; with rdb == nil the middleware degrades to a no-op.
func RegisterRoutes(e *echo.Echo, rdb *redis.Client) {
	// Health check for load balancers and monitoring systems.
	e.GET("/healthz", handler.Health)

	cacheCfg := config.LoadCacheConfig()
	e.GET("/v1/tiers", handler.Tiers, middleware.NewRedisCache(cacheCfg, rdb))
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware. Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1. The distributed token bucket
// throttles the whole auth group; the per-email OTP cooldown on top of it
// is enforced inside the OTP service.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, acc *handler.AccountHandler, rec *handler.RecordHandler, jwtSecret string, rdb *redis.Client) {
	rlCfg := config.LoadRateLimitConfig()
	bucket := middleware.NewTokenBucket(rlCfg, rdb)

	// Operations that do not require an existing session: the wallet
	// handshake, email registration and the OTP exchange.
	g := e.Group("/v1/auth", bucket)
	// Wallet path of the identity reconciler (connect / onboard / create).
	g.POST("/wallet", a.WalletAuth)
	// Email path: create an unverified profile and send the first code.
	g.POST("/register", a.Register)
	// Consume a one-time code; on success returns a token pair.
	g.POST("/verify", a.Verify)
	// Re-issue a code, subject to the 60 second cooldown.
	g.POST("/resend", a.Resend)
	// Rotate the refresh token and mint a new pair.
	g.POST("/refresh", a.Refresh)
	// Issue a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts either a refresh token in the body (ends one session)
	// or a bearer token (ends all sessions); no JWT middleware required.
	g.POST("/logout", a.Logout)

	// Routes that require a valid access token. The JWTAuth middleware
	// rejects missing or malformed Authorization headers with 401 before
	// any handler logic runs.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RolePatient, model.RoleDoctor, model.RoleResearcher))
	// Authenticated user's own claims.
	auth.GET("/me", a.Me)
	// Ledger pointer rows the vault gates on the client side.
	auth.GET("/records", rec.List)
	auth.POST("/records", rec.Create)
	// Right to be forgotten: removes every off-platform record, never the
	// ledger itself.
	auth.DELETE("/account", acc.Erase)
}
