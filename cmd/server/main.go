package main // Entry point package

import (
	"context"
	"log"  // Logging library
	"time" // migration timeout

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/heliogen/genomevault/internal/config"
	"github.com/heliogen/genomevault/internal/database"
	"github.com/heliogen/genomevault/internal/handler"
	"github.com/heliogen/genomevault/internal/queue"
	"github.com/heliogen/genomevault/internal/repository"
	"github.com/heliogen/genomevault/internal/router"
	"github.com/heliogen/genomevault/internal/service"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	mctx, mcancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer mcancel()
	if err := database.Migrate(mctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// Redis powers the distributed rate limiter and response cache; nil is
	// tolerated and both middlewares degrade to no-ops.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response caching disabled")
	}

	profiles := repository.NewProfileRepo(db)
	codes := repository.NewOTPRepo(db)
	attempts := repository.NewAttemptRepo(db)
	tokens := repository.NewTokenRepo(db)
	records := repository.NewRecordRepo(db)

	notifier := queue.NewPublisherFromEnv()

	otp := service.NewOTPService(profiles, codes, attempts, notifier,
		time.Duration(cfg.OTPTTLMin)*time.Minute,
		time.Duration(cfg.OTPCooldownSec)*time.Second,
		cfg.LoginMaxFailures,
		time.Duration(cfg.LoginBlockMin)*time.Minute)
	rec := service.NewReconciler(profiles)
	eraser := service.NewEraseService(profiles, codes, attempts, tokens, records, notifier)

	authH := handler.NewAuthHandler(cfg, otp, rec, profiles, tokens)
	accountH := handler.NewAccountHandler(eraser)
	recordH := handler.NewRecordHandler(records)

	e := echo.New()
	router.RegisterRoutes(e, rdb)
	router.RegisterAuth(e, authH, accountH, recordH, cfg.JWTSecret, rdb)

	// Mail delivery worker; reconnects forever in the background.
	go func() {
		if err := queue.StartOTPConsumer(); err != nil {
			log.Printf("otp consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
