package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/library-management/internal/config"
	"github.com/iliyamo/library-management/internal/database"
	"github.com/iliyamo/library-management/internal/handler"
	"github.com/iliyamo/library-management/internal/middleware"
	"github.com/iliyamo/library-management/internal/queue"
	"github.com/iliyamo/library-management/internal/repository"
	"github.com/iliyamo/library-management/internal/router"
	"github.com/iliyamo/library-management/internal/scan"
	"github.com/iliyamo/library-management/internal/utils"
	"github.com/iliyamo/library-management/internal/validation"
)

func main() {
	// Load .env when present; containerized deployments set real env vars.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	// Redis is optional; rate limiting and response caching degrade to
	// pass-through when it is unreachable.
	rdb := config.NewRedisClient()

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	racks := repository.NewRackRepo(db)
	shelves := repository.NewShelfRepo(db)
	books := repository.NewBookRepo(db)
	txns := repository.NewTransactionRepo(db)
	fines := repository.NewFineRepo(db)
	apiKeys := repository.NewAPIKeyRepo(db)

	// Handlers.
	authH := handler.NewAuthHandler(cfg, users, tokens)
	adminH := handler.NewAdminHandler(db, cfg, users, racks, shelves, books)
	publicH := handler.NewPublicHandler(racks, shelves, books)
	loanH := handler.NewLoanHandler(db, cfg, books, users, txns, fines)
	fineH := handler.NewFineHandler(db, cfg, fines, txns, users)
	overdueH := handler.NewOverdueHandler(cfg, txns, fines)
	apiKeyH := handler.NewAPIKeyHandler(apiKeys)
	reportH := handler.NewReportHandler(txns, fines)
	mailbox := scan.NewMailbox(time.Duration(cfg.ScanTTLSec) * time.Second)
	scanH := handler.NewScanHandler(mailbox)

	e := echo.New()
	e.Validator = validation.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH)
	router.RegisterAdmin(e, adminH, loanH, fineH, overdueH, apiKeyH, reportH, cfg.JWTSecret)
	router.RegisterShared(e, overdueH, cfg.JWTSecret)
	router.RegisterMember(e, overdueH, cfg.JWTSecret)
	router.RegisterScan(e, scanH, func(ctx context.Context, raw string) (bool, error) {
		return apiKeys.VerifyHash(ctx, utils.HashAPIKey(raw))
	})

	// Background consumer writes circulation events to logs/circulation.log.
	go func() {
		if err := queue.StartCirculationConsumer(); err != nil {
			log.Printf("circulation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
