package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/bloodlink/blood-api/internal/config"
	"github.com/bloodlink/blood-api/internal/email"
	"github.com/bloodlink/blood-api/internal/handler"
	adminHandler "github.com/bloodlink/blood-api/internal/handler/admin"
	authHandler "github.com/bloodlink/blood-api/internal/handler/auth"
	donorHandler "github.com/bloodlink/blood-api/internal/handler/donor"
	hospitalHandler "github.com/bloodlink/blood-api/internal/handler/hospital"
	"github.com/bloodlink/blood-api/internal/middleware"
	"github.com/bloodlink/blood-api/internal/repository"
	"github.com/bloodlink/blood-api/internal/repository/memory"
	"github.com/bloodlink/blood-api/internal/repository/postgres"
	"github.com/bloodlink/blood-api/internal/router"
	adminService "github.com/bloodlink/blood-api/internal/service/admin"
	authService "github.com/bloodlink/blood-api/internal/service/auth"
	matchingService "github.com/bloodlink/blood-api/internal/service/matching"
	requestService "github.com/bloodlink/blood-api/internal/service/request"
	"github.com/bloodlink/blood-api/pkg/auth"
	"github.com/bloodlink/blood-api/pkg/logger"
	"github.com/bloodlink/blood-api/pkg/security"
	"github.com/bloodlink/blood-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(cfg.Log.Level, cfg.Log.Pretty)

	validator.RegisterCustomValidations()

	accounts, codes, requests, err := buildRepositories(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	tokens := buildTokenStore(cfg)
	sender := buildSender(cfg)

	hasher := security.NewBcryptHasher(0)
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())

	authSvc := authService.NewService(accounts, codes, hasher, jwtSvc, tokens, sender)
	requestSvc := requestService.NewService(requests, accounts)
	matchingSvc := matchingService.NewService(accounts, requests)
	adminSvc := adminService.NewService(accounts)

	authMiddleware := middleware.NewAuthMiddleware(jwtSvc, tokens, accounts)

	h := handler.NewHandler()
	authH := authHandler.NewHandler(authSvc)
	hospitalH := hospitalHandler.NewHandler(requestSvc, matchingSvc)
	donorH := donorHandler.NewHandler(requestSvc, matchingSvc)
	adminH := adminHandler.NewHandler(adminSvc, requestSvc)

	r := router.NewRouter(
		authMiddleware,
		authH,
		hospitalH,
		donorH,
		adminH,
		h,
		router.Config{
			RateLimit:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:  cfg.RateLimit.Burst,
			CORSConfig: middleware.DefaultCORSConfig(),
			Timeout:    cfg.Server.Timeout(),
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("storage", cfg.Storage.Driver).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

func buildRepositories(cfg *config.Config) (repository.AccountRepository, repository.OTPRepository, repository.RequestRepository, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return memory.NewAccountRepository(), memory.NewOTPRepository(), memory.NewRequestRepository(), nil
	case "postgres":
		db, err := postgres.NewDB(cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		base := postgres.NewBaseRepository(db)
		return postgres.NewAccountRepository(base), postgres.NewOTPRepository(base), postgres.NewRequestRepository(base), nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func buildTokenStore(cfg *config.Config) auth.TokenStore {
	if cfg.Redis.Addr == "" {
		log.Warn().Msg("redis not configured, revoked tokens are tracked in-process only")
		return auth.NewMemoryTokenStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return auth.NewRedisTokenStore(client)
}

func buildSender(cfg *config.Config) email.Sender {
	if cfg.SMTP.Host == "" {
		log.Warn().Msg("smtp not configured, verification codes are logged only")
		return email.NewLogSender()
	}
	return email.NewSMTPSender(email.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
}
