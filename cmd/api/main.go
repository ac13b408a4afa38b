package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"wallet/internal/config"
	"wallet/internal/handler"
	"wallet/internal/logging"
	"wallet/internal/middleware"
	"wallet/internal/repository"
	"wallet/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("wallet-api", cfg.LogLevel, cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	pool := repository.NewDB(db)
	walletRepo := repository.NewWalletRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	userRepo := repository.NewUserRepository(db)

	transactionSvc := service.NewTransactionService(transactionRepo, walletRepo)
	walletSvc := service.NewWalletService(pool, walletRepo, transactionSvc)
	userSvc := service.NewUserService(pool, userRepo, walletRepo)

	healthHandler := handler.NewHealthHandler(db)
	authHandler := handler.NewAuthHandler(userRepo, cfg.JWTSecret, time.Duration(cfg.JWTExpiryH)*time.Hour)
	userHandler := handler.NewUserHandler(userSvc)
	walletHandler := handler.NewWalletHandler(walletSvc)
	transactionHandler := handler.NewTransactionHandler(transactionSvc)

	requireAuth := middleware.Auth(cfg.JWTSecret)
	protected := func(h http.HandlerFunc) http.Handler {
		return requireAuth(h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	mux.HandleFunc("GET /docs", handler.ServeDocs)
	mux.HandleFunc("GET /docs/openapi.yaml", handler.ServeSpec)

	mux.HandleFunc("POST /api/v1/auth/register", userHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	mux.Handle("GET /api/v1/wallet", protected(walletHandler.Get))
	mux.Handle("PUT /api/v1/wallet/activate", protected(walletHandler.Activate))
	mux.Handle("PUT /api/v1/wallet/deposit", protected(walletHandler.Deposit))
	mux.Handle("PUT /api/v1/wallet/withdraw", protected(walletHandler.Withdraw))
	mux.Handle("PUT /api/v1/wallet/transfer", protected(walletHandler.Transfer))
	mux.Handle("GET /api/v1/transactions", protected(transactionHandler.List))
	mux.Handle("GET /api/v1/users/{id}", protected(userHandler.GetByID))

	root := middleware.Recovery(middleware.RequestID(middleware.Logging(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
