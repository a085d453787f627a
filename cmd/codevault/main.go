package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/codevault/codevault/internal/config"
	httpserver "github.com/codevault/codevault/internal/http"
	"github.com/codevault/codevault/pkg/repository"
	"github.com/codevault/codevault/pkg/vault"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Admin subcommands; anything else starts the server.
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "provision":
			os.Exit(runProvision(logger, os.Args[2:]))
		case "deprovision":
			os.Exit(runDeprovision(logger, os.Args[2:]))
		}
	}

	runServer(logger)
}

func runServer(logger *slog.Logger) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := openDB(cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("connected to database")

	// Initialize repositories
	usersRepo := repository.NewUsersRepository(db)
	domainsRepo := repository.NewDomainsRepository(db)

	// Initialize services
	keyService := vault.NewKeyService(usersRepo)
	vaultService := vault.NewVaultService(vault.VaultConfig{
		GlobalDomainNames: cfg.Vault.GlobalDomainNames,
	}, logger, keyService, domainsRepo)

	// Create router
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:          logger,
		VaultService:    vaultService,
		KeyService:      keyService,
		JWTSecret:       []byte(cfg.JWTSecret),
		RateLimitConfig: cfg.RateLimit,
		SecurityHeaders: cfg.SecurityHeaders,
		Validation:      cfg.Validation,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

// runProvision creates a user with a freshly derived signing key.
func runProvision(logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("provision", flag.ExitOnError)
	email := fs.String("email", "", "email of the user to create")
	name := fs.String("name", "", "display name (optional)")
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return 1
	}
	db, err := openDB(cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return 1
	}
	defer db.Close()

	users := repository.NewUsersRepository(db)
	ctx := context.Background()

	exists, err := users.ExistsByEmail(ctx, *email)
	if err != nil {
		logger.Error("failed to check email", "error", err)
		return 1
	}
	if exists {
		logger.Error("user already exists", "email", *email)
		return 1
	}

	var namePtr *string
	if *name != "" {
		namePtr = name
	}

	user, err := vault.NewUser(*email, namePtr)
	if err != nil {
		logger.Error("failed to build user", "error", err)
		return 1
	}
	if err := users.Create(ctx, user); err != nil {
		logger.Error("failed to create user", "error", err)
		return 1
	}

	logger.Info("user provisioned",
		"user_id", user.ID,
		"email", user.Email,
		"key_version", user.CodeKeyVersion,
	)
	return 0
}

// runDeprovision soft-deletes a user by email. Their domains and codes
// stay in storage but become unreachable: every lookup is scoped to
// non-deleted users.
func runDeprovision(logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("deprovision", flag.ExitOnError)
	email := fs.String("email", "", "email of the user to soft-delete")
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return 1
	}
	db, err := openDB(cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return 1
	}
	defer db.Close()

	users := repository.NewUsersRepository(db)
	ctx := context.Background()

	user, err := users.GetByEmail(ctx, *email)
	if err != nil {
		logger.Error("failed to look up user", "email", *email, "error", err)
		return 1
	}
	if err := users.SoftDelete(ctx, user.ID); err != nil {
		logger.Error("failed to soft-delete user", "user_id", user.ID, "error", err)
		return 1
	}

	logger.Info("user deprovisioned", "user_id", user.ID, "email", user.Email)
	return 0
}

func openDB(cfg *config.Config) (*sql.DB, error) {
	return repository.NewDB(repository.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
}
