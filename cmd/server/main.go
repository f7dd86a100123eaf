package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forgo/rally/internal/config"
	"github.com/forgo/rally/internal/database"
	"github.com/forgo/rally/internal/handler"
	"github.com/forgo/rally/internal/jobs"
	"github.com/forgo/rally/internal/middleware"
	"github.com/forgo/rally/internal/repository"
	"github.com/forgo/rally/internal/service"
	"github.com/forgo/rally/pkg/jwt"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	// Tokens are issued by the auth provider; only the public key is needed
	jwtService, err := jwt.NewService(jwt.Config{
		PublicKeyPath:  cfg.JWT.PublicKeyPath,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		slog.Error("failed to initialize JWT service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	participationRepo := repository.NewParticipationRepository(db)
	inviteRepo := repository.NewInviteRepository(db)

	// Initialize services
	transactor := service.NewEventTransactor(participationRepo, cfg.Participation.MaxCommitAttempts)

	matcherService := service.NewMatcherService(service.MatcherServiceConfig{
		UserRepo:          userRepo,
		EnforceSkillMatch: cfg.Participation.EnforceSkillMatch,
	})

	participationService := service.NewParticipationService(service.ParticipationServiceConfig{
		Transactor:   transactor,
		Records:      participationRepo,
		UserRepo:     userRepo,
		CheckInLead:  cfg.Participation.CheckInLead,
		CheckInGrace: cfg.Participation.CheckInGrace,
	})

	inviteService := service.NewInviteService(service.InviteServiceConfig{
		Transactor: transactor,
		InviteRepo: inviteRepo,
		EventRepo:  eventRepo,
		Records:    participationRepo,
		Matcher:    matcherService,
	})

	eventService := service.NewEventService(service.EventServiceConfig{
		Repo:          eventRepo,
		Joined:        participationRepo,
		UserRepo:      userRepo,
		Participation: participationService,
		Invites:       inviteService,
		Matcher:       matcherService,
	})

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(db)
	eventHandler := handler.NewEventHandler(eventService, participationService)
	inviteHandler := handler.NewInviteHandler(inviteService)
	matchHandler := handler.NewMatchHandler(matcherService)

	// Create router and register routes
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Health)

	authMiddleware := middleware.Auth(jwtService)
	eventHandler.RegisterRoutes(mux, authMiddleware)
	inviteHandler.RegisterRoutes(mux, authMiddleware)
	matchHandler.RegisterRoutes(mux, authMiddleware)

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
	)

	// Start background jobs
	var inviteExpiry *jobs.InviteExpiry
	if cfg.Jobs.InviteExpiryEnabled {
		inviteExpiry = jobs.NewInviteExpiry(inviteService, cfg.Jobs.InviteExpiryInterval)
		if err := inviteExpiry.Start(); err != nil {
			slog.Error("failed to start invite expiry", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	if inviteExpiry != nil {
		inviteExpiry.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}
