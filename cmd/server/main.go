package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	eventsredis "github.com/vncsmyrnk/planningpoker/internal/adapters/events/redis"
	"github.com/vncsmyrnk/planningpoker/internal/adapters/handler/http"
	"github.com/vncsmyrnk/planningpoker/internal/adapters/oauth/google"
	"github.com/vncsmyrnk/planningpoker/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/planningpoker/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/planningpoker/internal/adapters/token"
	"github.com/vncsmyrnk/planningpoker/internal/config"
	"github.com/vncsmyrnk/planningpoker/internal/core/ports"
	"github.com/vncsmyrnk/planningpoker/internal/core/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Error("failed to open stores", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer st.close()

	var publisher ports.EventPublisher
	if cfg.Redis.Addr != "" {
		client, err := eventsredis.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Error("failed to connect to redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer client.Close()
		publisher = eventsredis.NewPublisher(client, cfg.Redis.ChannelPrefix)
	}

	tokens, err := token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	if err != nil {
		logger.Error("failed to create token manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	sameSite, _ := cfg.Auth.SameSite()
	googleVerifier, err := google.NewVerifier(cfg.Auth.GoogleClientID)
	if err != nil {
		logger.Error("failed to create google verifier", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sessionSvc := services.NewSessionService(st.sessions, services.NewCodeGenerator(), publisher, logger, services.SessionConfig{
		StoreTimeout:   cfg.Session.StoreTimeout,
		WriteAttempts:  cfg.Session.WriteAttempts,
		CodeAttempts:   cfg.Session.CodeAttempts,
		InitialBackoff: cfg.Session.InitialBackoff,
		MaxBackoff:     cfg.Session.MaxBackoff,
	})
	profileSvc := services.NewProfileService(st.profiles)
	authSvc := services.NewAuthService(st.profiles, st.refreshTokens, googleVerifier, tokens, logger, cfg.Auth.RefreshTokenTTL)

	handler := http.NewHandler(
		http.NewSessionHandler(sessionSvc, logger),
		http.NewProfileHandler(profileSvc, logger),
		http.NewAuthHandler(authSvc, logger, cfg.Auth.RedirectURL, cfg.Auth.CookieDomain, sameSite, tokens.TTL()),
		tokens,
	)
	server := &stdhttp.Server{Addr: cfg.HTTPAddr, Handler: handler}

	go func() {
		logger.Info("listening", slog.String("addr", cfg.HTTPAddr), slog.String("store", cfg.StoreBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			logger.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", slog.String("error", err.Error()))
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

type stores struct {
	sessions      ports.SessionStore
	profiles      ports.ProfileRepository
	refreshTokens ports.RefreshTokenRepository
	close         func()
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	if cfg.StoreBackend == "memory" {
		return &stores{
			sessions:      memory.NewSessionRepository(),
			profiles:      memory.NewProfileRepository(),
			refreshTokens: memory.NewRefreshTokenRepository(),
			close:         func() {},
		}, nil
	}

	db, err := sql.Open("postgres", cfg.Postgres.ConnString())
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return &stores{
		sessions:      postgres.NewSessionRepository(db),
		profiles:      postgres.NewProfileRepository(db),
		refreshTokens: postgres.NewAuthRepository(db),
		close:         func() { db.Close() },
	}, nil
}
