// Command server runs the studio site backend: the contact-form and
// newsletter relay, the upload staging routes, and the Instagram/Square
// catalog proxy with its TTL cache.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ewg-studio/go-site-backend/internal/cache"
	"github.com/ewg-studio/go-site-backend/internal/clients/instagram"
	"github.com/ewg-studio/go-site-backend/internal/clients/mailboxcheck"
	"github.com/ewg-studio/go-site-backend/internal/clients/square"
	"github.com/ewg-studio/go-site-backend/internal/config"
	httpapi "github.com/ewg-studio/go-site-backend/internal/http"
	"github.com/ewg-studio/go-site-backend/internal/mail"
	"github.com/ewg-studio/go-site-backend/internal/observability"
	"github.com/ewg-studio/go-site-backend/internal/repo"
	"github.com/ewg-studio/go-site-backend/internal/storage"
	"github.com/ewg-studio/go-site-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	loadEnvFiles()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize tracing")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown tracing")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	files, err := storage.NewStaging(cfg.UploadDir, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("prepare upload staging")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:        db,
		Cache:     cache.New(cfg.CacheTTL),
		Files:     files,
		Validator: mailboxcheck.New(cfg.MailboxValidatorKey, ""),
		Mailer:    mail.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password),
		Instagram: instagram.New(cfg.InstagramToken, ""),
		Square:    square.New(cfg.Square.Token, cfg.Square.LocationID, cfg.Square.BaseURL),
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

// loadEnvFiles overlays .env files when present; real environment variables
// still win via config's lookup order being applied afterwards.
func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
