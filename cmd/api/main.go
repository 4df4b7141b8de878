// @title           Pet Adoption Marketplace API
// @version         1.0
// @description     Matching adoptante-mascota, solicitudes y mensajería con refugios.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pet-adoption-marketplace/internal/adapters/auth/odin"
	pg "pet-adoption-marketplace/internal/adapters/storage/postgres"
	"pet-adoption-marketplace/internal/config"
	"pet-adoption-marketplace/internal/platform/logger"
	"pet-adoption-marketplace/internal/ports/auth"
	"pet-adoption-marketplace/internal/router"

	"github.com/joho/godotenv"
)

func main() {
	// .env es opcional; en contenedores todo llega por env
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.NewFromEnv().Error("invalid config", map[string]any{"err": err})
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	var db *sql.DB
	if cfg.DBDSN != "" {
		db, err = pg.Open(cfg.DBDSN)
		if err != nil {
			log.Error("db open failed", map[string]any{"err": err})
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = pg.Migrate(ctx, db)
		cancel()
		if err != nil {
			log.Error("db migrate failed", map[string]any{"err": err})
			os.Exit(1)
		}
	}

	var verifier auth.AuthVerifier // nil = modo dev (headers X-Debug-*)
	if cfg.Odin.Enabled() {
		client, err := odin.NewClient(odin.Config{BaseURL: cfg.Odin.BaseURL, APIKey: cfg.Odin.APIKey})
		if err != nil {
			log.Error("odin client failed", map[string]any{"err": err})
			os.Exit(1)
		}
		verifier = odin.NewVerifier(client, log)
	} else {
		log.Warn("auth: dev mode, trusting debug headers", nil)
	}

	h, shutdownRouter := router.NewRouter(router.Options{
		Config:       cfg,
		Logger:       log,
		AuthVerifier: verifier,
		DB:           db,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info("shutting down", map[string]any{"signal": sig.String()})
	case err := <-errCh:
		log.Error("server error", map[string]any{"err": err})
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("http shutdown", map[string]any{"err": err})
	}

	// los avisos pendientes tienen su propia ventana
	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.Notify.DrainWindow)
	defer drainCancel()
	if err := shutdownRouter(drainCtx); err != nil {
		log.Warn("notifications not drained", map[string]any{"err": err})
	}

	if db != nil {
		_ = db.Close()
	}
}
