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

	"homestate/internal/handlers"
	"homestate/internal/logger"
	"homestate/internal/metrics"
	"homestate/internal/notifier"
	"homestate/internal/repository"
	"homestate/internal/server"
	"homestate/internal/service"
	"homestate/internal/store"

	"github.com/spf13/viper"
)

func main() {
	// load config.yml, then init the logger with the configured level
	cfgErr := loadConfig()
	log := logger.Get(viper.GetString("log.level"))
	if cfgErr != nil {
		log.Fatalw("error reading config", "err", cfgErr)
	}

	// open DB (event log, users, and the shared state document)
	sqlDB, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	// metrics are optional: an empty address disables emission
	metrics.Init(viper.GetString("metrics.statsd_addr"), viper.GetString("metrics.namespace"), log)
	defer metrics.Close()

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	st := store.NewSQLite(sqlDB)
	nf := notifier.New(st, service.StatePath, log)
	services := service.NewService(st, repos, nf, log, serviceConfig(log))
	apiHandler := handlers.NewHandler(services, nf, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// seed the shared document before anything reads or watches it
	if err := services.Control.Bootstrap(ctx); err != nil {
		log.Fatalw("failed to seed shared state", "err", err)
	}

	// start the document watch, the timer reconciler, and the presence sweep
	go nf.Run(ctx)
	go services.Timers.Run(ctx)
	go services.Presence.Run(ctx)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "homestate.db")
		dbPath = "homestate.db"
	}
	return repository.InitDB(dbPath)
}

// serviceConfig collects the service tunables from configuration.
func serviceConfig(log *logger.Logger) service.Config {
	signingKey := viper.GetString("auth.signing_key")
	if signingKey == "" {
		log.Fatalw("auth.signing_key must be set in config")
	}
	return service.Config{
		SigningKey:      signingKey,
		TokenTTL:        viper.GetDuration("auth.token_ttl"),
		PresenceTimeout: viper.GetDuration("presence.timeout"),
		PresenceSweep:   viper.GetDuration("presence.sweep"),
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
