// cmd/server/main.go
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
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/truckzone/truckzone-backend/internal/config"
	"github.com/truckzone/truckzone-backend/internal/database"
	"github.com/truckzone/truckzone-backend/internal/i18n"
	"github.com/truckzone/truckzone-backend/internal/middleware"
	"github.com/truckzone/truckzone-backend/internal/router"
	"github.com/truckzone/truckzone-backend/internal/services"
	"github.com/truckzone/truckzone-backend/pkg/rabbitmq"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "truckzone",
		Short:   "TruckZone marketplace API server",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(true)
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "Run database migrations before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(database.RunMigrations)
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the category and brand lookups",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(db *gorm.DB) error {
				if err := database.RunMigrations(db); err != nil {
					return err
				}
				return database.SeedInitialData(db)
			})
		},
	}
}

func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	configureLogging(cfg)
	return cfg, nil
}

func configureLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Log.Format == "json" || cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func withDatabase(fn func(*gorm.DB) error) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(db)

	return fn(db)
}

func runServe(migrate bool) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if migrate {
		if err := database.RunMigrations(db); err != nil {
			return err
		}
	}

	// Initialize i18n
	if err := i18n.Initialize(cfg.I18n.DefaultLocale); err != nil {
		return fmt.Errorf("failed to initialize i18n: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := router.Dependencies{
		DB:        db,
		Config:    cfg,
		Publisher: services.NoopPublisher{},
		Limiters:  middleware.NewLimiters(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		Logger:    logrus.StandardLogger(),
	}
	deps.Limiters.Run(ctx)

	if cfg.Payment.StripeSecretKey != "" {
		deps.Gateway = services.NewStripeGateway(cfg.Payment.StripeSecretKey)
	} else {
		logrus.Warn("STRIPE_SECRET_KEY not set; payment intents are disabled")
	}

	storage, err := services.NewStorageService(cfg.AWS)
	if err != nil {
		return err
	}
	deps.Storage = storage

	if cfg.Broker.URL != "" {
		broker, err := rabbitmq.NewClient(cfg.Broker.URL, cfg.Broker.Exchange)
		if err != nil {
			return err
		}
		defer broker.Close()
		deps.Publisher = broker
		logrus.WithField("exchange", cfg.Broker.Exchange).Info("Publishing events to RabbitMQ")
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router.Initialize(deps),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logrus.Info("Server exited")
	return nil
}
