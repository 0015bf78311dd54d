package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kneecare/kneecare/internal/config"
	"github.com/kneecare/kneecare/internal/domain/analysis"
	"github.com/kneecare/kneecare/internal/domain/appointment"
	"github.com/kneecare/kneecare/internal/domain/availability"
	"github.com/kneecare/kneecare/internal/domain/community"
	"github.com/kneecare/kneecare/internal/domain/identity"
	"github.com/kneecare/kneecare/internal/domain/messaging"
	"github.com/kneecare/kneecare/internal/platform/auth"
	"github.com/kneecare/kneecare/internal/platform/db"
	"github.com/kneecare/kneecare/internal/platform/imagestore"
	"github.com/kneecare/kneecare/internal/platform/middleware"
	"github.com/kneecare/kneecare/internal/platform/notification"
	"github.com/kneecare/kneecare/internal/platform/scorer"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kneecare-server",
		Short: "Knee care appointment and X-ray analysis API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s).\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status, appliedAt := "pending", ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

// contactLookup adapts the identity service to the notification
// dispatcher's contact resolution interface.
type contactLookup struct {
	identitySvc *identity.Service
}

func (l *contactLookup) PatientContact(ctx context.Context, id uuid.UUID) (string, string, error) {
	p, err := l.identitySvc.GetPatient(ctx, id)
	if err != nil {
		return "", "", err
	}
	email := ""
	if p.Email != nil {
		email = *p.Email
	}
	return p.FullName, email, nil
}

func (l *contactLookup) DoctorName(ctx context.Context, id uuid.UUID) (string, error) {
	d, err := l.identitySvc.GetDoctor(ctx, id)
	if err != nil {
		return "", err
	}
	return d.FullName, nil
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid clinic timezone")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			SigningKey: []byte(cfg.JWTSecret),
		}))
	}

	e.GET("/health", db.HealthHandler(pool))

	api := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateLimitCfg))
	api.Use(middleware.RequestTimeout(30 * time.Second))

	// Identity
	identitySvc := identity.NewService(identity.NewPatientRepoPG(pool), identity.NewDoctorRepoPG(pool))
	identity.NewHandler(identitySvc).RegisterRoutes(api)

	// Availability
	availabilitySvc := availability.NewService(availability.NewRepoPG(pool))
	availability.NewHandler(availabilitySvc).RegisterRoutes(api)

	// Notifications
	manager := notification.NewManager(notification.LogEmailSender{}, notification.LogSMSSender{}, notification.NewTemplateEngine())
	dispatcher := notification.NewDispatcher(manager, &contactLookup{identitySvc: identitySvc})

	// Appointments
	appointmentSvc := appointment.NewService(appointment.NewRepoPG(pool), availabilitySvc, dispatcher, loc)
	appointment.NewHandler(appointmentSvc).RegisterRoutes(api)

	// X-ray analysis
	scorerClient := scorer.NewClient(cfg.ScorerURL, time.Duration(cfg.ScorerTimeout)*time.Second)
	analysisSvc := analysis.NewService(analysis.NewRepoPG(pool), imagestore.NewMemoryStore(), scorerClient)
	analysis.NewHandler(analysisSvc).RegisterRoutes(api)

	// Community
	communitySvc := community.NewService(community.NewRepoPG(pool))
	community.NewHandler(communitySvc).RegisterRoutes(api)

	// Messaging
	messagingSvc := messaging.NewService(messaging.NewRepoPG(pool))
	messaging.NewHandler(messagingSvc).RegisterRoutes(api)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
