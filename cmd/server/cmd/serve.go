package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"eventrsvp/config"
	_ "eventrsvp/docs"
	"eventrsvp/internal/adapters/auth"
	"eventrsvp/internal/adapters/email"
	"eventrsvp/internal/adapters/geocoding"
	"eventrsvp/internal/adapters/mailchimp"
	deliveryhttp "eventrsvp/internal/delivery/http"
	"eventrsvp/internal/delivery/http/controllers"
	"eventrsvp/internal/delivery/http/helpers"
	"eventrsvp/internal/delivery/http/middleware"
	"eventrsvp/internal/domain"
	"eventrsvp/internal/repository/postgres"
	"eventrsvp/internal/services"
)

const sessionCleanupInterval = time.Hour

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables
- Apply pending migrations when MIGRATE_ON_START is true
- Purge expired sessions every hour
- Handle graceful shutdown on SIGINT/SIGTERM`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "server port (default: $PORT or 3000)")
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)
	logger.Info("starting server", "env", cfg.Environment, "rsvp_mode", cfg.RSVPMode)

	if cfg.MigrateOnStart {
		if err := postgres.MigrateUp(cfg.DBUrl); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := postgres.Open(ctx, cfg.DBUrl)
	cancel()
	if err != nil {
		return err
	}
	defer db.Close()

	handler, sessionRepo, limiter, err := buildHandler(cfg, db, logger)
	if err != nil {
		return err
	}
	defer limiter.Stop()

	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	go purgeExpiredSessions(cleanupCtx, sessionRepo, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
		}
	}()

	return gracefulShutdown(server, logger)
}

func buildHandler(cfg *config.Config, db *sql.DB, logger *slog.Logger) (http.Handler, domain.SessionRepository, *middleware.IPRateLimiter, error) {
	userRepo := postgres.NewUserRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	rsvpRepo := postgres.NewRSVPRepository(db)
	invitationRepo := postgres.NewInvitationRepository(db)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:          cfg.Email.AWSRegion,
			AccessKeyID:     cfg.Email.AWSAccessKeyID,
			SecretAccessKey: cfg.Email.AWSSecretAccessKey,
		},
	}, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("mailer: %w", err)
	}
	renderer := email.NewTemplateRenderer()

	var geocoder domain.ReverseGeocoder
	if cfg.Geocoding.APIKey != "" {
		geocoder = geocoding.NewClient(cfg.Geocoding.APIKey)
	} else {
		logger.Warn("GOOGLE_MAPS_API_KEY not set, location lookup disabled")
	}
	if cfg.Mailchimp.APIKey == "" || cfg.Mailchimp.ListID == "" {
		logger.Warn("Mailchimp is not fully configured, invitations will fail")
	}
	mailingList := mailchimp.NewClient(cfg.Mailchimp.APIKey, cfg.Mailchimp.ServerPrefix, cfg.Mailchimp.ListID)

	authService := services.NewAuthService(
		userRepo,
		sessionRepo,
		auth.NewBcryptHasher(auth.DefaultCost),
		services.NewEmailService(mailer, renderer, logger),
		logger,
		cfg.ServiceTimeout,
	)
	eventService := services.NewEventService(eventRepo, services.NewLocationResolver(geocoder, logger), logger, cfg.ServiceTimeout)
	rsvpService := services.NewRSVPService(rsvpRepo, eventRepo, domain.RSVPMode(cfg.RSVPMode), cfg.ServiceTimeout)
	invitationService := services.NewInvitationService(
		eventRepo,
		invitationRepo,
		mailingList,
		renderer,
		services.InvitationConfig{
			AppBaseURL: cfg.AppBaseURL,
			FromName:   cfg.Mailchimp.FromName,
			ReplyTo:    cfg.Mailchimp.ReplyTo,
		},
		logger,
		cfg.ServiceTimeout,
	)

	sessions := middleware.NewSessionAuth(
		authService,
		auth.NewJWTSessionCodec(cfg.SessionSecret),
		middleware.CookieConfig{Domain: cfg.CookieDomain, Secure: cfg.IsProduction()},
		logger,
	)
	proxies, err := helpers.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	limiter := middleware.NewIPRateLimiter(cfg.LoginRatePerMinute, proxies)

	handler := deliveryhttp.NewRouter(deliveryhttp.RouterDeps{
		Logger:         logger,
		DB:             db,
		Sessions:       sessions,
		LoginLimiter:   limiter,
		AllowedOrigins: cfg.AllowedOrigins,
		Auth:           controllers.NewAuthController(logger, authService, sessions),
		Events:         controllers.NewEventController(logger, eventService),
		RSVPs:          controllers.NewRSVPController(logger, rsvpService),
		Invitations:    controllers.NewInvitationController(logger, invitationService),
	})
	return handler, sessionRepo, limiter, nil
}

func purgeExpiredSessions(ctx context.Context, repo domain.SessionRepository, logger *slog.Logger) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := repo.DeleteExpired(ctx, now)
			if err != nil {
				logger.ErrorContext(ctx, "session cleanup failed", "err", err)
				continue
			}
			if n > 0 {
				logger.InfoContext(ctx, "expired sessions purged", "count", n)
			}
		}
	}
}

func gracefulShutdown(server *http.Server, logger *slog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
