package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"villa-portal-service/internal/domain/repository"
	"villa-portal-service/internal/infrastructure/config"
	"villa-portal-service/internal/infrastructure/oauth"
	"villa-portal-service/internal/infrastructure/persistence"
	"villa-portal-service/internal/infrastructure/router"
	"villa-portal-service/internal/infrastructure/scheduler"
	"villa-portal-service/internal/interface/calendar"
	"villa-portal-service/internal/interface/gmail"
	"villa-portal-service/internal/interface/handler"
	mongoRepo "villa-portal-service/internal/interface/repository"
	"villa-portal-service/internal/usecase"
	"villa-portal-service/pkg/auth"
	"villa-portal-service/pkg/clock"
	"villa-portal-service/pkg/logger"
	"villa-portal-service/pkg/metrics"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const jobTimeout = 2 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger("info").Fatal("Failed to load config", "error", err)
	}

	// Create logger
	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()
	log.Info("Starting Villa Portal Service", "version", cfg.AppVersion)

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", "error", err)
	}
	location, _ := cfg.Location()

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up MongoDB connection
	log.Info("Connecting to MongoDB")
	mongoClient, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoUser, cfg.MongoPassword)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}
	db := persistence.GetDatabase(mongoClient, cfg.MongoDB)

	// Optional feed cache
	var redisClient *redis.Client
	var feedCache repository.FeedCacheRepository
	if cfg.RedisURL != "" {
		redisClient, err = persistence.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("Redis unavailable, calendar feed cache disabled", "error", err)
		} else {
			feedCache = mongoRepo.NewRedisFeedCacheRepository(redisClient)
		}
	}

	// Optional event bus
	var natsConn *nats.Conn
	publisher := mongoRepo.NewLogEventPublisher(log)
	if cfg.NATSURL != "" {
		natsConn, err = persistence.NewNATSConn(cfg.NATSURL, "villa-portal-service")
		if err != nil {
			log.Warn("NATS unavailable, events will only be logged", "error", err)
		} else {
			publisher = mongoRepo.NewNATSEventPublisher(natsConn, log)
		}
	}

	mailRepo, err := newMailRepository(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to set up mail transport", "error", err)
	}

	// Set up repositories
	reservationRepo := mongoRepo.NewMongoReservationRepository(db)
	preRegistrationRepo := mongoRepo.NewMongoPreRegistrationRepository(db)
	userRepo := mongoRepo.NewMongoUserRepository(db)
	propertyRepo := mongoRepo.NewMongoPropertyRepository(db)

	seedProperty(ctx, cfg, propertyRepo, log)

	appMetrics := metrics.NewMetrics("villa_portal")
	systemClock := clock.System()
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)

	// Set up use cases
	reconciler := usecase.NewReservationReconciler(reservationRepo, preRegistrationRepo, userRepo, publisher, systemClock, location, appMetrics, log)
	reservationService := usecase.NewReservationService(reservationRepo, userRepo, propertyRepo, reconciler, publisher, cfg.PropertySlug, log)
	calendarService := usecase.NewCalendarService(propertyRepo, reservationRepo, feedCache,
		calendar.NewFetcher(nil, log), systemClock, location, cfg.FeedCacheTTL, cfg.PropertySlug, appMetrics, log)
	onboardingService := usecase.NewGuestOnboardingService(preRegistrationRepo, userRepo, reservationRepo, propertyRepo,
		mailRepo, reconciler, systemClock,
		usecase.OnboardingOptions{
			PublicBaseURL:   cfg.PublicBaseURL,
			PropertySlug:    cfg.PropertySlug,
			InviteTTL:       cfg.InviteTTL,
			VerificationTTL: cfg.VerificationTTL,
		},
		appMetrics, log)
	authService := usecase.NewAuthService(userRepo, issuer, log)

	// Scheduled jobs
	jobs := scheduler.NewScheduler(ctx, location, jobTimeout, appMetrics, log)
	for _, job := range []scheduler.Job{
		{Name: "reconcile", Spec: cfg.ReconcileCron, Run: func(ctx context.Context) error {
			_, err := reconciler.Reconcile(ctx)
			return err
		}},
		{Name: "feed_warm", Spec: cfg.FeedWarmCron, Run: calendarService.Warm},
	} {
		if err := jobs.Add(job); err != nil {
			log.Fatal("Failed to schedule job", "error", err)
		}
	}
	jobs.Start()

	// Catch up on transitions missed while the service was down
	if _, err := reconciler.Reconcile(ctx); err != nil {
		log.Error("Start-up reconciliation failed", "error", err)
	}

	// Set up HTTP server
	handlers := handler.New(calendarService, reservationService, onboardingService, authService, log)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.NewRouter(handlers, issuer, cfg.CORSOrigins, prometheus.DefaultGatherer, log),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}
	jobs.Stop(shutdownCtx)

	cancel() // Cancel the context to stop all goroutines

	if natsConn != nil {
		if err := natsConn.Drain(); err != nil {
			log.Error("NATS drain error", "error", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Redis close error", "error", err)
		}
	}

	// Disconnect from MongoDB
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error("MongoDB disconnect error", "error", err)
	}

	log.Info("Service stopped")
}

func newMailRepository(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.MailRepository, error) {
	switch cfg.MailProvider {
	case config.MailProviderMailerSend:
		log.Info("Using MailerSend mail transport")
		return mongoRepo.NewMailerSendRepository(cfg.MailerSendAPIKey, cfg.MailFromName, cfg.MailFromEmail), nil
	case config.MailProviderGmail:
		log.Info("Using Gmail mail transport")
		gmailOAuth := oauth.NewGmailOAuth(cfg.GmailClientID, cfg.GmailClientSecret, cfg.GmailRefreshToken, log)
		return gmail.NewGmailService(ctx, gmailOAuth.GetTokenSource(ctx), cfg.MailFromName, cfg.MailFromEmail, log)
	default:
		log.Warn("Using dev mail transport, emails are only logged")
		return mongoRepo.NewDevMailRepository(log), nil
	}
}

func seedProperty(ctx context.Context, cfg *config.Config, propertyRepo repository.PropertyRepository, log logger.Logger) {
	property, err := config.LoadPropertySeed(cfg.PropertySeedFile, cfg.PropertySlug, cfg.Timezone)
	if err != nil {
		log.Fatal("Failed to load property seed", "error", err)
	}
	if property == nil {
		return
	}
	if err := propertyRepo.Upsert(ctx, property); err != nil {
		log.Fatal("Failed to seed property", "slug", property.Slug, "error", err)
	}
	log.Info("Property seeded", "slug", property.Slug, "hasCalendarURL", property.CalendarURL != "")
}
