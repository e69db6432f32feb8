/**
 * @description
 * This is the main entry point for the payments-service. Its responsibility
 * is to initialize all necessary components and start the HTTP server and the
 * scheduled payout-status sweep.
 *
 * Key features:
 * - Loads application configuration from environment variables.
 * - Establishes and manages a connection pool to the PostgreSQL database.
 * - Initializes clients for external services (payment, identity, email).
 * - Wires up the core application logic with its dependencies.
 * - Starts the HTTP server and implements graceful shutdown.
 *
 * @dependencies
 * - The service's internal packages for config, app logic, storage, and external clients.
 * - pgxpool for database connection, godotenv for local config, cron for the
 *   status sweep, and the optional RabbitMQ/Redis integrations.
 */
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/cabinly/payments-service/internal/api"
	"github.com/cabinly/payments-service/internal/app"
	"github.com/cabinly/payments-service/internal/config"
	"github.com/cabinly/payments-service/internal/store"
	"github.com/cabinly/payments-service/pkg/authclient"
	"github.com/cabinly/payments-service/pkg/emailclient"
	"github.com/cabinly/payments-service/pkg/middleware"
	"github.com/cabinly/payments-service/pkg/rabbitmq"
	"github.com/cabinly/payments-service/pkg/stripeclient"
)

// introspectorAdapter bridges the identity provider client to the auth
// middleware's interface.
type introspectorAdapter struct {
	client *authclient.Client
}

func (a introspectorAdapter) IntrospectToken(ctx context.Context, token string) (*middleware.Identity, error) {
	identity, err := a.client.IntrospectToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return &middleware.Identity{UserID: identity.UserID, Email: identity.Email}, nil
}

func main() {
	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load application configuration.
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	// Establish database connection pool.
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database URL: %v\n", err)
	}
	dbConfig.MaxConns = 50
	dbConfig.MinConns = 5
	dbConfig.MaxConnLifetime = 30 * time.Minute
	dbConfig.MaxConnIdleTime = 5 * time.Minute
	// Disable prepared statement caching to prevent conflicts behind poolers
	dbConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer dbpool.Close()
	log.Println("Database connection established")

	// Set up repositories.
	payoutRepo := store.NewPostgresPayoutAccountRepository(dbpool)
	bookingRepo := store.NewPostgresBookingRepository(dbpool)
	listingRepo := store.NewPostgresListingRepository(dbpool)
	roleRepo := store.NewPostgresRoleRepository(dbpool)

	// External providers.
	paymentProvider := stripeclient.NewClient(cfg.StripeSecretKey, cfg.StripeAccountCountry)
	mailer := emailclient.NewClient(cfg.ResendAPIBaseURL, cfg.ResendAPIKey, cfg.EmailFromAddress)

	// Event producer is best-effort: fall back to a no-op publisher when the
	// broker is unreachable or not configured.
	var publisher rabbitmq.Publisher
	if cfg.RabbitMQURL != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
		if err != nil {
			log.Printf("Failed to connect to RabbitMQ, using fallback publisher: %v", err)
			publisher = &rabbitmq.EventProducerFallback{}
		} else {
			publisher = producer
		}
	} else {
		publisher = &rabbitmq.EventProducerFallback{}
	}
	defer publisher.Close()

	// Optional Redis-backed rate limiting for onboarding.
	var limiter *app.RedisOnboardingRateLimiter
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Printf("Invalid REDIS_URL, onboarding rate limiting disabled: %v", err)
		} else {
			limiter = app.NewRedisOnboardingRateLimiter(redis.NewClient(opts), "cabinly:rate_limit")
		}
	}

	// Setup services.
	payoutService := app.NewPayoutService(payoutRepo, paymentProvider, publisher, cfg.PublicBaseURL)
	paymentService := app.NewPaymentService(bookingRepo, paymentProvider, publisher)
	notificationService, err := app.NewNotificationService(mailer, roleRepo, app.NotificationConfig{
		AdminEmail: cfg.AdminEmail,
	})
	if err != nil {
		log.Fatalf("cannot build notification service: %v", err)
	}

	// Authentication: local JWT verification when the shared secret is set,
	// token introspection against the identity provider otherwise.
	identityClient := authclient.NewClient(cfg.AuthBaseURL, cfg.AuthServiceKey)
	authenticator := middleware.NewAuthenticator(cfg.AuthJWTSecret, introspectorAdapter{client: identityClient})

	// Start the periodic payout-status sweep.
	scheduler := app.NewScheduler(app.NewJobs(payoutRepo, payoutService), cfg.StatusRefreshSchedule)
	scheduler.Start()

	// Setup and start HTTP server.
	router := api.NewRouter(authenticator, api.Handlers{
		Payout:       api.NewPayoutHandler(payoutService, limiter),
		Payment:      api.NewPaymentHandler(paymentService),
		Notification: api.NewNotificationHandler(notificationService),
		Sitemap:      api.NewSitemapHandler(listingRepo, cfg.PublicBaseURL),
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %s\n", err)
		}
	}()

	log.Println("Payments service is running.")

	// Wait for termination signal for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down payments-service...")

	<-scheduler.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
