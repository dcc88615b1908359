package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/doorlist/doorlist/internal/handlers"
	appmw "github.com/doorlist/doorlist/internal/middleware"
	"github.com/doorlist/doorlist/internal/platform/mailer"
	"github.com/doorlist/doorlist/internal/repository"
	"github.com/doorlist/doorlist/internal/service"
	"github.com/doorlist/doorlist/pkg/config"
	"github.com/doorlist/doorlist/pkg/database"
	"github.com/doorlist/doorlist/pkg/events"
	"github.com/doorlist/doorlist/pkg/logger"
	pkgmw "github.com/doorlist/doorlist/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Error("Invalid redis url", "error", err)
			os.Exit(1)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, rate limiting disabled", "error", err)
			rdb = nil
		}
	}

	var eventBus events.EventBus
	if bus, err := events.NewNATSEventBus(cfg.NATS.URL); err != nil {
		logger.Warn("NATS unavailable, domain events disabled", "error", err)
		eventBus = events.NoopEventBus{}
	} else {
		eventBus = bus
	}
	defer eventBus.Close()

	mail := buildMailer(cfg)

	stripeClient := &client.API{}
	stripeClient.Init(cfg.Stripe.SecretKey, nil)

	// repositories
	userRepo := repository.NewUserRepository(pool)
	orgRepo := repository.NewOrganizationRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	guestRepo := repository.NewGuestRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	idempotencyRepo := repository.NewIdempotencyRepository(pool)

	// services
	authSvc := service.NewAuthService(userRepo, cfg)
	orgSvc := service.NewOrganizationService(orgRepo, userRepo)
	eventSvc := service.NewEventService(eventRepo, guestRepo, orgRepo, eventBus)
	registrationSvc := service.NewRegistrationService(eventRepo, guestRepo, idempotencyRepo, eventBus, mail)
	checkinSvc := service.NewCheckinService(eventRepo, guestRepo, eventBus)
	orderSvc := service.NewOrderService(orderRepo, eventRepo, guestRepo, stripeClient, eventBus, mail)

	// handlers
	authHandler := handlers.NewAuthHandler(authSvc, cfg.Auth.JWTSecret)
	orgHandler := handlers.NewOrganizationHandler(orgSvc, eventSvc)
	eventHandler := handlers.NewEventHandler(eventSvc)
	registrationHandler := handlers.NewRegistrationHandler(registrationSvc)
	checkinHandler := handlers.NewCheckinHandler(checkinSvc, eventSvc)
	orderHandler := handlers.NewOrderHandler(orderSvc, cfg.Stripe.WebhookSecret)

	publicLimiter := appmw.NewRateLimiter(rdb, appmw.RateLimitConfig{
		Requests: cfg.RateLimit.Requests,
		Window:   cfg.RateLimit.Window,
	})

	r := chi.NewRouter()
	r.Use(pkgmw.RequestID)
	r.Use(pkgmw.ServiceName("doorlist-api"))
	r.Use(pkgmw.Logging)
	r.Use(pkgmw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/v1", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes())

		r.Group(func(r chi.Router) {
			r.Use(appmw.RequireJWT(cfg.Auth.JWTSecret))
			r.Mount("/orgs", orgHandler.Routes())
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", eventHandler.ListActive)
			r.Get("/{eventID}", eventHandler.GetPublic)
			r.Get("/{eventID}/guest-count", checkinHandler.GuestCount)

			r.Group(func(r chi.Router) {
				r.Use(publicLimiter.Middleware())
				r.Post("/{eventID}/register", registrationHandler.Register)
				r.Post("/{eventID}/orders", orderHandler.Create)
			})

			r.Group(func(r chi.Router) {
				r.Use(appmw.RequireJWT(cfg.Auth.JWTSecret))
				r.Patch("/{eventID}", eventHandler.Update)
				r.Delete("/{eventID}", eventHandler.Archive)
				r.Get("/{eventID}/guests", eventHandler.ListGuests)
				r.Post("/{eventID}/guests/{guestID}/approve", eventHandler.ApproveGuest)
				r.With(publicLimiter.Middleware()).Post("/{eventID}/checkin", checkinHandler.CheckIn)
			})
		})

		r.Post("/webhooks/stripe", orderHandler.Webhook)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Starting doorlist api", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
}

func buildMailer(cfg *config.Config) mailer.Service {
	switch {
	case cfg.Email.DevMode:
		return mailer.NewDevMailer()
	case cfg.Email.MailerSendKey != "":
		return mailer.NewMailer(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.SMTPFrom)
	default:
		return mailer.NewSMTPMailer(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPFrom,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPass,
			cfg.Email.SMTPUseTLS,
		)
	}
}
