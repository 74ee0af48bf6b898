package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"carrental/internal/api"
	"carrental/internal/auth"
	"carrental/internal/config"
	"carrental/internal/logger"
	"carrental/internal/metrics"
	"carrental/internal/middleware"
	"carrental/internal/repository"
	"carrental/internal/service"
)

const sweepTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{}).Fatal("Invalid configuration", "error", err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Service: "carrental"})
	cfg.LogConfiguration(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := newReservationRepository(ctx, cfg, log)

	openaiClient := service.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIBaseURL)
	pricingService := service.NewPricingService(openaiClient, cfg.OpenAIModel, log, m)
	licenseService := service.NewLicenseService(openaiClient, cfg.OpenAIModel, log, m)
	stripeService := service.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret)

	contractService, err := service.NewContractService(cfg.Vehicle, nil)
	if err != nil {
		log.Fatal("Failed to load contract template", "error", err)
	}
	senderService, err := service.NewSenderService(cfg.Vehicle.Model)
	if err != nil {
		log.Fatal("Failed to load email template", "error", err)
	}

	webhookClient := &http.Client{Timeout: cfg.RequestTimeout}
	notifiers := []service.Notifier{
		service.NewEmailWebhook(webhookClient, cfg.EmailWebhookURL),
		service.NewContractWebhook(webhookClient, cfg.ContractWebhookURL),
	}
	if cfg.SendGridEnabled() {
		notifiers = append(notifiers, service.NewSendGridMailer(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridFromName, senderService))
	}
	if cfg.TwilioEnabled() {
		notifiers = append(notifiers, service.NewTwilioSMS(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, senderService))
	}
	dispatcher := service.NewNotificationDispatcher(log, m, notifiers...)

	reservationService := service.NewReservationService(
		repo,
		service.NewReservationValidator(),
		contractService,
		dispatcher,
		stripeService,
		log,
		m,
	)
	jobService := service.NewJobService(repo, log, m)
	adminService := service.NewAdminService(reservationService, jobService)
	adminAuthService := service.NewAdminAuthService(
		repository.NewAdminAuthRepository(cfg.AdminEmail, cfg.AdminPasswordHash),
		cfg.JWTSecret,
	)

	userReservationHandler := api.NewUserReservationHandler(reservationService, pricingService, licenseService, log, cfg.MaxRequestSize)
	stripeWebhookHandler := api.NewStripeWebhookHandler(stripeService, reservationService, log)
	adminHandler := api.NewAdminHandler(adminService, log)
	adminAuthHandler := api.NewAdminAuthHandler(adminAuthService, log)

	r := mux.NewRouter()
	r.Use(
		middleware.RequestLogging(log, m),
		middleware.Recovery(log),
		middleware.ExecutionBudget(cfg.RequestTimeout),
		middleware.MaxRequestSize(cfg.MaxRequestSize),
	)

	r.HandleFunc("/health", api.Health).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods("GET")

	// Public endpoints
	r.HandleFunc("/api/calculate-price", userReservationHandler.CalculatePrice).Methods("POST")
	r.HandleFunc("/api/verify-license", userReservationHandler.VerifyLicense).Methods("POST")
	r.HandleFunc("/api/reservations", userReservationHandler.SubmitReservation).Methods("POST")
	r.HandleFunc("/api/payment-intents", userReservationHandler.CreatePaymentIntent).Methods("POST")
	r.HandleFunc("/api/webhooks/stripe", stripeWebhookHandler.HandleWebhook).Methods("POST")

	r.HandleFunc("/admin/login", adminAuthHandler.Login).Methods("POST")

	// Admin endpoints (protected)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.AdminAuthMiddleware(cfg.JWTSecret))
	admin.HandleFunc("/users", adminAuthHandler.CreateUserAdmin).Methods("POST")
	admin.HandleFunc("/reservations/{id}", adminHandler.GetReservation).Methods("GET")
	admin.HandleFunc("/reservations/{id}", adminHandler.AdminDeleteReservation).Methods("DELETE")
	admin.HandleFunc("/sweep", adminHandler.Sweep).Methods("POST")

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.SweepSchedule, func() {
		sweepCtx, cancel := context.WithTimeout(ctx, sweepTimeout)
		defer cancel()
		if _, err := jobService.SweepExpiredReservations(sweepCtx); err != nil {
			log.Error("Scheduled sweep failed", "error", err)
		}
	}); err != nil {
		log.Fatal("Failed to schedule sweep", "error", err)
	}
	scheduler.Start()

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "Stripe-Signature"}),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           cors(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server running", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
}

func newReservationRepository(ctx context.Context, cfg *config.Config, log *logger.Logger) repository.ReservationRepository {
	if cfg.RedisURL == "" {
		log.Info("Using in-memory reservation store", "ttl", cfg.ReservationTTL.String())
		return repository.NewMemoryReservationRepository(cfg.ReservationTTL, nil)
	}

	client, err := repository.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to connect to redis", "error", err)
	}
	log.Info("Using redis reservation store", "ttl", cfg.ReservationTTL.String())
	return repository.NewRedisReservationRepository(client, cfg.ReservationTTL)
}
