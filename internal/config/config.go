package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"carrental/internal/logger"
)

const (
	DefaultPort            = "8080"
	DefaultLogLevel        = logger.INFO
	DefaultRequestTimeout  = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxRequestSize  = 10 << 20
	DefaultReservationTTL  = 24 * time.Hour
	DefaultSweepSchedule   = "@every 15m"
	DefaultOpenAIModel     = "gpt-4o-mini"
	DefaultCurrency        = "eur"
	DefaultSenderName      = "Car Rental"
	DefaultVehicleModel    = "Peugeot 2008"
	DefaultVehicleYear     = "2019"
)

type Config struct {
	Port            string
	LogLevel        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxRequestSize  int64
	CORSOrigins     []string

	ReservationTTL time.Duration
	SweepSchedule  string
	RedisURL       string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	StripeSecretKey     string
	StripeWebhookSecret string

	EmailWebhookURL    string
	ContractWebhookURL string

	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	AdminEmail        string
	AdminPasswordHash string
	JWTSecret         string

	Vehicle Vehicle
}

// Vehicle is the fleet car described on every contract.
type Vehicle struct {
	Model           string
	Year            string
	Plate           string
	InsurancePolicy string
	OwnerName       string
}

// Load reads a .env file when present and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnvStr("PORT", DefaultPort),
		LogLevel:        getEnvStr("LOG_LEVEL", DefaultLogLevel),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", DefaultRequestTimeout),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", DefaultShutdownTimeout),
		MaxRequestSize:  int64(getEnvNum("MAX_REQUEST_SIZE", DefaultMaxRequestSize)),
		CORSOrigins:     getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		ReservationTTL: getEnvDuration("RESERVATION_TTL", DefaultReservationTTL),
		SweepSchedule:  getEnvStr("SWEEP_SCHEDULE", DefaultSweepSchedule),
		RedisURL:       getEnvStr("REDIS_URL", ""),

		OpenAIKey:     getEnvStr("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnvStr("OPENAI_BASE_URL", ""),
		OpenAIModel:   getEnvStr("OPENAI_MODEL", DefaultOpenAIModel),

		StripeSecretKey:     getEnvStr("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnvStr("STRIPE_WEBHOOK_SECRET", ""),

		EmailWebhookURL:    getEnvStr("MAKE_WEBHOOK_URL_EMAIL", ""),
		ContractWebhookURL: getEnvStr("MAKE_WEBHOOK_URL_CONTRACT", ""),

		SendGridAPIKey:    getEnvStr("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnvStr("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnvStr("SENDGRID_FROM_NAME", DefaultSenderName),

		TwilioAccountSID: getEnvStr("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnvStr("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnvStr("TWILIO_FROM_NUMBER", ""),

		AdminEmail:        getEnvStr("ADMIN_EMAIL", ""),
		AdminPasswordHash: getEnvStr("ADMIN_PASSWORD_HASH", ""),
		JWTSecret:         getEnvStr("JWT_SECRET", ""),

		Vehicle: Vehicle{
			Model:           getEnvStr("VEHICLE_MODEL", DefaultVehicleModel),
			Year:            getEnvStr("VEHICLE_YEAR", DefaultVehicleYear),
			Plate:           getEnvStr("VEHICLE_PLATE", ""),
			InsurancePolicy: getEnvStr("INSURANCE_POLICY", ""),
			OwnerName:       getEnvStr("OWNER_NAME", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if cfg.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", cfg.RequestTimeout)
	}
	if cfg.ReservationTTL <= 0 {
		return fmt.Errorf("RESERVATION_TTL must be positive, got %s", cfg.ReservationTTL)
	}
	if cfg.MaxRequestSize <= 0 {
		return fmt.Errorf("MAX_REQUEST_SIZE must be positive, got %d", cfg.MaxRequestSize)
	}
	if _, err := cron.ParseStandard(cfg.SweepSchedule); err != nil {
		return fmt.Errorf("SWEEP_SCHEDULE %q is invalid: %w", cfg.SweepSchedule, err)
	}
	return nil
}

func (cfg *Config) SendGridEnabled() bool {
	return cfg.SendGridAPIKey != "" && cfg.SendGridFromEmail != ""
}

func (cfg *Config) TwilioEnabled() bool {
	return cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioFromNumber != ""
}

func (cfg *Config) AdminEnabled() bool {
	return cfg.AdminEmail != "" && cfg.AdminPasswordHash != "" && cfg.JWTSecret != ""
}

// LogConfiguration prints the non-secret settings at startup.
func (cfg *Config) LogConfiguration(log *logger.Logger) {
	log.Info("Configuration loaded",
		"port", cfg.Port,
		"log_level", cfg.LogLevel,
		"request_timeout", cfg.RequestTimeout.String(),
		"max_request_size", cfg.MaxRequestSize,
		"reservation_ttl", cfg.ReservationTTL.String(),
		"sweep_schedule", cfg.SweepSchedule,
		"redis_store", cfg.RedisURL != "",
		"openai_model", cfg.OpenAIModel,
		"stripe_configured", cfg.StripeSecretKey != "",
		"email_webhook_configured", cfg.EmailWebhookURL != "",
		"contract_webhook_configured", cfg.ContractWebhookURL != "",
		"sendgrid_enabled", cfg.SendGridEnabled(),
		"twilio_enabled", cfg.TwilioEnabled(),
		"admin_enabled", cfg.AdminEnabled(),
	)
}

func getEnvStr(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvNum(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
