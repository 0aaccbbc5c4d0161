package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Env struct {
	AppAddr string `envconfig:"APP_ADDR" default:":8080"`
	GinMode string `envconfig:"GIN_MODE"`

	// DB
	MySQLDSN    string `envconfig:"MYSQL_DSN" required:"true"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"true"`

	// Stripe
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET" required:"true"`
	Currency            string `envconfig:"PAYMENT_CURRENCY" default:"inr"`
	MinorFactor         int64  `envconfig:"CURRENCY_MINOR_FACTOR" default:"100"`

	// Auth
	JWTSecret       string        `envconfig:"JWT_SECRET" required:"true"`
	RoomTokenSecret string        `envconfig:"ROOM_TOKEN_SECRET"`
	RoomTokenTTL    time.Duration `envconfig:"ROOM_TOKEN_TTL" default:"2h"`

	// Completion sweep
	SweepInterval    time.Duration `envconfig:"SWEEP_INTERVAL" default:"5m"`
	CompletionBuffer time.Duration `envconfig:"COMPLETION_BUFFER" default:"5m"`

	// RabbitMQ, optional
	RabbitURL       string `envconfig:"RABBIT_URL"`
	BookingExchange string `envconfig:"BOOKING_EXCHANGE" default:"booking.exchange"`

	// HTTP
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	RateLimitRPS       float64  `envconfig:"RATE_LIMIT_RPS" default:"10"`
	RateLimitBurst     int      `envconfig:"RATE_LIMIT_BURST" default:"20"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadEnv reads process environment into Env.
func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return Env{}, err
	}
	env.GinMode = strings.TrimSpace(env.GinMode)
	if env.RoomTokenSecret == "" {
		env.RoomTokenSecret = env.JWTSecret
	}
	if env.MinorFactor <= 0 {
		env.MinorFactor = 100
	}
	return env, nil
}
