package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config reads a single key, loading .env on first use the way the rest of
// the platform does.
func Config(key string) string {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("Warning: .env file not found, reading from system environment variables")
	}

	return os.Getenv(key)
}

// EngineConfig holds the booking engine tunables. Everything with an
// env-default is policy, not a constant; production tuning owns the values.
type EngineConfig struct {
	DatabaseURL string `env:"DATABASE_URL"`
	JWTSecret   string `env:"JWT_SECRET"`
	ListenAddr  string `env:"LISTEN_ADDR" env-default:":8080"`

	// HoldTTL bounds both slot starvation from abandoned checkouts and the
	// wait for an asynchronous payment confirmation.
	HoldTTL time.Duration `env:"HOLD_TTL" env-default:"10m"`

	GatewayBaseURL  string        `env:"PAYMENT_GATEWAY_URL"`
	GatewayAPIKey   string        `env:"PAYMENT_GATEWAY_API_KEY"`
	GatewayProvider string        `env:"PAYMENT_GATEWAY_PROVIDER" env-default:"gateway"`
	CaptureAttempts uint          `env:"CAPTURE_ATTEMPTS" env-default:"3"`
	CaptureDelay    time.Duration `env:"CAPTURE_RETRY_DELAY" env-default:"200ms"`

	ExchangeRateAPIKey string        `env:"EXCHANGE_RATE_API_KEY"`
	RatesCacheTTL      time.Duration `env:"RATES_CACHE_TTL" env-default:"6h"`

	AMQPURL       string `env:"AMQP_URL"`
	EventExchange string `env:"EVENT_EXCHANGE" env-default:"booking.events"`

	MetricsAddr string `env:"METRICS_ADDR" env-default:":9091"`
}

func LoadEngineConfig() (cfg EngineConfig, err error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: .env file not found, reading from system environment variables")
	}

	err = cleanenv.ReadEnv(&cfg)
	return cfg, err
}
