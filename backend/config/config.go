package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env        string
	ServerPort string
	LogMode    string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// HS256 secret for session tokens; used when SessionPublicKey is empty.
	JWTSecret string
	// PEM-encoded RSA key published by the identity provider.
	SessionPublicKey string
	SessionIssuer    string
	ClerkSecretKey   string
	ClerkAPIURL      string

	StripeSecretKey string
	Currency        string
	VerifyPayments  bool

	GCSBucket      string
	CDNDomain      string
	UploadURLTTL   time.Duration
	GCSCredentials string

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	TracingEnabled  bool
	TracingEndpoint string
	TracingRatio    float64

	RequestTimeout    time.Duration
	ReconcileInterval time.Duration
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	return &Config{
		Env:        getEnv("APP_ENV", "development"),
		ServerPort: getEnv("SERVER_PORT", "8001"),
		LogMode:    getEnv("LOG_MODE", "development"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "course_marketplace"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", "secret"),
		SessionPublicKey: getEnv("CLERK_JWT_KEY", ""),
		SessionIssuer:    getEnv("CLERK_ISSUER", ""),
		ClerkSecretKey:   getEnv("CLERK_SECRET_KEY", ""),
		ClerkAPIURL:      getEnv("CLERK_API_URL", "https://api.clerk.com"),

		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		Currency:        getEnv("PAYMENT_CURRENCY", "usd"),
		VerifyPayments:  getEnvBool("PAYMENT_VERIFY", false),

		GCSBucket:      getEnv("GCS_BUCKET_NAME", ""),
		CDNDomain:      getEnv("CDN_DOMAIN", ""),
		UploadURLTTL:   getEnvDuration("UPLOAD_URL_TTL", time.Minute),
		GCSCredentials: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CacheTTL:      getEnvDuration("COURSE_CACHE_TTL", 5*time.Minute),

		TracingEnabled:  getEnvBool("OTEL_ENABLED", false),
		TracingEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		TracingRatio:    getEnvFloat("OTEL_SAMPLER_RATIO", 0.1),

		RequestTimeout:    getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL", 0),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	raw := strings.TrimSpace(strings.ToLower(getEnv(key, "")))
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// getEnvDuration accepts Go durations ("30s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Invalid duration for %s=%q, using %s", key, raw, defaultValue)
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
