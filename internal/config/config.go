package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName          string
	AppVersion       string
	Environment      string
	HTTPAddr         string
	AuthCookieSecure bool
	PublicBaseURL    string

	OTLPEndpoint string

	Cloud CloudConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Email     EmailConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
}

// IsCloud reports whether this instance is registered with a hosted control
// plane and may report anonymous accounting metrics.
func (c Config) IsCloud() bool {
	return strings.TrimSpace(c.Cloud.InstanceID) != ""
}

type CloudConfig struct {
	InstanceID string
	Metrics    CloudMetricsConfig
}

type CloudMetricsConfig struct {
	Enabled   bool
	Exporter  string
	Endpoint  string
	AuthToken string
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

type StorageConfig struct {
	Region          string
	Bucket          string
	PublicBucket    string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	InviteUserRate  float64
	InviteUserBurst int
	InviteBookRate  float64
	InviteBookBurst int
	ImportUserRate  float64
	ImportUserBurst int

	ImportLockTTLSeconds int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	cfg := Config{
		AppName:          getenv("APP_SERVICE", "platebook"),
		AppVersion:       getenv("APP_VERSION", "0.1.0"),
		Environment:      environment,
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		AuthCookieSecure: authCookieSecure,
		PublicBaseURL:    strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		OTLPEndpoint:     getenv("OTLP_ENDPOINT", "localhost:4317"),
		Cloud: CloudConfig{

			InstanceID: strings.TrimSpace(getenv("CLOUD_INSTANCE_ID", "")),
			Metrics: CloudMetricsConfig{
				Enabled:   getenvBool("CLOUD_METRICS_ENABLED", false),
				Exporter:  strings.ToLower(getenv("CLOUD_METRICS_EXPORTER", "")),
				Endpoint:  strings.TrimSpace(getenv("CLOUD_METRICS_ENDPOINT", "")),
				AuthToken: strings.TrimSpace(getenv("CLOUD_METRICS_AUTH_TOKEN", "")),
			},
		},
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "platebook"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),
		Email: EmailConfig{
			SMTPHost:     getenv("SMTP_HOST", "localhost"),
			SMTPPort:     getenvInt("SMTP_PORT", 1025),
			SMTPUsername: getenv("SMTP_USERNAME", ""),
			SMTPPassword: getenv("SMTP_PASSWORD", ""),
			SMTPFrom:     getenv("SMTP_FROM", "no-reply@platebook.app"),
		},
		Storage: StorageConfig{
			Region:          getenv("STORAGE_REGION", "us-east-1"),
			Bucket:          getenv("STORAGE_BUCKET", ""),
			PublicBucket:    getenv("STORAGE_PUBLIC_BUCKET", ""),
			Endpoint:        strings.TrimSpace(getenv("STORAGE_ENDPOINT", "")),
			AccessKeyID:     strings.TrimSpace(getenv("STORAGE_ACCESS_KEY_ID", "")),
			SecretAccessKey: strings.TrimSpace(getenv("STORAGE_SECRET_ACCESS_KEY", "")),
		},
		RateLimit: RateLimitConfig{
			Enabled:              getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:            strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "")),
			RedisPassword:        getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:              getenvInt("RATE_LIMIT_REDIS_DB", 0),
			InviteUserRate:       getenvFloat("RATE_LIMIT_INVITE_USER_RATE", 0.5),
			InviteUserBurst:      getenvInt("RATE_LIMIT_INVITE_USER_BURST", 10),
			InviteBookRate:       getenvFloat("RATE_LIMIT_INVITE_BOOK_RATE", 1),
			InviteBookBurst:      getenvInt("RATE_LIMIT_INVITE_BOOK_BURST", 30),
			ImportUserRate:       getenvFloat("RATE_LIMIT_IMPORT_USER_RATE", 0.2),
			ImportUserBurst:      getenvInt("RATE_LIMIT_IMPORT_USER_BURST", 5),
			ImportLockTTLSeconds: getenvInt("RATE_LIMIT_IMPORT_LOCK_TTL_SECONDS", 60),
		},
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
