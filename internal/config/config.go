package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const defaultJWTSecret = "default-secret-key"

// Config holds application settings read from the environment.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	JWTSecret   string
	TokenExpiry time.Duration

	UploadDir      string
	MaxUploadBytes int64
	EncryptUploads bool
	PGPKeyPath     string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	SMTPHost           string
	SMTPPort           int
	SMTPUser           string
	SMTPPass           string
	EmailEnabled       bool
	InsecureSkipVerify bool

	SnapshotSchedule string
}

// LoadConfig loads .env (if present) and then reads the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Warn(".env file not found, using environment")
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "production"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBName:      getEnv("DB_NAME", "bharatledger"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		JWTSecret:   getEnv("JWT_SECRET", defaultJWTSecret),
		TokenExpiry: getEnvDuration("TOKEN_EXPIRY", 24*time.Hour),

		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		EncryptUploads: getEnvBool("ENCRYPT_UPLOADS", false),
		PGPKeyPath:     getEnv("PGP_KEY_PATH", "config/pgp-key.asc"),

		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "bharatledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "statement-ingest"),

		SMTPHost:           os.Getenv("SMTP_HOST"),
		SMTPPort:           getEnvInt("SMTP_PORT", 587),
		SMTPUser:           os.Getenv("SMTP_USER"),
		SMTPPass:           os.Getenv("SMTP_PASS"),
		EmailEnabled:       getEnvBool("EMAIL_SENDER_ENABLED", false),
		InsecureSkipVerify: getEnvBool("INSECURE_SKIP_VERIFY", false),

		SnapshotSchedule: getEnv("SNAPSHOT_SCHEDULE", "0 2 * * *"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []string

	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("PORT must be numeric, got %q", c.Port))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL is invalid: %q", c.LogLevel))
	}
	if c.TokenExpiry <= 0 {
		errs = append(errs, "TOKEN_EXPIRY must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, "MAX_UPLOAD_BYTES must be positive")
	}
	if c.UploadDir == "" {
		errs = append(errs, "UPLOAD_DIR is required")
	}
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		errs = append(errs, "JWT_SECRET must be set in production")
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, "JWT_SECRET must be at least 16 characters")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		errs = append(errs, "SMTP_HOST is required when EMAIL_SENDER_ENABLED=true")
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		errs = append(errs, "AMQP_EXCHANGE and AMQP_QUEUE are required when AMQP_URL is set")
	}

	if len(errs) > 0 {
		return errors.New("invalid configuration: " + strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// DSN builds the postgres connection string, preferring DATABASE_URL.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// getEnv returns the variable or a default when unset
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		logrus.WithField("key", key).Warn("invalid integer, using default")
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		logrus.WithField("key", key).Warn("invalid duration, using default")
		return defaultValue
	}
	return d
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
