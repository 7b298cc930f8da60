package config

import (
	"os"
	"strconv"
	"time"
	_ "time/tzdata"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host                string
	Port                string
	User                string
	Password            string
	Name                string
	SSLMode             string
	MaxOpenConns        int
	MaxIdleConns        int
	ConnMaxLifetimeSec  int
	ConnectRetries      int
	ConnectRetryDelayMs int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint         string
	AccessKey        string
	SecretKey        string
	Bucket           string
	UseSSL           bool
	PresignExpirySec int
}

// AuthConfig holds settings for issuing and verifying access tokens.
type AuthConfig struct {
	JWTSecret   string
	Issuer      string
	TokenTTLMin int
	BcryptCost  int
}

// TransformConfig holds settings for the document transformation engine.
type TransformConfig struct {
	// AbsentPolicy is "skip" or "null"; see engine.ParseAbsentPolicy.
	AbsentPolicy   string
	MaxUploadBytes int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost   string
	Port      string
	Timezone  string
	LogLevel  string
	Database  DatabaseConfig
	MinIO     MinIOConfig
	Auth      AuthConfig
	Transform TransformConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"), // default only for non-sensitive value
		Timezone: getEnv("APP_TIMEZONE", "UTC"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Host:                getEnv("DB_HOST", ""),
			Port:                getEnv("DB_PORT", "5432"),
			User:                getEnv("DB_USER", ""),
			Password:            getEnv("DB_PASSWORD", ""),
			Name:                getEnv("DB_NAME", ""),
			SSLMode:             getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:        getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:        getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec:  getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			ConnectRetries:      getEnvInt("DB_CONNECT_RETRIES", 5),
			ConnectRetryDelayMs: getEnvInt("DB_CONNECT_RETRY_DELAY_MS", 1000),
		},
		MinIO: MinIOConfig{
			Endpoint:         getEnv("MINIO_ENDPOINT", ""),
			AccessKey:        getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:        getEnv("MINIO_SECRET_KEY", ""),
			Bucket:           getEnv("MINIO_BUCKET", ""),
			UseSSL:           getEnvBool("MINIO_USE_SSL", false),
			PresignExpirySec: getEnvInt("MINIO_PRESIGN_EXPIRY_SEC", 900),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", ""),
			Issuer:      getEnv("JWT_ISSUER", "channelapi"),
			TokenTTLMin: getEnvInt("JWT_TTL_MIN", 24*60),
			BcryptCost:  getEnvInt("BCRYPT_COST", 10),
		},
		Transform: TransformConfig{
			AbsentPolicy:   getEnv("TRANSFORM_ABSENT_POLICY", "skip"),
			MaxUploadBytes: getEnvInt("MAX_UPLOAD_BYTES", 10<<20),
		},
	}
}

// Location resolves the configured timezone, falling back to UTC when it is unknown.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TokenTTL returns the access token lifetime.
func (c AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMin) * time.Minute
}

// ConnectRetryDelay returns the pause between connection attempts.
func (c DatabaseConfig) ConnectRetryDelay() time.Duration {
	return time.Duration(c.ConnectRetryDelayMs) * time.Millisecond
}

// PresignExpiry returns the lifetime of pre-signed download URLs.
func (c MinIOConfig) PresignExpiry() time.Duration {
	return time.Duration(c.PresignExpirySec) * time.Second
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
