// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AuthServiceConfig provides settings needed by the auth service.
type AuthServiceConfig interface {
	JWTConfig
	GetAccessTokenTTL() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// VisitsConfig provides the policy knobs of the visits module.
type VisitsConfig interface {
	GetVisitsLocation() *time.Location
	GetAgentGeofenceRadius() float64
	GetAdminGeofenceRadius() float64
	GetDeleteOverrideSecret() string
	GetMissedVisitGrace() time.Duration
}

// GeocoderConfig provides settings for the address geocoder.
type GeocoderConfig interface {
	IsGeocoderEnabled() bool
	GetGeocoderCitySuffix() string
	GetGeocoderUserAgent() string
}

// SchedulerConfig provides settings for the asynq scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetMissedVisitSweepInterval() time.Duration
}

// LockConfig selects how bookings are serialized per agent.
type LockConfig interface {
	GetAgentLockBackend() string
	GetRedisURL() string
}

// SMTPConfig provides settings for outbound email.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetSMTPFromEmail() string
	GetSMTPFromName() string
	IsSMTPEnabled() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketVisitAttachments() string
	IsMinIOEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                         string
	HTTPAddr                    string
	DatabaseURL                 string
	JWTAccessSecret             string
	AccessTokenTTL              time.Duration
	CORSAllowAll                bool
	CORSOrigins                 []string
	CORSAllowCreds              bool
	VisitsTimezone              string
	VisitsLocation              *time.Location
	AgentGeofenceRadius         float64
	AdminGeofenceRadius         float64
	DeleteOverrideSecret        string
	MissedVisitGrace            time.Duration
	GeocoderEnabled             bool
	GeocoderCitySuffix          string
	GeocoderUserAgent           string
	AgentLockBackend            string
	RedisURL                    string
	RedisTLSInsecure            bool
	AsynqQueueName              string
	AsynqConcurrency            int
	MissedVisitSweepInterval    time.Duration
	SMTPHost                    string
	SMTPPort                    int
	SMTPUsername                string
	SMTPPassword                string
	SMTPFromEmail               string
	SMTPFromName                string
	MinIOEndpoint               string
	MinIOAccessKey              string
	MinIOSecretKey              string
	MinIOUseSSL                 bool
	MinIOMaxFileSize            int64
	MinioBucketVisitAttachments string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// AuthServiceConfig implementation
func (c *Config) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// VisitsConfig implementation
func (c *Config) GetVisitsLocation() *time.Location  { return c.VisitsLocation }
func (c *Config) GetAgentGeofenceRadius() float64    { return c.AgentGeofenceRadius }
func (c *Config) GetAdminGeofenceRadius() float64    { return c.AdminGeofenceRadius }
func (c *Config) GetDeleteOverrideSecret() string    { return c.DeleteOverrideSecret }
func (c *Config) GetMissedVisitGrace() time.Duration { return c.MissedVisitGrace }

// GeocoderConfig implementation
func (c *Config) IsGeocoderEnabled() bool       { return c.GeocoderEnabled }
func (c *Config) GetGeocoderCitySuffix() string { return c.GeocoderCitySuffix }
func (c *Config) GetGeocoderUserAgent() string  { return c.GeocoderUserAgent }

// LockConfig implementation
func (c *Config) GetAgentLockBackend() string { return c.AgentLockBackend }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }
func (c *Config) GetMissedVisitSweepInterval() time.Duration {
	return c.MissedVisitSweepInterval
}

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string      { return c.SMTPHost }
func (c *Config) GetSMTPPort() int         { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string  { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string  { return c.SMTPPassword }
func (c *Config) GetSMTPFromEmail() string { return c.SMTPFromEmail }
func (c *Config) GetSMTPFromName() string  { return c.SMTPFromName }
func (c *Config) IsSMTPEnabled() bool      { return c.SMTPHost != "" && c.SMTPFromEmail != "" }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string   { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string  { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string  { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool       { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64 { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketVisitAttachments() string {
	return c.MinioBucketVisitAttachments
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// Agent lock backends.
const (
	LockBackendLocal    = "local"
	LockBackendRedis    = "redis"
	LockBackendPostgres = "postgres"
)

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                         getEnv("APP_ENV", "development"),
		HTTPAddr:                    getEnv("HTTP_ADDR", ":3000"),
		DatabaseURL:                 getEnv("DATABASE_URL", ""),
		JWTAccessSecret:             getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:              mustDuration(getEnv("JWT_ACCESS_TTL", "24h")),
		CORSAllowAll:                corsAllowAll,
		CORSOrigins:                 corsOrigins,
		CORSAllowCreds:              strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		VisitsTimezone:              getEnv("VISITS_TIMEZONE", "America/Bogota"),
		AgentGeofenceRadius:         mustFloat(getEnv("GEOFENCE_AGENT_RADIUS_M", "1500")),
		AdminGeofenceRadius:         mustFloat(getEnv("GEOFENCE_ADMIN_RADIUS_M", "50000")),
		DeleteOverrideSecret:        getEnv("VISIT_DELETE_OVERRIDE_SECRET", ""),
		MissedVisitGrace:            mustDuration(getEnv("MISSED_VISIT_GRACE", "2h")),
		GeocoderEnabled:             strings.EqualFold(getEnv("GEOCODER_ENABLED", "true"), "true"),
		GeocoderCitySuffix:          getEnv("GEOCODER_CITY_SUFFIX", "Bogotá, Colombia"),
		GeocoderUserAgent:           getEnv("GEOCODER_USER_AGENT", "FieldVisits/1.0"),
		AgentLockBackend:            strings.ToLower(getEnv("AGENT_LOCK_BACKEND", "postgres")),
		RedisURL:                    getEnv("REDIS_URL", ""),
		RedisTLSInsecure:            strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:              getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:            mustInt(getEnv("ASYNQ_CONCURRENCY", "5")),
		MissedVisitSweepInterval:    mustDuration(getEnv("MISSED_VISIT_SWEEP_INTERVAL", "15m")),
		SMTPHost:                    getEnv("SMTP_HOST", ""),
		SMTPPort:                    mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:                getEnv("SMTP_USERNAME", ""),
		SMTPPassword:                getEnv("SMTP_PASSWORD", ""),
		SMTPFromEmail:               getEnv("SMTP_FROM_EMAIL", ""),
		SMTPFromName:                getEnv("SMTP_FROM_NAME", "Visitas"),
		MinIOEndpoint:               getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:              getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:              getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:                 strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:            mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "20971520")),
		MinioBucketVisitAttachments: getEnv("MINIO_BUCKET_VISIT_ATTACHMENTS", "visit-attachments"),
	}

	loc, err := time.LoadLocation(cfg.VisitsTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid VISITS_TIMEZONE %q: %w", cfg.VisitsTimezone, err)
	}
	cfg.VisitsLocation = loc

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.AgentGeofenceRadius <= 0 || cfg.AdminGeofenceRadius <= 0 {
		return nil, fmt.Errorf("geofence radii must be positive")
	}
	switch cfg.AgentLockBackend {
	case LockBackendLocal, LockBackendPostgres:
	case LockBackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("AGENT_LOCK_BACKEND=redis requires REDIS_URL")
		}
	default:
		return nil, fmt.Errorf("unknown AGENT_LOCK_BACKEND %q", cfg.AgentLockBackend)
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
