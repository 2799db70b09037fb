package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	// Application
	App AppConfig

	// Institute API
	Institute InstituteConfig

	// Redis
	Redis RedisConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Attendance behavior
	Attendance AttendanceConfig

	// Feature Flags
	Features *FeatureFlags

	// Observability
	Observability ObservabilityConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string
	Environment Environment
	Debug       bool
	Version     string

	// Timezone for schedules and date math (default: Asia/Kolkata)
	Timezone string
	Location *time.Location

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration
}

// InstituteConfig holds institute management API settings.
type InstituteConfig struct {
	// Base URL of the institute management server
	BaseURL string

	// Bearer token for the teacher account
	APIToken string

	// Rate limiting (protect from being blocked)
	RateLimit      float64 // requests per second
	RateLimitBurst int     // burst size
	RequestTimeout time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// Circuit breaker settings
	CircuitBreakerThreshold int           // failures before opening
	CircuitBreakerTimeout   time.Duration // time before half-open
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// Timeouts
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Cache TTLs
	SessionsTTL   time.Duration
	StatisticsTTL time.Duration
	AlertsTTL     time.Duration

	// Enable for development without Redis
	Disabled bool
}

// SchedulerConfig holds background job settings.
type SchedulerConfig struct {
	// Enable/disable scheduler
	Enabled bool

	// Job intervals
	RefreshStatisticsInterval time.Duration // recompute the rolling aggregate

	// Daily low attendance scan time (in configured timezone)
	LowAttendanceScanHour   int // 0-23
	LowAttendanceScanMinute int // 0-59
}

// AttendanceConfig holds attendance computation settings.
type AttendanceConfig struct {
	// LowAttendanceThreshold flags students below this rate, percent
	LowAttendanceThreshold float64

	// StatisticsWindowDays is the rolling aggregate window
	StatisticsWindowDays int

	// AlertWindowDays is the rolling window for the alert scan
	AlertWindowDays int

	// MaxAlerts caps the cached alert list
	MaxAlerts int
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.App = loadAppConfig()
	cfg.Institute = loadInstituteConfig()
	cfg.Redis = loadRedisConfig()
	cfg.Scheduler = loadSchedulerConfig()
	cfg.Attendance = loadAttendanceConfig()
	cfg.Features = LoadFeatureFlags()
	cfg.Observability = loadObservabilityConfig()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func loadAppConfig() AppConfig {
	env := Environment(getEnv("APP_ENV", "development"))
	timezone := getEnv("APP_TIMEZONE", "Asia/Kolkata")

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}

	return AppConfig{
		Name:            getEnv("APP_NAME", "attendance-hub"),
		Environment:     env,
		Debug:           env == EnvDevelopment || getEnvBool("APP_DEBUG", false),
		Version:         getEnv("APP_VERSION", "0.1.0"),
		Timezone:        timezone,
		Location:        loc,
		ShutdownTimeout: getEnvDuration("APP_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func loadInstituteConfig() InstituteConfig {
	return InstituteConfig{
		BaseURL:                 getEnv("INSTITUTE_BASE_URL", "https://api.institute.example.com"),
		APIToken:                getEnv("INSTITUTE_API_TOKEN", ""),
		RateLimit:               getEnvFloat("INSTITUTE_RATE_LIMIT", 5),
		RateLimitBurst:          getEnvInt("INSTITUTE_RATE_LIMIT_BURST", 10),
		RequestTimeout:          getEnvDuration("INSTITUTE_REQUEST_TIMEOUT", 30*time.Second),
		MaxRetries:              getEnvInt("INSTITUTE_MAX_RETRIES", 3),
		RetryBaseDelay:          getEnvDuration("INSTITUTE_RETRY_BASE_DELAY", 500*time.Millisecond),
		RetryMaxDelay:           getEnvDuration("INSTITUTE_RETRY_MAX_DELAY", 10*time.Second),
		CircuitBreakerThreshold: getEnvInt("INSTITUTE_CB_THRESHOLD", 3),
		CircuitBreakerTimeout:   getEnvDuration("INSTITUTE_CB_TIMEOUT", 60*time.Second),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Host:          getEnv("REDIS_HOST", "localhost"),
		Port:          getEnvInt("REDIS_PORT", 6379),
		Password:      getEnv("REDIS_PASSWORD", ""),
		DB:            getEnvInt("REDIS_DB", 0),
		PoolSize:      getEnvInt("REDIS_POOL_SIZE", 10),
		MinIdleConns:  getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:   getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:   getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout:  getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		SessionsTTL:   getEnvDuration("REDIS_SESSIONS_TTL", 2*time.Minute),
		StatisticsTTL: getEnvDuration("REDIS_STATISTICS_TTL", 10*time.Minute),
		AlertsTTL:     getEnvDuration("REDIS_ALERTS_TTL", 15*time.Minute),
		Disabled:      getEnvBool("REDIS_DISABLED", false),
	}
}

func loadSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:                   getEnvBool("SCHEDULER_ENABLED", true),
		RefreshStatisticsInterval: getEnvDuration("SCHEDULER_STATISTICS_INTERVAL", 10*time.Minute),
		LowAttendanceScanHour:     getEnvInt("SCHEDULER_SCAN_HOUR", 22),
		LowAttendanceScanMinute:   getEnvInt("SCHEDULER_SCAN_MINUTE", 15),
	}
}

func loadAttendanceConfig() AttendanceConfig {
	return AttendanceConfig{
		LowAttendanceThreshold: getEnvFloat("ATTENDANCE_LOW_THRESHOLD", 75),
		StatisticsWindowDays:   getEnvInt("ATTENDANCE_STATISTICS_WINDOW_DAYS", 90),
		AlertWindowDays:        getEnvInt("ATTENDANCE_ALERT_WINDOW_DAYS", 30),
		MaxAlerts:              getEnvInt("ATTENDANCE_MAX_ALERTS", 100),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Institute.BaseURL == "" {
		errs = append(errs, "INSTITUTE_BASE_URL is required")
	}
	if c.App.Environment == EnvProduction && c.Institute.APIToken == "" {
		errs = append(errs, "INSTITUTE_API_TOKEN is required in production")
	}

	if c.Scheduler.LowAttendanceScanHour < 0 || c.Scheduler.LowAttendanceScanHour > 23 {
		errs = append(errs, "SCHEDULER_SCAN_HOUR must be 0-23")
	}
	if c.Scheduler.LowAttendanceScanMinute < 0 || c.Scheduler.LowAttendanceScanMinute > 59 {
		errs = append(errs, "SCHEDULER_SCAN_MINUTE must be 0-59")
	}

	if c.Attendance.LowAttendanceThreshold <= 0 || c.Attendance.LowAttendanceThreshold > 100 {
		errs = append(errs, "ATTENDANCE_LOW_THRESHOLD must be in (0, 100]")
	}
	if c.Attendance.StatisticsWindowDays <= 0 {
		errs = append(errs, "ATTENDANCE_STATISTICS_WINDOW_DAYS must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// --- Helper functions for environment variable parsing ---

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
