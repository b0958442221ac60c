package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env           string              `mapstructure:"env"`
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Redis         RedisConfig         `mapstructure:"redis"`
	RabbitMQ      RabbitMQConfig      `mapstructure:"rabbitmq"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Billing       BillingConfig       `mapstructure:"billing"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`

	// TrustProxy takes the client address from X-Real-IP / X-Forwarded-For.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy bool `mapstructure:"trust_proxy"`
}

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" validate:"oneof=postgres mysql"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
}

// SecurityConfig holds every process-wide secret used by the auth core.
type SecurityConfig struct {
	JWTSecret        string `mapstructure:"jwt_secret" validate:"required,min=32"`
	PasswordPepper   string `mapstructure:"password_pepper" validate:"required"`
	DispatchAdminKey string `mapstructure:"dispatch_admin_key" validate:"required"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"required,oneof=json text"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type RedisConfig struct {
	Addr      string          `mapstructure:"addr"`
	Password  string          `mapstructure:"password"`
	DB        int             `mapstructure:"db"`
	TLS       bool            `mapstructure:"tls"`
	CacheTTL  time.Duration   `mapstructure:"cache_ttl"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Capacity       int           `mapstructure:"capacity"`
	RefillTokens   int           `mapstructure:"refill_tokens"`
	RefillInterval time.Duration `mapstructure:"refill_interval"`
	TTL            time.Duration `mapstructure:"ttl"`
	Prefix         string        `mapstructure:"prefix"`
}

type RabbitMQConfig struct {
	URL          string `mapstructure:"url"`
	Queue        string `mapstructure:"queue"`
	MaxWorkers   int    `mapstructure:"max_workers"`
	JobQueueSize int    `mapstructure:"job_queue_size"`
}

type StorageConfig struct {
	FTPHost     string        `mapstructure:"ftp_host"`
	FTPUser     string        `mapstructure:"ftp_user"`
	FTPPassword string        `mapstructure:"ftp_password"`
	BaseDir     string        `mapstructure:"base_dir"`
	Timeout     time.Duration `mapstructure:"timeout"`

	// LocalDir holds attachments when no FTP host is configured.
	LocalDir string `mapstructure:"local_dir"`
}

type BillingConfig struct {
	APIKey             string `mapstructure:"api_key"`
	WebhookSecret      string `mapstructure:"webhook_secret"`
	DefaultFrontendURL string `mapstructure:"default_frontend_url"`
}

// LoadConfigFromEnv builds the configuration from plain environment variables.
// It is used for container deployments where no config.yml is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Env: getEnv("APP_ENV", "production"),
		Server: ServerConfig{
			Port:              getEnvAsInt("HTTP_PORT", 8000),
			BaseURL:           getEnv("BASE_URL", ""),
			AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			IdleTimeout:       getEnvAsDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
			TrustProxy:        getEnvAsBool("HTTP_TRUST_PROXY", false),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", DriverPostgres),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DB_SOURCE", ""),
		},
		Security: SecurityConfig{
			JWTSecret:        getEnv("JWE_SECRET_KEY", ""),
			PasswordPepper:   getEnv("ARGON2_SECRET_KEY", ""),
			DispatchAdminKey: getEnv("DISPATCH_ADMIN_KEY", ""),
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: getEnvAsBool("METRICS_ENABLED", true),
				Path:    getEnv("METRICS_PATH", "/metrics"),
			},
			Logging: LoggingConfig{
				Level:      getEnv("LOG_LEVEL", "info"),
				Format:     getEnv("LOG_FORMAT", "json"),
				File:       getEnv("LOG_FILE", ""),
				MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 100),
				MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 5),
				MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", 30),
			},
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TLS:      getEnvAsBool("REDIS_TLS", false),
			CacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", 10*time.Minute),
			RateLimit: RateLimitConfig{
				Enabled:        getEnvAsBool("RATE_LIMIT_ENABLED", true),
				Capacity:       getEnvAsInt("RATE_LIMIT_CAPACITY", 10),
				RefillTokens:   getEnvAsInt("RATE_LIMIT_REFILL_TOKENS", 1),
				RefillInterval: getEnvAsDuration("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
				TTL:            getEnvAsDuration("RATE_LIMIT_TTL", 10*time.Minute),
				Prefix:         getEnv("RATE_LIMIT_PREFIX", "rl"),
			},
		},
		RabbitMQ: RabbitMQConfig{
			URL:          getEnv("RABBITMQ_URL", ""),
			Queue:        getEnv("RABBITMQ_QUEUE", "deliver.notifications"),
			MaxWorkers:   getEnvAsInt("NOTIFY_MAX_WORKERS", 4),
			JobQueueSize: getEnvAsInt("NOTIFY_JOB_QUEUE_SIZE", 100),
		},
		Storage: StorageConfig{
			FTPHost:     getEnv("FTP_HOST", ""),
			FTPUser:     getEnv("FTP_USER", ""),
			FTPPassword: getEnv("FTP_PASS", ""),
			BaseDir:     getEnv("FTP_BASE_DIR", "apdq"),
			Timeout:     getEnvAsDuration("FTP_TIMEOUT", 10*time.Second),
			LocalDir:    getEnv("STORAGE_LOCAL_DIR", "uploads"),
		},
		Billing: BillingConfig{
			APIKey:             getEnv("STRIPE_API_KEY", ""),
			WebhookSecret:      getEnv("STRIPE_WEBHOOK_SECRET", ""),
			DefaultFrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		},
	}
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Observability.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		for _, origin := range c.Origins() {
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

// Origins splits the comma separated allowed_origins value.
func (c *ServerConfig) Origins() []string {
	if c.AllowedOrigins == "" {
		return nil
	}
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func (c *DatabaseConfig) Validate() error {
	switch c.Driver {
	case "", DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

// DriverName defaults to postgres when no driver is configured.
func (c *DatabaseConfig) DriverName() string {
	if c.Driver == "" {
		return DriverPostgres
	}
	return c.Driver
}

func (c *SecurityConfig) Validate() error {
	var missing []string
	if c.JWTSecret == "" {
		missing = append(missing, "jwt_secret")
	}
	if c.PasswordPepper == "" {
		missing = append(missing, "password_pepper")
	}
	if c.DispatchAdminKey == "" {
		missing = append(missing, "dispatch_admin_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 characters")
	}
	return nil
}

func (c *LoggingConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "", "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("invalid level %q", c.Level)
}
