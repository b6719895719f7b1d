package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DBDriver       string `mapstructure:"DB_DRIVER"`
	DatabasePath   string `mapstructure:"DATABASE_PATH"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	DBMaxOpenConns int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns int    `mapstructure:"DB_MAX_IDLE_CONNS"`

	SessionSecret      string        `mapstructure:"SESSION_SECRET"`
	SessionStore       string        `mapstructure:"SESSION_STORE"`
	SessionIdleTimeout time.Duration `mapstructure:"SESSION_IDLE_TIMEOUT"`
	SessionMaxAge      time.Duration `mapstructure:"SESSION_MAX_AGE"`
	SessionCookieName  string        `mapstructure:"SESSION_COOKIE_NAME"`
	CookieSecure       bool          `mapstructure:"COOKIE_SECURE"`
	BcryptCost         int           `mapstructure:"BCRYPT_COST"`

	AIAPIKey       string        `mapstructure:"AI_API_KEY"`
	AIBaseURL      string        `mapstructure:"AI_BASE_URL"`
	AIModel        string        `mapstructure:"AI_MODEL"`
	AITimeout      time.Duration `mapstructure:"AI_TIMEOUT"`
	AIMaxRetries   int           `mapstructure:"AI_MAX_RETRIES"`
	AIRetryBackoff time.Duration `mapstructure:"AI_RETRY_BACKOFF"`
	AIMaxBackoff   time.Duration `mapstructure:"AI_MAX_BACKOFF"`

	UploadDir     string `mapstructure:"UPLOAD_DIR"`
	MaxUploadSize string `mapstructure:"MAX_UPLOAD_SIZE"`

	RequestTimeout         time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	CORSOrigins            []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS           float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst         int           `mapstructure:"RATE_LIMIT_BURST"`
	AuthRateLimitPerMinute int           `mapstructure:"AUTH_RATE_LIMIT_PER_MINUTE"`
	NotificationRetention  time.Duration `mapstructure:"NOTIFICATION_RETENTION"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_PATH", "medifriend.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("SESSION_STORE", "memory")
	v.SetDefault("SESSION_IDLE_TIMEOUT", "1h")
	v.SetDefault("SESSION_MAX_AGE", "24h")
	v.SetDefault("SESSION_COOKIE_NAME", "medifriend_session")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("AI_BASE_URL", "https://generativelanguage.googleapis.com")
	v.SetDefault("AI_MODEL", "gemini-1.5-flash")
	v.SetDefault("AI_TIMEOUT", "45s")
	v.SetDefault("AI_MAX_RETRIES", 2)
	v.SetDefault("AI_RETRY_BACKOFF", "500ms")
	v.SetDefault("AI_MAX_BACKOFF", "5s")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("MAX_UPLOAD_SIZE", "16M")
	v.SetDefault("REQUEST_TIMEOUT", "180s")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("AUTH_RATE_LIMIT_PER_MINUTE", 10)
	v.SetDefault("NOTIFICATION_RETENTION", "720h")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("DB_DRIVER")
	v.BindEnv("DATABASE_PATH")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_OPEN_CONNS")
	v.BindEnv("DB_MAX_IDLE_CONNS")
	v.BindEnv("SESSION_SECRET")
	v.BindEnv("SESSION_STORE")
	v.BindEnv("SESSION_IDLE_TIMEOUT")
	v.BindEnv("SESSION_MAX_AGE")
	v.BindEnv("SESSION_COOKIE_NAME")
	v.BindEnv("COOKIE_SECURE")
	v.BindEnv("BCRYPT_COST")
	v.BindEnv("AI_API_KEY", "AI_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("AI_BASE_URL")
	v.BindEnv("AI_MODEL")
	v.BindEnv("AI_TIMEOUT")
	v.BindEnv("AI_MAX_RETRIES")
	v.BindEnv("AI_RETRY_BACKOFF")
	v.BindEnv("AI_MAX_BACKOFF")
	v.BindEnv("UPLOAD_DIR")
	v.BindEnv("MAX_UPLOAD_SIZE")
	v.BindEnv("REQUEST_TIMEOUT")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("AUTH_RATE_LIMIT_PER_MINUTE")
	v.BindEnv("NOTIFICATION_RETENTION")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.SessionStore = strings.ToLower(strings.TrimSpace(cfg.SessionStore))

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AIWorstCase is the longest a single model call can take: every attempt runs
// to AI_TIMEOUT and every retry waits its full backoff first.
func (c *Config) AIWorstCase() time.Duration {
	total := time.Duration(c.AIMaxRetries+1) * c.AITimeout
	backoff := c.AIRetryBackoff
	for i := 0; i < c.AIMaxRetries; i++ {
		total += backoff
		backoff *= 2
		if c.AIMaxBackoff > 0 && backoff > c.AIMaxBackoff {
			backoff = c.AIMaxBackoff
		}
	}
	return total
}

// DatabaseDSN returns the data source name for the configured driver.
func (c *Config) DatabaseDSN() string {
	if c.DBDriver == "postgres" {
		return c.DatabaseURL
	}
	return c.DatabasePath
}

// Validate checks that the configuration is safe to run. Outside development
// a SESSION_SECRET of at least 32 bytes is required so that session tokens
// cannot be forged, and production requires COOKIE_SECURE. The request deadline
// must outlast every AI retry, otherwise uploads would time out before the
// provider answers.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite":
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required when DB_DRIVER is \"sqlite\"")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER is \"postgres\"")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be \"sqlite\" or \"postgres\", got %q", c.DBDriver)
	}

	if c.SessionStore != "memory" && c.SessionStore != "sql" {
		return fmt.Errorf("SESSION_STORE must be \"memory\" or \"sql\", got %q", c.SessionStore)
	}

	if !c.IsDev() {
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required outside development")
		}
		if len(c.SessionSecret) < 32 {
			return fmt.Errorf("SESSION_SECRET must be at least 32 bytes, got %d", len(c.SessionSecret))
		}
	}
	if c.IsProduction() && !c.CookieSecure {
		return fmt.Errorf("COOKIE_SECURE must be true in production")
	}

	if c.SessionIdleTimeout <= 0 || c.SessionMaxAge <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT and SESSION_MAX_AGE must be positive")
	}
	if c.SessionIdleTimeout > c.SessionMaxAge {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT (%s) cannot exceed SESSION_MAX_AGE (%s)", c.SessionIdleTimeout, c.SessionMaxAge)
	}

	if c.AITimeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT must be positive")
	}
	if c.AIMaxRetries < 0 {
		return fmt.Errorf("AI_MAX_RETRIES cannot be negative")
	}
	if c.AIRetryBackoff < 0 || c.AIMaxBackoff < 0 {
		return fmt.Errorf("AI_RETRY_BACKOFF and AI_MAX_BACKOFF cannot be negative")
	}
	if worst := c.AIWorstCase(); c.RequestTimeout <= worst {
		return fmt.Errorf("REQUEST_TIMEOUT (%s) must exceed the worst-case AI call of %s (AI_TIMEOUT %s, AI_MAX_RETRIES %d)",
			c.RequestTimeout, worst, c.AITimeout, c.AIMaxRetries)
	}

	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}

	if c.AuthRateLimitPerMinute <= 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.NotificationRetention <= 0 {
		return fmt.Errorf("NOTIFICATION_RETENTION must be positive")
	}

	return nil
}
