package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Backend names accepted by the *_BACKEND settings.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// App holds the runtime configuration loaded from a YAML file and environment variables.
type App struct {
	Env             string        `yaml:"env"              env:"APP_ENV"                 env-default:"dev"`
	HTTPPort        string        `yaml:"http_port"        env:"HTTP_PORT"               env-default:"8081"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`

	StoreBackend string `yaml:"store_backend" env:"STORE_BACKEND" env-default:"file"`
	DataFile     string `yaml:"data_file"     env:"DATA_FILE"     env-default:"student_registrations.csv"`
	SQLitePath   string `yaml:"sqlite_path"   env:"SQLITE_PATH"   env-default:"./data/registrations.db"`
	DatabaseURL  string `yaml:"database_url"  env:"DATABASE_URL"`
	RedisAddr    string `yaml:"redis_addr"    env:"REDIS_ADDR"    env-default:"localhost:6379"`

	AdminID        string        `yaml:"admin_email"     env:"ADMIN_EMAIL"`
	AdminPassword  string        `yaml:"admin_password"  env:"ADMIN_PASSWORD"`
	SessionSecret  string        `yaml:"session_secret"  env:"SESSION_SECRET"`
	SessionIssuer  string        `yaml:"session_issuer"  env:"SESSION_ISSUER"  env-default:"regportal"`
	SessionTTL     time.Duration `yaml:"session_ttl"     env:"SESSION_TTL"     env-default:"12h"`
	SessionBackend string        `yaml:"session_backend" env:"SESSION_BACKEND" env-default:"memory"`

	QueueBackend     string `yaml:"queue_backend"      env:"QUEUE_BACKEND"      env-default:"memory"`
	QueueKey         string `yaml:"queue_key"          env:"QUEUE_KEY"          env-default:"regportal:registrations"`
	NotifyEnabled    bool   `yaml:"notify_enabled"     env:"NOTIFY_ENABLED"     env-default:"false"`
	NotifyWebhookURL string `yaml:"notify_webhook_url" env:"NOTIFY_WEBHOOK_URL"`
	NotifySkip       bool   `yaml:"notify_skip"        env:"NOTIFY_SKIP"        env-default:"false"`

	RateLimitPerMin  int           `yaml:"rate_limit_per_min"  env:"RATE_LIMIT_PER_MIN"  env-default:"120"`
	RateLimitBackend string        `yaml:"rate_limit_backend"  env:"RATE_LIMIT_BACKEND"  env-default:"memory"`
	ChartCacheTTL    time.Duration `yaml:"chart_cache_ttl"     env:"CHART_CACHE_TTL"     env-default:"10m"`
	CORSOrigins      string        `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
	TrustedProxies   string        `yaml:"trusted_proxies"     env:"TRUSTED_PROXIES"`

	LogLevel  string `yaml:"log_level"  env:"LOG_LEVEL"  env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
}

// Load reads configuration from a YAML file and environment variables.
// A ./.env file, when present, seeds variables that are not already set.
// The file path comes from CONFIG_PATH (fallback "./config.yaml"). A missing
// fallback file is not an error; a missing explicit file is.
func Load() (*App, error) {
	return load(true)
}

// LoadNoAuth is Load for binaries that never authenticate anyone (the
// worker, portalctl): admin credentials and the session secret are optional.
func LoadNoAuth() (*App, error) {
	return load(false)
}

func load(withAuth bool) (*App, error) {
	var cfg App

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	validate := cfg.Validate
	if !withAuth {
		validate = cfg.ValidateBackends
	}
	if err := validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks the admin credentials, session settings and backends.
func (c *App) Validate() error {
	if err := c.validateAuth(); err != nil {
		return err
	}
	return c.ValidateBackends()
}

func (c *App) validateAuth() error {
	if strings.TrimSpace(c.AdminID) == "" || c.AdminPassword == "" {
		return fmt.Errorf("admin credentials must be set (ADMIN_EMAIL, ADMIN_PASSWORD)")
	}
	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("session_secret must be at least 32 characters (got %d)", len(c.SessionSecret))
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be > 0 (got %s)", c.SessionTTL)
	}
	return nil
}

// ValidateBackends checks store, queue, limiter and cache settings.
func (c *App) ValidateBackends() error {
	c.StoreBackend = strings.ToLower(c.StoreBackend)
	switch c.StoreBackend {
	case BackendFile:
		if c.DataFile == "" {
			return fmt.Errorf("data_file is required for the file store")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required for the sqlite store")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store_backend %q", c.StoreBackend)
	}

	for name, v := range map[string]*string{
		"session_backend":    &c.SessionBackend,
		"queue_backend":      &c.QueueBackend,
		"rate_limit_backend": &c.RateLimitBackend,
	} {
		*v = strings.ToLower(*v)
		if *v != BackendMemory && *v != BackendRedis {
			return fmt.Errorf("unknown %s %q (want memory or redis)", name, *v)
		}
	}

	if c.NotifyEnabled && !c.NotifySkip && c.NotifyWebhookURL == "" {
		return fmt.Errorf("notify_webhook_url is required when notifications are enabled")
	}
	if c.RateLimitPerMin < 0 {
		return fmt.Errorf("rate_limit_per_min must be >= 0 (got %d)", c.RateLimitPerMin)
	}
	if c.ChartCacheTTL <= 0 {
		return fmt.Errorf("chart_cache_ttl must be > 0 (got %s)", c.ChartCacheTTL)
	}
	for _, p := range c.Proxies() {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("trusted_proxies: %q is not an IP or CIDR", p)
			}
		}
	}
	return nil
}

// IsProduction reports whether the app runs in a production environment.
func (c *App) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// NeedsRedis reports whether any configured backend talks to Redis.
func (c *App) NeedsRedis() bool {
	return c.SessionBackend == BackendRedis ||
		c.QueueBackend == BackendRedis ||
		c.RateLimitBackend == BackendRedis
}

// Origins splits the comma-separated CORS origin list.
func (c *App) Origins() []string { return splitList(c.CORSOrigins) }

// Proxies lists the peers whose X-Forwarded-For is believed. Empty means the
// client IP is always the socket peer.
func (c *App) Proxies() []string { return splitList(c.TrustedProxies) }

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
