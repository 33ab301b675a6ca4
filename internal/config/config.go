package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is stripped from environment variables before mapping them to
// config keys: MEMBERSITE_SESSION_STORE_SECRET -> session.store_secret.
const EnvPrefix = "MEMBERSITE_"

type Config struct {
	Dev     bool          `koanf:"dev"`
	HTTP    HTTPConfig    `koanf:"http"`
	Store   StoreConfig   `koanf:"store"`
	Session SessionConfig `koanf:"session"`
	Auth    AuthConfig    `koanf:"auth"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
}

type HTTPConfig struct {
	Port         string        `koanf:"port"`
	BodyLimit    int           `koanf:"body_limit"`
	RateMax      int           `koanf:"rate_max"`
	RateWindow   time.Duration `koanf:"rate_window"`
	LoginMax     int           `koanf:"login_max"`
	LoginWindow  time.Duration `koanf:"login_window"`
	CookieSecure bool          `koanf:"cookie_secure"`
}

type StoreConfig struct {
	Driver       string        `koanf:"driver"` // sqlite | pgx
	DSN          string        `koanf:"dsn"`
	ConnAttempts uint64        `koanf:"conn_attempts"`
	ConnBackoff  time.Duration `koanf:"conn_backoff"`
}

type SessionConfig struct {
	// Secret keys the cookie encryption; required outside dev mode.
	Secret string `koanf:"secret"`
	// StoreSecret enables at-rest encryption of session records when set.
	StoreSecret string        `koanf:"store_secret"`
	TTL         time.Duration `koanf:"ttl"`
	Backend     string        `koanf:"backend"` // sql | redis
	RedisAddr   string        `koanf:"redis_addr"`
	RedisDB     int           `koanf:"redis_db"`
	GCInterval  time.Duration `koanf:"gc_interval"`
}

type AuthConfig struct {
	BcryptCost int `koanf:"bcrypt_cost"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	File  string `koanf:"file"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:        "3000",
			BodyLimit:   1 << 20,
			RateMax:     60,
			RateWindow:  time.Minute,
			LoginMax:    5,
			LoginWindow: 10 * time.Minute,
		},
		Store: StoreConfig{
			Driver:       "sqlite",
			DSN:          "membersite.db",
			ConnAttempts: 5,
			ConnBackoff:  500 * time.Millisecond,
		},
		Session: SessionConfig{
			TTL:        time.Hour,
			Backend:    "sql",
			RedisAddr:  "localhost:6379",
			GCInterval: 10 * time.Minute,
		},
		Auth:    AuthConfig{BcryptCost: 12},
		Log:     LogConfig{Level: "info"},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"port":          "http.port",
	"dev":           "dev",
	"store-driver":  "store.driver",
	"store-dsn":     "store.dsn",
	"session-store": "session.backend",
	"log-level":     "log.level",
}

// Load layers defaults, the optional YAML file at path, MEMBERSITE_*
// environment variables and finally any flags that were set.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return cfg, fmt.Errorf("config: env: %w", err)
	}

	if flags != nil {
		p := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			// unchanged flags would clobber Default() with the flag's zero value
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(p, nil); err != nil {
			return cfg, fmt.Errorf("config: flags: %w", err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, cfg.Validate()
}

// envKey turns SESSION_STORE_SECRET into session.store_secret: only the first
// underscore separates section from field.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if s == "dev" {
		return s
	}
	return strings.Replace(s, "_", ".", 1)
}

var (
	ErrNoSessionSecret = errors.New("config: session.secret is required")
	ErrBadDriver       = errors.New("config: store.driver must be sqlite or pgx")
	ErrBadBackend      = errors.New("config: session.backend must be sql or redis")
)

func (c Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "pgx":
	default:
		return ErrBadDriver
	}
	switch c.Session.Backend {
	case "sql", "redis":
	default:
		return ErrBadBackend
	}
	if c.Session.Secret == "" && !c.Dev {
		return ErrNoSessionSecret
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("config: session.ttl must be positive, got %s", c.Session.TTL)
	}
	return nil
}
