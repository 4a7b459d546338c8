package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is the immutable process configuration, loaded once at startup and
// passed explicitly to every component that needs it.
type Config struct {
	Port     string `env:"PORT,     default=8080"`
	Env      string `env:"ENV,      default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// SessionSecret signs session cookies. It has no default on purpose:
	// a deployment must provide its own.
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL, default=24h"`

	// SecretsRequireLogin gates GET /secrets behind a session. The original
	// behaviour leaves the listing reachable anonymously, which looks like an
	// authorization bug; flip this on to close it.
	SecretsRequireLogin bool `env:"SECRETS_REQUIRE_LOGIN, default=false"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Google   ProviderConfig `env:", prefix=GOOGLE_"`
	Facebook ProviderConfig `env:", prefix=FACEBOOK_"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=secretkeeper"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// ProviderConfig holds one OAuth2 client registration.
type ProviderConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	CallbackURL  string `env:"CALLBACK_URL"`
}

// Enabled reports whether the provider is fully configured. Unconfigured
// providers are left off the router rather than failing at startup.
func (p ProviderConfig) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != "" && p.CallbackURL != ""
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("config: SESSION_SECRET is required")
	}
	return &cfg, nil
}
