// Package config loads runtime configuration from environment variables,
// falling back to the defaults baked into the struct tags.
package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Addr        string `env:"ADDR" env-default:":8080"`
	DatabaseURL string `env:"DATABASE_URL" env-required:"true"`
	JWTSecret   string `env:"JWT_SECRET" env-required:"true"`

	// NotifySinkURL is the webhook events are delivered to. Empty means
	// log-only delivery.
	NotifySinkURL string `env:"NOTIFY_SINK_URL" env-default:""`

	Currency           string        `env:"CURRENCY" env-default:"USD"`
	MinMembers         int           `env:"MIN_MEMBERS" env-default:"2"`
	DefaultGraceHours  int           `env:"DEFAULT_GRACE_HOURS" env-default:"24"`
	SettlementOffset   time.Duration `env:"SETTLEMENT_OFFSET" env-default:"24h"`
	InviteTTL          time.Duration `env:"INVITE_TTL" env-default:"720h"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
