// Package config loads the process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process-wide configuration. Missing required variables are
// fatal at startup.
type Config struct {
	BotToken      string `env:"BOT_TOKEN,required"`
	ApplicationID string `env:"APPLICATION_ID,required"`
	GuildID       string `env:"GUILD_ID,required"`

	WhitelistAPIKey string `env:"WHITELIST_API_KEY,required"`
	PassportAPIKey  string `env:"PASSPORT_API_KEY,required"`

	// ExternalURL is the externally reachable base URL of this service,
	// used to build signer links.
	ExternalURL string `env:"EXTERNAL_URL,required"`

	RegistryURL string `env:"REGISTRY_URL" envDefault:"https://manifest.human.tech/api/covenant/signers-export"`
	PassportURL string `env:"PASSPORT_URL" envDefault:"https://api.passport.xyz/v2/stamps/9325/score"`

	// RedisURL enables the redis-backed store and event publisher; when
	// empty the service runs with in-memory state only.
	RedisURL string `env:"REDIS_URL"`

	ListenAddr string `env:"LISTEN_ADDR" envDefault:":3000"`

	Cooldown           time.Duration `env:"COOLDOWN" envDefault:"300s"`
	ChallengeTTL       time.Duration `env:"CHALLENGE_TTL" envDefault:"30m"`
	ChannelDeleteDelay time.Duration `env:"CHANNEL_DELETE_DELAY" envDefault:"8s"`
	AdapterTimeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
	MaxAttempts        int           `env:"MAX_ATTEMPTS" envDefault:"5"`

	BaseRole  string `env:"BASE_ROLE" envDefault:"Covenant Verified Signatory"`
	RoleTiers string `env:"ROLE_TIERS" envDefault:"70:Chosen One,20:O.G. HUMN"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
