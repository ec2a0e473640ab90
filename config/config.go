// Package config implements centralized configuration management following
// the 12-Factor App methodology. Configuration is type-safe, loaded once at
// startup from environment variables, and passed by value to every component
// thereafter — nothing in this service reaches back into the environment
// after Load returns.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/spf13/viper"
)

// Config is the root configuration structure. Each field corresponds to a
// functional domain; envPrefix tags enable automatic mapping from
// environment variables to Go structs without manual parsing.
type Config struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Database DatabaseConfig `envPrefix:"DB_"`
	Policy   PolicyConfig   `envPrefix:"POLICY_"`
	Token    TokenConfig    `envPrefix:"TOKEN_"`
	Request  RequestConfig  `envPrefix:"REQUEST_"`
}

// ServerConfig encapsulates HTTP bind address configuration.
type ServerConfig struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PORT" envDefault:"7700"`
}

// DatabaseConfig contains PostgreSQL connection and pool-sizing parameters.
// Pool fields feed directly into pgxpool.Config so the pre-ping / eviction
// behavior the broker backend needs is pgxpool's own health-check loop.
type DatabaseConfig struct {
	Host                 string        `env:"HOST" envDefault:"localhost"`
	Port                 int           `env:"PORT" envDefault:"5432"`
	User                 string        `env:"USER" envDefault:"postgres"`
	Password             string        `env:"PASSWORD" envDefault:"postgres"`
	Name                 string        `env:"NAME" envDefault:"broker_auth"`
	SSLMode              string        `env:"SSL_MODE" envDefault:"disable"`
	PoolMaxConns         int32         `env:"POOL_MAX_CONNS" envDefault:"10"`
	PoolMinConns         int32         `env:"POOL_MIN_CONNS" envDefault:"0"`
	PoolMaxConnLifetime  time.Duration `env:"POOL_MAX_CONN_LIFETIME" envDefault:"1h"`
	PoolMaxConnIdleTime  time.Duration `env:"POOL_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	PoolHealthCheckEvery time.Duration `env:"POOL_HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

// PolicyConfig carries the fixed policy inputs from spec §6: the single
// accepted vhost, the derivation prefix for organization push exchanges,
// the recognition prefix for auto-generated private queues, and the set of
// resources that are shared broker-wide infrastructure rather than
// per-organization.
type PolicyConfig struct {
	DefaultVHost            string `env:"DEFAULT_VHOST" envDefault:"/"`
	PushExchangePrefix      string `env:"PUSH_EXCHANGE_PREFIX" envDefault:"_push"`
	AutogenQueuePrefix      string `env:"AUTOGEN_QUEUE_PREFIX" envDefault:"stomp"`
	SharedInfrastructureCSV string `env:"SHARED_INFRASTRUCTURE" envDefault:""`
}

// SharedInfrastructureResource identifies one piece of broker-wide plumbing
// that every principal may reach regardless of organization.
type SharedInfrastructureResource struct {
	Kind string
	Name string
}

// SharedInfrastructure parses the "kind:name,kind:name" CSV form into the
// set ResourceClassifier consults. Malformed entries are skipped rather
// than failing startup — an operator typo in one entry should not take
// down the whole policy engine.
func (p PolicyConfig) SharedInfrastructure() []SharedInfrastructureResource {
	if p.SharedInfrastructureCSV == "" {
		return nil
	}

	var out []SharedInfrastructureResource
	for _, entry := range strings.Split(p.SharedInfrastructureCSV, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			continue
		}
		out = append(out, SharedInfrastructureResource{
			Kind: strings.TrimSpace(parts[0]),
			Name: strings.TrimSpace(parts[1]),
		})
	}
	return out
}

// TokenConfig holds the pre-shared HMAC secret used by TokenVerifier. An
// empty secret disables API-token authentication entirely (spec §6):
// every token is rejected rather than verified against an empty key.
type TokenConfig struct {
	ServerSecret string `env:"SERVER_SECRET" envDefault:""`

	// StreamTokenTTL bounds the lifetime of a stream-API JWT issued by
	// internal/service/streamtoken. Unrelated to the broker's own token
	// verification, which carries no expiry of its own.
	StreamTokenTTL time.Duration `env:"STREAM_TTL" envDefault:"1h"`
}

// RequestConfig bounds how long a single broker callout may take before the
// handler gives up and answers deny (spec §5).
type RequestConfig struct {
	Timeout time.Duration `env:"TIMEOUT" envDefault:"5s"`
}

// Load reads configuration from environment variables, applying defaults
// for anything unset, then validates the mandatory fields at startup: the
// default vhost and the database host and name. An empty token secret does
// not fail Load; it disables API-token authentication (see TokenConfig).
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Policy.DefaultVHost == "" {
		return fmt.Errorf("policy default vhost must not be empty")
	}
	if c.Database.Name == "" || c.Database.Host == "" {
		return fmt.Errorf("database host and name must be configured")
	}
	return nil
}

// sharedInfraOverride is the shape LoadOverrides' YAML file is unmarshaled
// into — an operator-maintained manifest of broker-wide plumbing, for sites
// that prefer a file over a single long env var.
type sharedInfraOverride struct {
	SharedInfrastructure []struct {
		Kind string `mapstructure:"kind"`
		Name string `mapstructure:"name"`
	} `mapstructure:"shared_infrastructure"`
}

// LoadOverrides merges an optional config file's shared-infrastructure list
// on top of a Config already produced by Load. Only shared_infrastructure is
// read from it; every other policy input stays environment-sourced so there
// remains exactly one place (Load) that can fail startup outright.
func LoadOverrides(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading shared-infrastructure overrides from %s: %w", path, err)
	}

	var override sharedInfraOverride
	if err := v.Unmarshal(&override); err != nil {
		return fmt.Errorf("parsing shared-infrastructure overrides: %w", err)
	}

	entries := []string{}
	if cfg.Policy.SharedInfrastructureCSV != "" {
		entries = append(entries, cfg.Policy.SharedInfrastructureCSV)
	}
	for _, r := range override.SharedInfrastructure {
		if r.Kind == "" || r.Name == "" {
			continue
		}
		entries = append(entries, fmt.Sprintf("%s:%s", r.Kind, r.Name))
	}
	cfg.Policy.SharedInfrastructureCSV = strings.Join(entries, ",")

	return nil
}

// GetDSN constructs the PostgreSQL connection string, centralizing the
// format so it only needs to change in one place.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetServerAddr constructs the HTTP server bind address.
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
