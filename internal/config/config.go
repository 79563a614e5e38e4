// Package config loads service settings from an optional teamhub.yaml and
// TEAMHUB_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP struct {
		Addr            string        `mapstructure:"addr"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
		MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
		CORSOrigins     []string      `mapstructure:"cors_origins"`
		RateLimitRPS    float64       `mapstructure:"rate_limit_rps"`
		RateLimitBurst  int           `mapstructure:"rate_limit_burst"`
	} `mapstructure:"http"`
	PG struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"pg"`
	Auth struct {
		Secret string `mapstructure:"secret"`
		Issuer string `mapstructure:"issuer"`
	} `mapstructure:"auth"`
	Authz struct {
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"authz"`
	Encryption struct {
		// Base64 of exactly 32 bytes.
		Key string `mapstructure:"key"`
	} `mapstructure:"encryption"`
}

var envKeys = []string{
	"http.addr",
	"http.shutdown_timeout",
	"http.max_body_bytes",
	"http.cors_origins",
	"http.rate_limit_rps",
	"http.rate_limit_burst",
	"pg.dsn",
	"auth.secret",
	"auth.issuer",
	"authz.timeout",
	"encryption.key",
}

// Load reads teamhub.yaml from the given directories (or the working
// directory) and overlays TEAMHUB_* env vars, e.g. TEAMHUB_PG_DSN.
func Load(paths ...string) (Config, error) {
	v := viper.New()
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.max_body_bytes", 1<<20)
	v.SetDefault("http.cors_origins", []string{"*"})
	v.SetDefault("http.rate_limit_rps", 20.0)
	v.SetDefault("http.rate_limit_burst", 40)
	v.SetDefault("auth.issuer", "teamhub")
	v.SetDefault("authz.timeout", 2*time.Second)

	v.SetConfigName("teamhub")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("TEAMHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	c.PG.DSN = strings.TrimSpace(c.PG.DSN)
	c.Auth.Secret = strings.TrimSpace(c.Auth.Secret)
	c.Encryption.Key = strings.TrimSpace(c.Encryption.Key)
	return c, nil
}

// ValidateServer checks the settings the API cannot start without.
func (c Config) ValidateServer() error {
	var missing []string
	if c.Auth.Secret == "" {
		missing = append(missing, "auth.secret (TEAMHUB_AUTH_SECRET)")
	}
	if c.Encryption.Key == "" {
		missing = append(missing, "encryption.key (TEAMHUB_ENCRYPTION_KEY)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing %s", strings.Join(missing, ", "))
	}
	if c.Authz.Timeout <= 0 {
		return errors.New("config: authz.timeout must be positive")
	}
	if c.HTTP.RateLimitRPS < 0 || c.HTTP.RateLimitBurst < 0 {
		return errors.New("config: rate limits must not be negative")
	}
	return nil
}
