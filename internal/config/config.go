// Package config loads walletgate settings with Viper.
//
// Sources are applied in increasing priority: built-in defaults, an optional
// YAML file, WALLETGATE_* environment variables and finally command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable
const EnvPrefix = "WALLETGATE"

// Config is the full service configuration
type Config struct {
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`

	Auth struct {
		Secret    string `mapstructure:"secret"`
		SplitKeys bool   `mapstructure:"split_keys"`
	} `mapstructure:"auth"`

	Store struct {
		Driver     string `mapstructure:"driver"`
		RedisURL   string `mapstructure:"redis_url"`
		SQLitePath string `mapstructure:"sqlite_path"`
	} `mapstructure:"store"`

	Events struct {
		Driver   string `mapstructure:"driver"`
		RedisURL string `mapstructure:"redis_url"`
		Topic    string `mapstructure:"topic"`
	} `mapstructure:"events"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	RateLimit struct {
		PerMinute int `mapstructure:"per_minute"`
		Burst     int `mapstructure:"burst"`
	} `mapstructure:"ratelimit"`

	CORS struct {
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"cors"`

	Metrics struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"metrics"`

	Comments struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"comments"`
}

// Defaults returns the built-in values for every key
func Defaults() map[string]any {
	return map[string]any{
		"server.addr":          ":9000",
		"auth.secret":          "",
		"auth.split_keys":      false,
		"store.driver":         "memory",
		"store.redis_url":      "redis://localhost:6379/0",
		"store.sqlite_path":    "./walletgate.db",
		"events.driver":        "none",
		"events.redis_url":     "redis://localhost:6379/0",
		"events.topic":         "walletgate.login",
		"log.level":            "info",
		"log.format":           "text",
		"ratelimit.per_minute": 60,
		"ratelimit.burst":      20,
		"cors.allowed_origins": []string{"*"},
		"metrics.enabled":      true,
		"metrics.path":         "/metrics",
		"comments.enabled":     true,
	}
}

// FlagBindings maps config keys to the persistent flags that override them
var FlagBindings = map[string]string{
	"server.addr":     "addr",
	"auth.secret":     "secret",
	"auth.split_keys": "split-keys",
	"store.driver":    "store",
	"events.driver":   "events",
	"log.level":       "log-level",
	"log.format":      "log-format",
}

// RegisterFlags declares the flags listed in FlagBindings on cmd
func RegisterFlags(cmd *cobra.Command) {
	defaults := Defaults()
	flags := cmd.PersistentFlags()
	flags.String("addr", defaults["server.addr"].(string), "HTTP listen address")
	flags.String("secret", "", "shared secret for nonces and credentials")
	flags.Bool("split-keys", false, "derive independent nonce and signing keys from the secret")
	flags.String("store", defaults["store.driver"].(string), `user store ("memory", "redis", "sqlite")`)
	flags.String("events", defaults["events.driver"].(string), `login event sink ("none", "gochannel", "redis")`)
	flags.String("log-level", defaults["log.level"].(string), `log level ("debug", "info", "warn", "error")`)
	flags.String("log-format", defaults["log.format"].(string), `log format ("text", "json")`)
}

// Load reads configuration for cmd. An empty configFile searches ./walletgate.yaml
// and tolerates its absence; an explicit path must exist.
func Load(cmd *cobra.Command, configFile string) (*Config, error) {
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("walletgate")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configFile != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		for key, name := range FlagBindings {
			if flag := lookupFlag(cmd, name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// lookupFlag finds name among the local, persistent and inherited flags of cmd.
// Persistent flags only reach cmd.Flags() once cobra has executed the command.
func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag
	}
	return cmd.InheritedFlags().Lookup(name)
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "redis", "sqlite":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Events.Driver {
	case "none", "gochannel", "redis":
	default:
		return fmt.Errorf("unknown events driver %q", c.Events.Driver)
	}

	if c.RateLimit.PerMinute <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("ratelimit.per_minute and ratelimit.burst must be positive")
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /: %q", c.Metrics.Path)
	}

	return nil
}
