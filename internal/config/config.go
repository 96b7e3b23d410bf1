// Package config loads server settings from defaults, an optional env-format
// file and KITWMS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// DefaultFile is read from the working directory when present.
const DefaultFile = "kitwms.env"

// Config holds the server settings.
type Config struct {
	DB           string        `mapstructure:"db"`
	Addr         string        `mapstructure:"addr"`
	AdminUser    string        `mapstructure:"admin_user"`
	Log          string        `mapstructure:"log"`
	AMQPURL      string        `mapstructure:"amqp_url"`
	AMQPExchange string        `mapstructure:"amqp_exchange"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", "kitwms.sqlite3")
	v.SetDefault("addr", ":8080")
	v.SetDefault("admin_user", "owner")
	v.SetDefault("log", "")
	v.SetDefault("amqp_url", "")
	v.SetDefault("amqp_exchange", "kitwms.events")
	v.SetDefault("token_ttl", "168h")
}

// Load reads the configuration. An empty path means DefaultFile, which may be
// missing; an explicit path must exist. Environment variables override the
// file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("KITWMS")
	v.AutomaticEnv()

	file := path
	if file == "" {
		file = DefaultFile
	}
	v.SetConfigFile(file)
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		if !missing || path != "" {
			return nil, fmt.Errorf("reading config %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("token_ttl must be positive, got %s", cfg.TokenTTL)
	}
	return cfg, nil
}
