package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Settings holds the coordinator's runtime configuration, read from a
// config file in the working directory with AXON_* environment
// overrides.
type Settings struct {
	Port        int           `mapstructure:"port"`
	Token       string        `mapstructure:"token"`
	BuildTTL    time.Duration `mapstructure:"build_ttl"`
	JournalPath string        `mapstructure:"journal_path"` // Empty disables the journal
}

// Load reads settings from config.{yaml,toml,json} in the given
// directory (or the working directory if empty). A missing config file
// is fine; defaults and environment variables still apply.
func Load(dir string) (Settings, error) {
	v := viper.New()
	v.SetConfigName("config")
	if dir == "" {
		dir = "."
	}
	v.AddConfigPath(dir)

	v.SetDefault("port", 5000)
	v.SetDefault("token", "SUPERSECRET")
	v.SetDefault("build_ttl", 2*time.Hour)
	v.SetDefault("journal_path", "")

	v.SetEnvPrefix("AXON")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if s.Port <= 0 || s.Port > 65535 {
		return Settings{}, fmt.Errorf("invalid port %d", s.Port)
	}
	if s.Token == "" {
		return Settings{}, errors.New("token must not be empty")
	}

	return s, nil
}
