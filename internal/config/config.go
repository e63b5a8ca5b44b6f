// Package config loads the indexing engine's runtime configuration from
// the environment. The core packages never read the
// environment themselves; they are handed a *Config.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config carries everything cmd/nomindex needs to construct an indexer.
type Config struct {
	DatabaseDSN       string `mapstructure:"database_dsn"`
	IndexThreads      int    `mapstructure:"index_threads"`
	MetricsListenAddr string `mapstructure:"metrics_listen_addr"`
	PhraseLanguages   string `mapstructure:"phrase_languages"`
}

// Load reads NOMINATIM_-prefixed environment variables into a Config,
// applying sane defaults for anything unset.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NOMINATIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database_dsn", "")
	v.SetDefault("index_threads", 0)
	v.SetDefault("metrics_listen_addr", "")
	v.SetDefault("phrase_languages", "")

	// viper's automatic env binding needs each key touched once before
	// it will pick up NOMINATIM_DATABASE_DSN etc.
	for _, key := range []string{"database_dsn", "index_threads", "metrics_listen_addr", "phrase_languages"} {
		_ = v.BindEnv(key)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
