// Package config loads the podsecd configuration from file, environment
// and command-line flags, in increasing order of precedence.
package config

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type Config struct {
	Listen   string `mapstructure:"listen"`
	LogDir   string `mapstructure:"log_dir"`
	SeedFile string `mapstructure:"seed_file"`

	DB struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"db"`

	Auth struct {
		// JWTSecret is base64 (raw URL encoding) or a plain string.
		// Empty means an ephemeral random secret is generated at boot.
		JWTSecret string        `mapstructure:"jwt_secret"`
		TokenTTL  time.Duration `mapstructure:"token_ttl"`
	} `mapstructure:"auth"`

	Podman struct {
		// Host is the libpod API endpoint: unix:///run/podman/podman.sock
		// or tcp://host:port. Empty selects the default local socket.
		Host string `mapstructure:"host"`
		// Connection is a label reported by the health endpoint; it mirrors
		// a named `podman system connection` and has no wire effect here.
		Connection string        `mapstructure:"connection"`
		Timeout    time.Duration `mapstructure:"timeout"`
	} `mapstructure:"podman"`

	CORS struct {
		Origins []string `mapstructure:"origins"`
	} `mapstructure:"cors"`
}

// Load builds the effective configuration. An explicit file path (from the
// --config flag) wins over the search path; environment variables use the
// PODSEC_ prefix with dots replaced by underscores (PODSEC_PODMAN_HOST).
func Load(cmd *cobra.Command, explicitFile string) (Config, error) {
	var c Config
	v := viper.New()

	v.SetDefault("listen", ":8000")
	v.SetDefault("log_dir", "")
	v.SetDefault("seed_file", "")
	v.SetDefault("db.path", "./podsec.db")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("podman.host", "")
	v.SetDefault("podman.connection", "")
	v.SetDefault("podman.timeout", 30*time.Second)
	v.SetDefault("cors.origins", []string{"http://localhost:3000", "http://localhost:5173"})

	v.SetConfigName("podsec")
	v.SetConfigType("yaml")
	if explicitFile != "" {
		v.SetConfigFile(explicitFile)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/podsec")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; anything else (unreadable, malformed) is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("podsec")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
