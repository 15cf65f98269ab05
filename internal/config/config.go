// Package config loads settings from an optional YAML file, a .env file,
// POPIS_* environment variables and command line flags, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/erazemk/popis/internal/notify"
	"github.com/erazemk/popis/internal/ocr"
)

// EnvPrefix is prepended to every environment variable name; dots in keys
// become underscores (POPIS_DATABASE_PATH).
const EnvPrefix = "POPIS"

// Config is the resolved configuration shared by every command.
type Config struct {
	Server struct {
		Addr        string   `mapstructure:"addr"`
		CORSOrigins []string `mapstructure:"cors_origins"`
	} `mapstructure:"server"`

	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`

	Webhook struct {
		URL     string        `mapstructure:"url"`
		Secret  string        `mapstructure:"secret"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"webhook"`

	OCR struct {
		Command string   `mapstructure:"command"`
		Args    []string `mapstructure:"args"`
	} `mapstructure:"ocr"`

	Log struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"log"`
}

// FlagKeys maps command line flag names to the config keys they override.
var FlagKeys = map[string]string{
	"addr": "server.addr",
	"db":   "database.path",
	"log":  "log.path",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("database.path", "popis.sqlite3")
	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.secret", "")
	v.SetDefault("webhook.timeout", notify.DefaultTimeout)
	v.SetDefault("ocr.command", ocr.DefaultCommand)
	v.SetDefault("ocr.args", ocr.DefaultArgs)
	v.SetDefault("log.path", "")
}

// Load reads the configuration. An empty path looks for an optional
// popis.yaml in the working directory; an explicit path must exist. Flags
// named in FlagKeys override every other source when set; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	// .env is optional; variables already in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("popis")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Webhook.Timeout <= 0 {
		cfg.Webhook.Timeout = notify.DefaultTimeout
	}
	return &cfg, nil
}
