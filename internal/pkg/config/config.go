package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	APIBaseURL  string        `env:"RENVO_API_URL,      default=https://api.renvo.app"`
	Env         string        `env:"RENVO_ENV,          default=development"`
	LogLevel    string        `env:"RENVO_LOG_LEVEL,    default=info"`
	HTTPTimeout time.Duration `env:"RENVO_HTTP_TIMEOUT, default=15s"`

	Credentials CredentialsConfig
}

type CredentialsConfig struct {
	// Path of the encrypted credential file. Defaults to
	// <user config dir>/renvo/credentials.
	Path string `env:"RENVO_CREDENTIALS_FILE"`
	// Key is the secret the file encryption key is derived from.
	Key string `env:"RENVO_CREDENTIALS_KEY, default=renvo-local-dev-key"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	if cfg.Credentials.Path == "" {
		cfg.Credentials.Path = defaultCredentialsPath()
	}
	return &cfg
}

func defaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "renvo", "credentials")
}
