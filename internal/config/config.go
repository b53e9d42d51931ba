package config

import (
	"errors"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

var ErrNoToken = errors.New("TELEGRAM_BOT_TOKEN is not provided")

type Config struct {
	LogLevel      string `envconfig:"LOG_LEVEL" default:"INFO"`
	TelegramToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	DatabasePath  string `envconfig:"DATABASE_PATH" default:"finans-assistent.db"`
}

// Load reads configuration from the environment, with an optional .env
// file for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	if cfg.TelegramToken == "" {
		return nil, ErrNoToken
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Level returns the parsed log level. Load has already validated it.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
