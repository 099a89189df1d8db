// Package config loads client settings from defaults, an optional YAML
// file and the environment. Command line flags are applied on top by the
// caller.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

var validate = validator.New()

type Config struct {
	BaseURL   string        `yaml:"url" env:"CHESSTEMPO_URL" env-default:"http://127.0.0.1:9999/api" env-description:"Game service API base URL" validate:"required,url"`
	Delay     time.Duration `yaml:"delay" env:"CHESSTEMPO_DELAY" env-default:"1s" env-description:"Pause between two polls" validate:"min=0"`
	NoClear   bool          `yaml:"no-clear" env:"CHESSTEMPO_NO_CLEAR" env-description:"Do not clear the terminal before drawing the board"`
	Journal   string        `yaml:"journal" env:"CHESSTEMPO_JOURNAL" env-description:"Path of the SQLite session journal, disabled when empty"`
	Verbosity int           `yaml:"verbosity" env:"CHESSTEMPO_VERBOSITY" env-default:"0" env-description:"Diagnostic log verbosity" validate:"min=0,max=10"`
	History   string        `yaml:"history" env:"CHESSTEMPO_HISTORY" env-default:".chesstempo_history" env-description:"Interactive shell history file"`
}

// Load reads path when set, otherwise only the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	return cfg, nil
}

// Validate is called after flags were applied.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Usage describes the environment variables.
func Usage() string {
	text, err := cleanenv.GetDescription(&Config{}, nil)
	if err != nil {
		return ""
	}
	return text
}
