package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultBaseURL = "https://api.promptguard.co/api/v1"
	DefaultModel   = "gpt-3.5-turbo"
	DefaultTimeout = 30 * time.Second
)

// Config holds the program configuration. Every key can be set from a
// chathello.yaml file or from the upper-cased environment variable.
type Config struct {
	APIKey        string        `mapstructure:"openai_api_key"`
	APIKeyParam   string        `mapstructure:"chat_api_key_param"`
	BaseURL       string        `mapstructure:"chat_base_url"`
	Model         string        `mapstructure:"chat_model"`
	Timeout       time.Duration `mapstructure:"chat_timeout"`
	ActivityTable string        `mapstructure:"chat_activity_table"`
	ActivityDB    string        `mapstructure:"chat_activity_db"`
	LogLevel      string        `mapstructure:"log_level"`
}

// Load reads chathello.yaml from CHAT_CONFIG, ".", or "./config" and applies
// environment overrides. A missing file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("chathello")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if path := strings.TrimSpace(os.Getenv("CHAT_CONFIG")); path != "" {
		v.SetConfigFile(path)
	}

	v.SetDefault("openai_api_key", "")
	v.SetDefault("chat_api_key_param", "")
	v.SetDefault("chat_base_url", DefaultBaseURL)
	v.SetDefault("chat_model", DefaultModel)
	v.SetDefault("chat_timeout", DefaultTimeout)
	v.SetDefault("chat_activity_table", "")
	v.SetDefault("chat_activity_db", "")
	v.SetDefault("log_level", "info")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return &c, nil
}

// NeedsAWS reports whether any configured component talks to AWS.
func (c *Config) NeedsAWS() bool {
	return c.APIKeyParam != "" || c.ActivityTable != ""
}
