package httpclient

import (
	"fmt"

	"github.com/kbukum/restverb/config"
	"github.com/kbukum/restverb/validation"
)

const defaultName = "http"

// Config configures an Executor. One Config describes one remote API.
type Config struct {
	// Name identifies the remote API in logs, spans and metrics.
	Name string `yaml:"name" mapstructure:"name"`

	// BaseURL is prepended verbatim to every request path.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// LogBodies includes request and response bodies in debug logs.
	LogBodies bool `yaml:"log_bodies" mapstructure:"log_bodies"`

	// ValidatePayloads validates struct payloads against their `validate`
	// tags before sending.
	ValidatePayloads bool `yaml:"validate_payloads" mapstructure:"validate_payloads"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = defaultName
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("httpclient: invalid config for %q: %w", c.Name, err)
	}
	return nil
}

// Options converts the configuration into executor options.
func (c Config) Options() []Option {
	opts := []Option{WithName(c.Name)}
	for k, v := range c.Headers {
		opts = append(opts, WithHeader(k, v))
	}
	if c.LogBodies {
		opts = append(opts, WithBodyLogging())
	}
	if c.ValidatePayloads {
		opts = append(opts, WithPayloadValidation())
	}
	return opts
}

// LoadConfig loads an executor Config for the named API through the config
// package: YAML file, .env file, then environment variables prefixed with
// the API name (ITEMS_API_BASE_URL for "items-api").
func LoadConfig(name string, opts ...config.LoaderOption) (Config, error) {
	var cfg Config
	if err := config.LoadConfig(name, &cfg, opts...); err != nil {
		return Config{}, err
	}
	if cfg.Name == "" {
		cfg.Name = name
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
