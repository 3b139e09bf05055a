package notify

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds review-webhook delivery parameters.
type Config struct {
	WebhookURL string `toml:"webhook_url"`
	Token      string `toml:"token"`
	Timeout    string `toml:"timeout"`
	RetryMax   int    `toml:"retry_max"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	WebhookURL string
	Token      string
	Timeout    string
	RetryMax   string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.WebhookURL != "" {
		c.WebhookURL = overlay.WebhookURL
	}
	if overlay.Token != "" {
		c.Token = overlay.Token
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.RetryMax != 0 {
		c.RetryMax = overlay.RetryMax
	}
}

func (c *Config) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "10s"
	}
	if c.RetryMax == 0 {
		c.RetryMax = 3
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.WebhookURL != "" {
		if v := os.Getenv(env.WebhookURL); v != "" {
			c.WebhookURL = v
		}
	}
	if env.Token != "" {
		if v := os.Getenv(env.Token); v != "" {
			c.Token = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.RetryMax != "" {
		if v := os.Getenv(env.RetryMax); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.RetryMax = n
			}
		}
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}
