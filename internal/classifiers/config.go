package classifiers

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// ServiceConfig holds connection parameters for one analysis service.
type ServiceConfig struct {
	Endpoint string `toml:"endpoint"`
	Timeout  string `toml:"timeout"`
	RetryMax int    `toml:"retry_max"`
}

// ServiceEnv maps ServiceConfig fields to environment variable names for
// override injection.
type ServiceEnv struct {
	Endpoint string
	Timeout  string
	RetryMax string
}

// Client builds a retrying HTTP client from the service parameters.
func (c *ServiceConfig) Client() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = c.RetryMax
	client.Logger = slog.Default()

	if d, err := time.ParseDuration(c.Timeout); err == nil {
		client.HTTPClient.Timeout = d
	}

	return client
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServiceConfig) Finalize(env *ServiceEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServiceConfig) Merge(overlay *ServiceConfig) {
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.RetryMax != 0 {
		c.RetryMax = overlay.RetryMax
	}
}

func (c *ServiceConfig) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "15s"
	}
	if c.RetryMax == 0 {
		c.RetryMax = 2
	}
}

func (c *ServiceConfig) loadEnv(env *ServiceEnv) {
	if env.Endpoint != "" {
		if v := os.Getenv(env.Endpoint); v != "" {
			c.Endpoint = v
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

func (c *ServiceConfig) validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("classifier endpoint is required")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}
