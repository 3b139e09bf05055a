package config

import (
	"fmt"
	"os"
	"time"

	"github.com/gatehouse-io/gatehouse/internal/classifiers"
	"github.com/gatehouse-io/gatehouse/internal/moderation"
	"github.com/gatehouse-io/gatehouse/pkg/notify"
)

const (
	EnvModerationJoinTimeout   = "GATEHOUSE_MODERATION_JOIN_TIMEOUT"
	EnvModerationSweepInterval = "GATEHOUSE_MODERATION_SWEEP_INTERVAL"
)

var textClassifierEnv = &classifiers.ServiceEnv{
	Endpoint: "GATEHOUSE_CLASSIFIER_TEXT_ENDPOINT",
	Timeout:  "GATEHOUSE_CLASSIFIER_TEXT_TIMEOUT",
	RetryMax: "GATEHOUSE_CLASSIFIER_TEXT_RETRY_MAX",
}

var imageClassifierEnv = &classifiers.ServiceEnv{
	Endpoint: "GATEHOUSE_CLASSIFIER_IMAGE_ENDPOINT",
	Timeout:  "GATEHOUSE_CLASSIFIER_IMAGE_TIMEOUT",
	RetryMax: "GATEHOUSE_CLASSIFIER_IMAGE_RETRY_MAX",
}

var notifyEnv = &notify.Env{
	WebhookURL: "GATEHOUSE_NOTIFY_WEBHOOK_URL",
	Token:      "GATEHOUSE_NOTIFY_TOKEN",
	Timeout:    "GATEHOUSE_NOTIFY_TIMEOUT",
	RetryMax:   "GATEHOUSE_NOTIFY_RETRY_MAX",
}

// ModerationConfig holds the decision engine's timing, classifier endpoints,
// verdict thresholds, and review notification settings.
type ModerationConfig struct {
	JoinTimeout   string                    `toml:"join_timeout"`
	SweepInterval string                    `toml:"sweep_interval"`
	Text          classifiers.ServiceConfig `toml:"text"`
	Image         classifiers.ServiceConfig `toml:"image"`
	Thresholds    classifiers.Thresholds    `toml:"thresholds"`
	Notify        notify.Config             `toml:"notify"`
}

// Options returns the engine timing options.
func (c *ModerationConfig) Options() moderation.Options {
	join, _ := time.ParseDuration(c.JoinTimeout)
	sweep, _ := time.ParseDuration(c.SweepInterval)

	return moderation.Options{
		JoinTimeout:   join,
		SweepInterval: sweep,
	}
}

// Finalize applies defaults, environment variable overrides, and validation
// for the moderation config and its nested classifier and notify configs.
func (c *ModerationConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Text.Finalize(textClassifierEnv); err != nil {
		return fmt.Errorf("text classifier: %w", err)
	}
	if err := c.Image.Finalize(imageClassifierEnv); err != nil {
		return fmt.Errorf("image classifier: %w", err)
	}
	if err := c.Notify.Finalize(notifyEnv); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *ModerationConfig) Merge(overlay *ModerationConfig) {
	if overlay.JoinTimeout != "" {
		c.JoinTimeout = overlay.JoinTimeout
	}
	if overlay.SweepInterval != "" {
		c.SweepInterval = overlay.SweepInterval
	}

	c.Text.Merge(&overlay.Text)
	c.Image.Merge(&overlay.Image)
	c.Thresholds.Merge(overlay.Thresholds)
	c.Notify.Merge(&overlay.Notify)
}

func (c *ModerationConfig) loadDefaults() {
	if c.JoinTimeout == "" {
		c.JoinTimeout = "30s"
	}
	if c.SweepInterval == "" {
		c.SweepInterval = "5s"
	}

	defaults := classifiers.DefaultThresholds()
	if c.Thresholds.TextConfidence == 0 {
		c.Thresholds.TextConfidence = defaults.TextConfidence
	}
	if c.Thresholds.ImageReject == 0 {
		c.Thresholds.ImageReject = defaults.ImageReject
	}
	if c.Thresholds.ImageReview == 0 {
		c.Thresholds.ImageReview = defaults.ImageReview
	}
}

func (c *ModerationConfig) loadEnv() {
	if v := os.Getenv(EnvModerationJoinTimeout); v != "" {
		c.JoinTimeout = v
	}
	if v := os.Getenv(EnvModerationSweepInterval); v != "" {
		c.SweepInterval = v
	}
}

func (c *ModerationConfig) validate() error {
	if _, err := time.ParseDuration(c.JoinTimeout); err != nil {
		return fmt.Errorf("invalid join_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.SweepInterval); err != nil {
		return fmt.Errorf("invalid sweep_interval: %w", err)
	}
	if c.Thresholds.ImageReview > c.Thresholds.ImageReject {
		return fmt.Errorf(
			"image_review threshold %.2f exceeds image_reject %.2f",
			c.Thresholds.ImageReview,
			c.Thresholds.ImageReject,
		)
	}
	return nil
}
