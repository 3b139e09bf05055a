package config

import (
	"testing"
	"time"
)

func moderationConfig() ModerationConfig {
	cfg := ModerationConfig{}
	cfg.Text.Endpoint = "http://localhost:9001/sentiment"
	cfg.Image.Endpoint = "http://localhost:9002/labels"
	return cfg
}

func TestModerationConfigDefaults(t *testing.T) {
	cfg := moderationConfig()
	if err := cfg.Finalize(); err != nil {
		t.Fatal(err)
	}

	opts := cfg.Options()
	if opts.JoinTimeout != 30*time.Second {
		t.Errorf("join timeout = %v, want 30s", opts.JoinTimeout)
	}
	if opts.SweepInterval != 5*time.Second {
		t.Errorf("sweep interval = %v, want 5s", opts.SweepInterval)
	}

	if cfg.Thresholds.TextConfidence != 0.85 {
		t.Errorf("text confidence = %v, want 0.85", cfg.Thresholds.TextConfidence)
	}
	if cfg.Thresholds.ImageReject != 75 {
		t.Errorf("image reject = %v, want 75", cfg.Thresholds.ImageReject)
	}
	if cfg.Thresholds.ImageReview != 40 {
		t.Errorf("image review = %v, want 40", cfg.Thresholds.ImageReview)
	}
}

func TestModerationConfigEnvOverride(t *testing.T) {
	t.Setenv(EnvModerationJoinTimeout, "45s")
	t.Setenv("GATEHOUSE_CLASSIFIER_TEXT_ENDPOINT", "http://sentiment.internal/v1")

	cfg := moderationConfig()
	if err := cfg.Finalize(); err != nil {
		t.Fatal(err)
	}

	if cfg.JoinTimeout != "45s" {
		t.Errorf("join_timeout = %q, want 45s", cfg.JoinTimeout)
	}
	if cfg.Text.Endpoint != "http://sentiment.internal/v1" {
		t.Errorf("text endpoint = %q, want env value", cfg.Text.Endpoint)
	}
}

func TestModerationConfigValidation(t *testing.T) {
	t.Run("invalid join_timeout", func(t *testing.T) {
		cfg := moderationConfig()
		cfg.JoinTimeout = "soon"
		if err := cfg.Finalize(); err == nil {
			t.Error("expected error for invalid join_timeout")
		}
	})

	t.Run("inverted image thresholds", func(t *testing.T) {
		cfg := moderationConfig()
		cfg.Thresholds.ImageReject = 30
		cfg.Thresholds.ImageReview = 60
		if err := cfg.Finalize(); err == nil {
			t.Error("expected error for review threshold above reject")
		}
	})

	t.Run("missing classifier endpoint", func(t *testing.T) {
		cfg := ModerationConfig{}
		cfg.Text.Endpoint = "http://localhost:9001/sentiment"
		if err := cfg.Finalize(); err == nil {
			t.Error("expected error for missing image endpoint")
		}
	})
}

func TestModerationConfigMerge(t *testing.T) {
	cfg := moderationConfig()

	base := moderationConfig()
	base.Merge(&ModerationConfig{JoinTimeout: "1m"})
	if base.JoinTimeout != "1m" {
		t.Errorf("join_timeout = %q, want 1m", base.JoinTimeout)
	}
	if base.Text.Endpoint != cfg.Text.Endpoint {
		t.Errorf("text endpoint = %q, want unchanged", base.Text.Endpoint)
	}
}
