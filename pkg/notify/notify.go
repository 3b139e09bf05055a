// Package notify delivers human-review notifications to an external webhook.
// Delivery is at-least-once: duplicate notifications for the same submission
// are acceptable and the receiver is expected to tolerate them.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

// ReviewRequest is the payload posted when a submission routes to human review.
type ReviewRequest struct {
	SubmissionID string            `json:"submission_id"`
	Preview      string            `json:"preview"`
	Decisions    map[string]string `json:"per_modality_decisions"`
}

// System delivers review notifications.
type System interface {
	// ReviewRequested posts a review notification. Errors are delivery failures
	// after retries; callers treat them as non-fatal.
	ReviewRequested(ctx context.Context, req ReviewRequest) error
}

type webhook struct {
	client *retryablehttp.Client
	url    string
	token  string
	logger *slog.Logger
}

// New creates a notification system from the given configuration.
// An empty webhook URL yields a no-op system so unconfigured deployments
// still aggregate normally.
func New(cfg *Config, logger *slog.Logger) System {
	if cfg.WebhookURL == "" {
		return &noop{logger: logger.With("system", "notify")}
	}

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	client.HTTPClient.Timeout = cfg.TimeoutDuration()
	client.Logger = nil

	return &webhook{
		client: client,
		url:    cfg.WebhookURL,
		token:  cfg.Token,
		logger: logger.With("system", "notify"),
	}
}

func (w *webhook) ReviewRequested(ctx context.Context, req ReviewRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal review notification: %w", err)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build review notification: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("post review notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("review notification rejected: status %d", resp.StatusCode)
	}

	w.logger.Info("review notification sent", "submission_id", req.SubmissionID)
	return nil
}

type noop struct {
	logger *slog.Logger
}

func (n *noop) ReviewRequested(_ context.Context, req ReviewRequest) error {
	n.logger.Info("review pending (no webhook configured)", "submission_id", req.SubmissionID)
	return nil
}
