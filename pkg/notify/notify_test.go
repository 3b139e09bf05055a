package notify_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gatehouse-io/gatehouse/pkg/notify"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func request() notify.ReviewRequest {
	return notify.ReviewRequest{
		SubmissionID: "550e8400-e29b-41d4-a716-446655440000",
		Preview:      "borderline caption [image: media/x/y.png]",
		Decisions:    map[string]string{"text": "ambiguous", "image": "approve"},
	}
}

func TestWebhookDelivery(t *testing.T) {
	var gotAuth string
	var gotBody notify.ReviewRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	cfg := &notify.Config{WebhookURL: server.URL, Token: "secret"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	sys := notify.New(cfg, testLogger())

	if err := sys.ReviewRequested(context.Background(), request()); err != nil {
		t.Fatalf("ReviewRequested: %v", err)
	}

	if gotAuth != "Bearer secret" {
		t.Errorf("authorization = %q, want bearer token", gotAuth)
	}
	if gotBody.SubmissionID != request().SubmissionID {
		t.Errorf("submission_id = %q, want %q", gotBody.SubmissionID, request().SubmissionID)
	}
	if gotBody.Decisions["text"] != "ambiguous" {
		t.Errorf("text decision = %q, want ambiguous", gotBody.Decisions["text"])
	}
}

func TestWebhookRejectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	cfg := &notify.Config{WebhookURL: server.URL}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	sys := notify.New(cfg, testLogger())

	if err := sys.ReviewRequested(context.Background(), request()); err == nil {
		t.Error("expected error for rejected notification")
	}
}

func TestNoopWhenUnconfigured(t *testing.T) {
	cfg := &notify.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	sys := notify.New(cfg, testLogger())

	if err := sys.ReviewRequested(context.Background(), request()); err != nil {
		t.Errorf("noop returned error: %v", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := &notify.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	if cfg.Timeout != "10s" {
		t.Errorf("timeout = %q, want 10s", cfg.Timeout)
	}
	if cfg.RetryMax != 3 {
		t.Errorf("retry_max = %d, want 3", cfg.RetryMax)
	}
}

func TestConfigEnvOverride(t *testing.T) {
	t.Setenv("NOTIFY_TEST_WEBHOOK_URL", "https://hooks.example.com/review")

	cfg := &notify.Config{}
	env := &notify.Env{WebhookURL: "NOTIFY_TEST_WEBHOOK_URL"}
	if err := cfg.Finalize(env); err != nil {
		t.Fatal(err)
	}

	if cfg.WebhookURL != "https://hooks.example.com/review" {
		t.Errorf("webhook_url = %q, want env value", cfg.WebhookURL)
	}
}
