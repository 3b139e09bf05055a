package classifiers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gatehouse-io/gatehouse/internal/moderation"
)

func serviceConfig(t *testing.T, endpoint string) *ServiceConfig {
	t.Helper()
	cfg := &ServiceConfig{Endpoint: endpoint, RetryMax: 1}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize service config: %v", err)
	}
	return cfg
}

func TestTextSourceEvaluate(t *testing.T) {
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(TextAnalysis{
			Sentiment: SentimentPositive,
			Scores:    map[string]float64{"Positive": 0.95},
		})
	}))
	defer server.Close()

	source := NewTextSource(
		NewTextAnalyzer(serviceConfig(t, server.URL)),
		DefaultThresholds(),
	)

	if source.Modality() != moderation.ModalityText {
		t.Fatalf("modality = %q, want text", source.Modality())
	}

	content := moderation.Content{SubmissionID: testID, Text: "great post"}
	v := source.Evaluate(context.Background(), content)

	if gotBody["text"] != "great post" {
		t.Errorf("request text = %q, want %q", gotBody["text"], "great post")
	}
	if v.Decision != moderation.DecisionApprove {
		t.Errorf("decision = %q, want approve", v.Decision)
	}
	if v.ScoreDetail.Sentiment != SentimentPositive {
		t.Errorf("sentiment = %q, want POSITIVE", v.ScoreDetail.Sentiment)
	}
}

func TestTextSourceServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	source := NewTextSource(
		NewTextAnalyzer(serviceConfig(t, server.URL)),
		DefaultThresholds(),
	)

	v := source.Evaluate(context.Background(), moderation.Content{SubmissionID: testID, Text: "x"})

	if v.Decision != moderation.DecisionAmbiguous {
		t.Errorf("decision = %q, want ambiguous on service failure", v.Decision)
	}
	if v.ScoreDetail.Error == "" {
		t.Error("score detail missing error")
	}
}

func TestImageSourceEvaluate(t *testing.T) {
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ImageAnalysis{
			Labels: []moderation.LabelScore{{Name: "Explicit", Confidence: 88}},
		})
	}))
	defer server.Close()

	source := NewImageSource(
		NewImageAnalyzer(serviceConfig(t, server.URL)),
		DefaultThresholds(),
	)

	if source.Modality() != moderation.ModalityImage {
		t.Fatalf("modality = %q, want image", source.Modality())
	}

	content := moderation.Content{SubmissionID: testID, ImageKey: "media/a/b.png"}
	v := source.Evaluate(context.Background(), content)

	if gotBody["image_key"] != "media/a/b.png" {
		t.Errorf("request image_key = %q, want %q", gotBody["image_key"], "media/a/b.png")
	}
	if v.Decision != moderation.DecisionReject {
		t.Errorf("decision = %q, want reject", v.Decision)
	}
}

func TestServiceConfigValidation(t *testing.T) {
	t.Run("missing endpoint fails", func(t *testing.T) {
		cfg := &ServiceConfig{}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("expected error for missing endpoint")
		}
	})

	t.Run("defaults applied", func(t *testing.T) {
		cfg := &ServiceConfig{Endpoint: "http://localhost:9000"}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatal(err)
		}
		if cfg.Timeout != "15s" {
			t.Errorf("timeout = %q, want 15s", cfg.Timeout)
		}
		if cfg.RetryMax != 2 {
			t.Errorf("retry_max = %d, want 2", cfg.RetryMax)
		}
	})
}
