package classifiers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/gatehouse-io/gatehouse/internal/moderation"
)

type httpTextAnalyzer struct {
	client   *retryablehttp.Client
	endpoint string
}

// NewTextAnalyzer returns a TextAnalyzer backed by the sentiment service
// at the configured endpoint.
func NewTextAnalyzer(cfg *ServiceConfig) TextAnalyzer {
	return &httpTextAnalyzer{
		client:   cfg.Client(),
		endpoint: cfg.Endpoint,
	}
}

func (a *httpTextAnalyzer) DetectSentiment(ctx context.Context, text string) (*TextAnalysis, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode sentiment request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build sentiment request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sentiment service unreachable: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sentiment service responded %d", res.StatusCode)
	}

	var analysis TextAnalysis
	if err := json.NewDecoder(res.Body).Decode(&analysis); err != nil {
		return nil, fmt.Errorf("failed to decode sentiment response: %w", err)
	}

	return &analysis, nil
}

// TextSource adapts a TextAnalyzer into a moderation verdict source.
type TextSource struct {
	analyzer   TextAnalyzer
	thresholds Thresholds
}

func NewTextSource(analyzer TextAnalyzer, thresholds Thresholds) *TextSource {
	return &TextSource{
		analyzer:   analyzer,
		thresholds: thresholds,
	}
}

func (s *TextSource) Modality() moderation.Modality {
	return moderation.ModalityText
}

func (s *TextSource) Evaluate(ctx context.Context, c moderation.Content) moderation.Verdict {
	analysis, err := s.analyzer.DetectSentiment(ctx, c.Text)
	return NormalizeText(c.SubmissionID, analysis, err, s.thresholds)
}
