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

type httpImageAnalyzer struct {
	client   *retryablehttp.Client
	endpoint string
}

// NewImageAnalyzer returns an ImageAnalyzer backed by the image safety
// service at the configured endpoint. The analyzer sends the stored image
// key, not the bytes; the service reads from the shared media store.
func NewImageAnalyzer(cfg *ServiceConfig) ImageAnalyzer {
	return &httpImageAnalyzer{
		client:   cfg.Client(),
		endpoint: cfg.Endpoint,
	}
}

func (a *httpImageAnalyzer) DetectLabels(ctx context.Context, imageKey string) (*ImageAnalysis, error) {
	body, err := json.Marshal(map[string]string{"image_key": imageKey})
	if err != nil {
		return nil, fmt.Errorf("failed to encode label request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build label request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image safety service unreachable: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image safety service responded %d", res.StatusCode)
	}

	var analysis ImageAnalysis
	if err := json.NewDecoder(res.Body).Decode(&analysis); err != nil {
		return nil, fmt.Errorf("failed to decode label response: %w", err)
	}

	return &analysis, nil
}

// ImageSource adapts an ImageAnalyzer into a moderation verdict source.
type ImageSource struct {
	analyzer   ImageAnalyzer
	thresholds Thresholds
}

func NewImageSource(analyzer ImageAnalyzer, thresholds Thresholds) *ImageSource {
	return &ImageSource{
		analyzer:   analyzer,
		thresholds: thresholds,
	}
}

func (s *ImageSource) Modality() moderation.Modality {
	return moderation.ModalityImage
}

func (s *ImageSource) Evaluate(ctx context.Context, c moderation.Content) moderation.Verdict {
	analysis, err := s.analyzer.DetectLabels(ctx, c.ImageKey)
	return NormalizeImage(c.SubmissionID, analysis, err, s.thresholds)
}
