// Package classifiers wraps the external per-modality analysis services and
// normalizes their raw output into canonical moderation verdicts under fixed,
// auditable thresholds. A classifier failure never drops a modality: it
// normalizes to an explicit ambiguous verdict carrying the error, so the join
// barrier still sees the modality arrive.
package classifiers

import (
	"context"

	"github.com/gatehouse-io/gatehouse/internal/moderation"
)

// TextAnalysis is the raw output of the sentiment service: a dominant
// sentiment label with per-class confidence scores.
type TextAnalysis struct {
	Sentiment string             `json:"sentiment"`
	Scores    map[string]float64 `json:"confidence_scores"`
}

// ImageAnalysis is the raw output of the image safety service: zero or more
// content labels with confidence percentages.
type ImageAnalysis struct {
	Labels []moderation.LabelScore `json:"labels"`
}

// TextAnalyzer produces a sentiment analysis for free text.
type TextAnalyzer interface {
	DetectSentiment(ctx context.Context, text string) (*TextAnalysis, error)
}

// ImageAnalyzer produces content-safety labels for a stored image.
type ImageAnalyzer interface {
	DetectLabels(ctx context.Context, imageKey string) (*ImageAnalysis, error)
}

// Sentiment labels recognized by the normalizer.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentNeutral  = "NEUTRAL"
	SentimentMixed    = "MIXED"
)
