package classifiers

import (
	"time"

	"github.com/google/uuid"

	"github.com/gatehouse-io/gatehouse/internal/moderation"
)

// Thresholds fixes the verdict boundaries applied by the normalizer. The
// values are part of the decision contract: changing them changes which
// submissions reach human review.
type Thresholds struct {
	// TextConfidence is the minimum dominant-sentiment confidence for a
	// text verdict to be terminal. Below it the verdict is ambiguous.
	TextConfidence float64 `toml:"text_confidence"`
	// ImageReject rejects when any label's confidence exceeds it.
	ImageReject float64 `toml:"image_reject"`
	// ImageReview marks ambiguous when any label's confidence falls in
	// [ImageReview, ImageReject].
	ImageReview float64 `toml:"image_review"`
}

// DefaultThresholds returns the standard moderation boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TextConfidence: 0.85,
		ImageReject:    75,
		ImageReview:    40,
	}
}

func (t *Thresholds) Merge(o Thresholds) {
	if o.TextConfidence > 0 {
		t.TextConfidence = o.TextConfidence
	}

	if o.ImageReject > 0 {
		t.ImageReject = o.ImageReject
	}

	if o.ImageReview > 0 {
		t.ImageReview = o.ImageReview
	}
}

// NormalizeText maps a raw sentiment analysis onto a canonical verdict.
// A nil analysis with a non-nil err normalizes to ambiguous with the error
// recorded in the score detail.
func NormalizeText(submissionID uuid.UUID, a *TextAnalysis, err error, t Thresholds) moderation.Verdict {
	v := moderation.Verdict{
		SubmissionID: submissionID,
		Modality:     moderation.ModalityText,
		ProducedAt:   time.Now().UTC(),
		Nonce:        uuid.New(),
	}

	if err != nil {
		v.Decision = moderation.DecisionAmbiguous
		v.ScoreDetail = moderation.ScoreDetail{Error: err.Error()}
		return v
	}

	v.ScoreDetail = moderation.ScoreDetail{
		Sentiment:        a.Sentiment,
		ConfidenceScores: a.Scores,
		MaxConfidence:    maxScore(a.Scores),
	}

	switch {
	case a.Sentiment == SentimentPositive && a.Scores["Positive"] > t.TextConfidence:
		v.Decision = moderation.DecisionApprove
	case a.Sentiment == SentimentNegative && a.Scores["Negative"] > t.TextConfidence:
		v.Decision = moderation.DecisionReject
	default:
		v.Decision = moderation.DecisionAmbiguous
	}

	return v
}

// NormalizeImage maps raw content-safety labels onto a canonical verdict.
// Rejection takes priority over review: a single label above the reject
// threshold rejects regardless of the others.
func NormalizeImage(submissionID uuid.UUID, a *ImageAnalysis, err error, t Thresholds) moderation.Verdict {
	v := moderation.Verdict{
		SubmissionID: submissionID,
		Modality:     moderation.ModalityImage,
		ProducedAt:   time.Now().UTC(),
		Nonce:        uuid.New(),
	}

	if err != nil {
		v.Decision = moderation.DecisionAmbiguous
		v.ScoreDetail = moderation.ScoreDetail{Error: err.Error()}
		return v
	}

	detail := moderation.ScoreDetail{Labels: a.Labels}

	var reject, review bool

	for _, l := range a.Labels {
		if l.Confidence > detail.MaxConfidence {
			detail.MaxConfidence = l.Confidence
		}

		switch {
		case l.Confidence > t.ImageReject:
			reject = true
		case l.Confidence >= t.ImageReview:
			review = true
		}
	}

	v.ScoreDetail = detail

	switch {
	case reject:
		v.Decision = moderation.DecisionReject
	case review:
		v.Decision = moderation.DecisionAmbiguous
	default:
		v.Decision = moderation.DecisionApprove
	}

	return v
}

func maxScore(scores map[string]float64) float64 {
	var max float64

	for _, s := range scores {
		if s > max {
			max = s
		}
	}

	return max
}
