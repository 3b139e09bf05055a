package classifiers

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/gatehouse-io/gatehouse/internal/moderation"
)

var testID = uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

func TestNormalizeText(t *testing.T) {
	thresholds := DefaultThresholds()

	tests := []struct {
		name     string
		analysis *TextAnalysis
		err      error
		want     moderation.Decision
	}{
		{
			name: "confident positive approves",
			analysis: &TextAnalysis{
				Sentiment: SentimentPositive,
				Scores:    map[string]float64{"Positive": 0.97, "Negative": 0.01},
			},
			want: moderation.DecisionApprove,
		},
		{
			name: "confident negative rejects",
			analysis: &TextAnalysis{
				Sentiment: SentimentNegative,
				Scores:    map[string]float64{"Positive": 0.02, "Negative": 0.93},
			},
			want: moderation.DecisionReject,
		},
		{
			name: "positive at threshold is ambiguous",
			analysis: &TextAnalysis{
				Sentiment: SentimentPositive,
				Scores:    map[string]float64{"Positive": 0.85},
			},
			want: moderation.DecisionAmbiguous,
		},
		{
			name: "weak negative is ambiguous",
			analysis: &TextAnalysis{
				Sentiment: SentimentNegative,
				Scores:    map[string]float64{"Negative": 0.60},
			},
			want: moderation.DecisionAmbiguous,
		},
		{
			name: "neutral is ambiguous",
			analysis: &TextAnalysis{
				Sentiment: SentimentNeutral,
				Scores:    map[string]float64{"Neutral": 0.99},
			},
			want: moderation.DecisionAmbiguous,
		},
		{
			name: "mixed is ambiguous",
			analysis: &TextAnalysis{
				Sentiment: SentimentMixed,
				Scores:    map[string]float64{"Mixed": 0.99},
			},
			want: moderation.DecisionAmbiguous,
		},
		{
			name: "analyzer failure is ambiguous",
			err:  errors.New("service unreachable"),
			want: moderation.DecisionAmbiguous,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NormalizeText(testID, tt.analysis, tt.err, thresholds)

			if v.Decision != tt.want {
				t.Errorf("decision = %q, want %q", v.Decision, tt.want)
			}
			if v.SubmissionID != testID {
				t.Errorf("submission_id = %v, want %v", v.SubmissionID, testID)
			}
			if v.Modality != moderation.ModalityText {
				t.Errorf("modality = %q, want text", v.Modality)
			}
			if v.Nonce == uuid.Nil {
				t.Error("nonce not set")
			}
			if tt.err != nil && v.ScoreDetail.Error == "" {
				t.Error("score detail missing error")
			}
		})
	}
}

func TestNormalizeImage(t *testing.T) {
	thresholds := DefaultThresholds()

	tests := []struct {
		name   string
		labels []moderation.LabelScore
		err    error
		want   moderation.Decision
	}{
		{
			name:   "no labels approves",
			labels: nil,
			want:   moderation.DecisionApprove,
		},
		{
			name: "low confidence labels approve",
			labels: []moderation.LabelScore{
				{Name: "Suggestive", Confidence: 12},
			},
			want: moderation.DecisionApprove,
		},
		{
			name: "mid confidence routes to review",
			labels: []moderation.LabelScore{
				{Name: "Violence", Confidence: 55},
			},
			want: moderation.DecisionAmbiguous,
		},
		{
			name: "review band lower bound inclusive",
			labels: []moderation.LabelScore{
				{Name: "Violence", Confidence: 40},
			},
			want: moderation.DecisionAmbiguous,
		},
		{
			name: "high confidence rejects",
			labels: []moderation.LabelScore{
				{Name: "Explicit", Confidence: 91},
			},
			want: moderation.DecisionReject,
		},
		{
			name: "single high label dominates low ones",
			labels: []moderation.LabelScore{
				{Name: "Suggestive", Confidence: 20},
				{Name: "Explicit", Confidence: 80},
				{Name: "Violence", Confidence: 50},
			},
			want: moderation.DecisionReject,
		},
		{
			name: "analyzer failure is ambiguous",
			err:  errors.New("timeout"),
			want: moderation.DecisionAmbiguous,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var analysis *ImageAnalysis
			if tt.err == nil {
				analysis = &ImageAnalysis{Labels: tt.labels}
			}

			v := NormalizeImage(testID, analysis, tt.err, thresholds)

			if v.Decision != tt.want {
				t.Errorf("decision = %q, want %q", v.Decision, tt.want)
			}
			if v.Modality != moderation.ModalityImage {
				t.Errorf("modality = %q, want image", v.Modality)
			}
		})
	}
}

func TestNormalizeImageMaxConfidence(t *testing.T) {
	analysis := &ImageAnalysis{Labels: []moderation.LabelScore{
		{Name: "A", Confidence: 30},
		{Name: "B", Confidence: 62},
		{Name: "C", Confidence: 11},
	}}

	v := NormalizeImage(testID, analysis, nil, DefaultThresholds())

	if v.ScoreDetail.MaxConfidence != 62 {
		t.Errorf("max confidence = %v, want 62", v.ScoreDetail.MaxConfidence)
	}
	if len(v.ScoreDetail.Labels) != 3 {
		t.Errorf("labels retained = %d, want 3", len(v.ScoreDetail.Labels))
	}
}

func TestThresholdsMerge(t *testing.T) {
	base := DefaultThresholds()
	base.Merge(Thresholds{ImageReject: 90})

	if base.ImageReject != 90 {
		t.Errorf("image reject = %v, want 90", base.ImageReject)
	}
	if base.TextConfidence != 0.85 {
		t.Errorf("text confidence = %v, want unchanged 0.85", base.TextConfidence)
	}
}
