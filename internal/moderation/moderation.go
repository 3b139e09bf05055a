// Package moderation implements the fan-out/fan-in decision engine for Gatehouse.
// It owns the join barrier that tracks which modalities a submission expects,
// the verdict records that arrive from classifiers (at-least-once, unordered),
// and the aggregation policy that commits exactly one disposition per submission.
package moderation

import (
	"time"

	"github.com/google/uuid"
)

// Modality identifies an independent content dimension evaluated by one classifier.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
)

// Decision is a classifier's normalized call for a single modality.
type Decision string

const (
	DecisionApprove   Decision = "approve"
	DecisionReject    Decision = "reject"
	DecisionAmbiguous Decision = "ambiguous"
)

// JoinStatus tracks a submission's progress through the join barrier.
type JoinStatus string

const (
	JoinWaiting  JoinStatus = "waiting"
	JoinReady    JoinStatus = "ready"
	JoinTimedOut JoinStatus = "timed_out"
)

// LabelScore is one (label, confidence) pair from an image classifier.
type LabelScore struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// ScoreDetail retains the raw classifier evidence behind a decision for audit.
// Text verdicts populate Sentiment and ConfidenceScores; image verdicts
// populate Labels and MaxConfidence. Error carries the classifier failure
// that forced an ambiguous call, if any.
type ScoreDetail struct {
	Sentiment        string             `json:"sentiment,omitempty"`
	ConfidenceScores map[string]float64 `json:"confidence_scores,omitempty"`
	Labels           []LabelScore       `json:"labels,omitempty"`
	MaxConfidence    float64            `json:"max_confidence,omitempty"`
	Error            string             `json:"error,omitempty"`
}

// Verdict is a classifier's structured output for one modality of one submission.
// The same (submission_id, modality) pair may be delivered multiple times;
// the engine absorbs replays by replacing the stored verdict for the modality.
type Verdict struct {
	SubmissionID uuid.UUID   `json:"submission_id"`
	Modality     Modality    `json:"modality"`
	Decision     Decision    `json:"decision"`
	ScoreDetail  ScoreDetail `json:"score_detail"`
	ProducedAt   time.Time   `json:"produced_at"`
	Nonce        uuid.UUID   `json:"nonce"`
}

// Content is the classifier-facing view of a submission.
type Content struct {
	SubmissionID uuid.UUID
	Text         string
	ImageKey     string
}

// Modalities returns the expected modality set derived from the content itself,
// never from which verdicts happen to arrive.
func (c Content) Modalities() []Modality {
	var expected []Modality
	if c.Text != "" {
		expected = append(expected, ModalityText)
	}
	if c.ImageKey != "" {
		expected = append(expected, ModalityImage)
	}
	return expected
}

// JoinState is the per-submission join barrier record. Owned exclusively by
// the engine; it transitions from waiting to exactly one of ready or timed_out.
type JoinState struct {
	SubmissionID uuid.UUID  `json:"submission_id"`
	Expected     []Modality `json:"expected"`
	Status       JoinStatus `json:"status"`
	Deadline     time.Time  `json:"deadline"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Reason is the audit trail persisted with each disposition: what each
// modality decided, which expected modalities never reported, and whether
// the join timed out before completion.
type Reason struct {
	PerModality map[Modality]Decision    `json:"per_modality"`
	Missing     []Modality               `json:"missing,omitempty"`
	TimedOut    bool                     `json:"timed_out,omitempty"`
	Details     map[Modality]ScoreDetail `json:"details,omitempty"`
}
