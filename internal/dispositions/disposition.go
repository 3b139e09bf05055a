// Package dispositions implements the disposition domain for Gatehouse.
// It provides types, data access, and business logic for reading committed
// moderation outcomes, listing the human-review queue, and resolving pending
// reviews with a reviewer decision.
package dispositions

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Outcome is the final (or pending-review) state of a moderated submission.
type Outcome string

const (
	OutcomeApproved      Outcome = "approved"
	OutcomeRejected      Outcome = "rejected"
	OutcomePendingReview Outcome = "pending_review"
)

// ResolvedBySystem marks dispositions decided automatically by the engine.
const ResolvedBySystem = "system"

// Terminal reports whether the outcome admits no further transition.
func (o Outcome) Terminal() bool {
	return o == OutcomeApproved || o == OutcomeRejected
}

// Disposition represents the durable moderation outcome for one submission.
// It is created exactly once by the decision engine; a pending_review
// disposition is mutated exactly once more by a reviewer resolution.
type Disposition struct {
	SubmissionID uuid.UUID       `json:"submission_id"`
	Outcome      Outcome         `json:"outcome"`
	ReasonDetail json.RawMessage `json:"reason_detail"`
	DecidedAt    time.Time       `json:"decided_at"`
	ResolvedBy   *string         `json:"resolved_by"`
	ResolvedAt   *time.Time      `json:"resolved_at"`
}

// ResolveCommand carries a reviewer's decision for a pending review.
// Decision is APPROVE or REJECT; ReviewerID identifies the human reviewer.
type ResolveCommand struct {
	Decision   string `json:"decision"`
	ReviewerID string `json:"reviewer_id"`
}
