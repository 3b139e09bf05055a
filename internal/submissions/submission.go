// Package submissions implements the submission domain for Gatehouse.
// It provides types, data access, and business logic for content intake,
// media storage integration, and moderation status reporting.
package submissions

import (
	"time"

	"github.com/google/uuid"
)

// Submission represents a piece of user content accepted for moderation.
// Text and ImageKey are the independently evaluated modalities; at least one
// is always present.
type Submission struct {
	ID        uuid.UUID `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text,omitempty"`
	ImageKey  string    `json:"image_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateCommand carries the data needed to register a new submission.
// ImageKey references media previously uploaded through the media endpoint.
type CreateCommand struct {
	Author   string `json:"author"`
	Text     string `json:"text"`
	ImageKey string `json:"image_key"`
}

// Status is the public moderation state of a submission. A submission without
// a committed disposition reports pending, whether its classifiers are still
// running or a human reviewer holds it.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// StatusResult reports a submission's moderation state. DecidedAt is set once
// a disposition exists, including while a human review is pending.
type StatusResult struct {
	SubmissionID uuid.UUID  `json:"submission_id"`
	Status       Status     `json:"status"`
	DecidedAt    *time.Time `json:"decided_at,omitempty"`
}
