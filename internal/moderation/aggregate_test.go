package moderation

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/gatehouse-io/gatehouse/internal/dispositions"
)

func verdict(m Modality, d Decision) Verdict {
	return Verdict{
		SubmissionID: uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		Modality:     m,
		Decision:     d,
		Nonce:        uuid.New(),
	}
}

func TestDecide(t *testing.T) {
	both := []Modality{ModalityText, ModalityImage}

	tests := []struct {
		name     string
		expected []Modality
		arrived  []Verdict
		timedOut bool
		want     dispositions.Outcome
	}{
		{
			name:     "all approve",
			expected: both,
			arrived: []Verdict{
				verdict(ModalityText, DecisionApprove),
				verdict(ModalityImage, DecisionApprove),
			},
			want: dispositions.OutcomeApproved,
		},
		{
			name:     "reject dominates approve",
			expected: both,
			arrived: []Verdict{
				verdict(ModalityText, DecisionApprove),
				verdict(ModalityImage, DecisionReject),
			},
			want: dispositions.OutcomeRejected,
		},
		{
			name:     "reject dominates ambiguous",
			expected: both,
			arrived: []Verdict{
				verdict(ModalityText, DecisionAmbiguous),
				verdict(ModalityImage, DecisionReject),
			},
			want: dispositions.OutcomeRejected,
		},
		{
			name:     "ambiguous dominates approve",
			expected: both,
			arrived: []Verdict{
				verdict(ModalityText, DecisionAmbiguous),
				verdict(ModalityImage, DecisionApprove),
			},
			want: dispositions.OutcomePendingReview,
		},
		{
			name:     "single modality approve",
			expected: []Modality{ModalityText},
			arrived:  []Verdict{verdict(ModalityText, DecisionApprove)},
			want:     dispositions.OutcomeApproved,
		},
		{
			name:     "missing modality on timeout is ambiguous",
			expected: both,
			arrived:  []Verdict{verdict(ModalityText, DecisionApprove)},
			timedOut: true,
			want:     dispositions.OutcomePendingReview,
		},
		{
			name:     "missing modality with reject still rejects",
			expected: both,
			arrived:  []Verdict{verdict(ModalityText, DecisionReject)},
			timedOut: true,
			want:     dispositions.OutcomeRejected,
		},
		{
			name:     "nothing arrived on timeout",
			expected: both,
			arrived:  nil,
			timedOut: true,
			want:     dispositions.OutcomePendingReview,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := decide(tt.expected, tt.arrived, tt.timedOut)
			if got != tt.want {
				t.Errorf("decide() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecideOrderIndependent(t *testing.T) {
	expected := []Modality{ModalityText, ModalityImage}
	forward := []Verdict{
		verdict(ModalityText, DecisionReject),
		verdict(ModalityImage, DecisionAmbiguous),
	}
	reverse := []Verdict{forward[1], forward[0]}

	a, _ := decide(expected, forward, false)
	b, _ := decide(expected, reverse, false)

	if a != b {
		t.Errorf("outcome depends on arrival order: %q vs %q", a, b)
	}
}

func TestDecideReason(t *testing.T) {
	expected := []Modality{ModalityText, ModalityImage}
	arrived := []Verdict{verdict(ModalityText, DecisionApprove)}

	_, reason := decide(expected, arrived, true)

	if !reason.TimedOut {
		t.Error("reason.TimedOut = false, want true")
	}
	if len(reason.Missing) != 1 || reason.Missing[0] != ModalityImage {
		t.Errorf("reason.Missing = %v, want [image]", reason.Missing)
	}
	if reason.PerModality[ModalityText] != DecisionApprove {
		t.Errorf("per_modality[text] = %q, want approve", reason.PerModality[ModalityText])
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name    string
		content Content
		want    string
	}{
		{
			name:    "text only",
			content: Content{Text: "hello world"},
			want:    "hello world",
		},
		{
			name:    "image only",
			content: Content{ImageKey: "media/abc/cat.png"},
			want:    "[image: media/abc/cat.png]",
		},
		{
			name:    "text and image",
			content: Content{Text: "caption", ImageKey: "k"},
			want:    "caption [image: k]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := preview(&tt.content); got != tt.want {
				t.Errorf("preview() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("long text truncates", func(t *testing.T) {
		c := Content{Text: strings.Repeat("a", 500)}
		got := preview(&c)
		if len([]rune(got)) > 141 {
			t.Errorf("preview length = %d, want <= 141", len([]rune(got)))
		}
	})

	t.Run("truncation keeps rune boundaries", func(t *testing.T) {
		c := Content{Text: strings.Repeat("é", 200)}
		got := preview(&c)
		if !utf8.ValidString(got) {
			t.Errorf("preview emitted invalid utf-8: %q", got)
		}
	})
}
