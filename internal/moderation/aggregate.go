package moderation

import (
	"unicode/utf8"

	"github.com/gatehouse-io/gatehouse/internal/dispositions"
)

// decide merges the arrived verdicts for a submission into a final outcome
// under strict precedence: any reject dominates, then any ambiguity (including
// an expected modality that never reported), else approval. The result depends
// only on the set of arrived decisions, never their arrival order.
func decide(expected []Modality, arrived []Verdict, timedOut bool) (dispositions.Outcome, Reason) {
	reason := Reason{
		PerModality: make(map[Modality]Decision, len(arrived)),
		Details:     make(map[Modality]ScoreDetail, len(arrived)),
		TimedOut:    timedOut,
	}

	for _, v := range arrived {
		reason.PerModality[v.Modality] = v.Decision
		reason.Details[v.Modality] = v.ScoreDetail
	}

	for _, m := range expected {
		if _, ok := reason.PerModality[m]; !ok {
			reason.Missing = append(reason.Missing, m)
		}
	}

	rejected := false
	ambiguous := len(reason.Missing) > 0

	for _, v := range arrived {
		switch v.Decision {
		case DecisionReject:
			rejected = true
		case DecisionAmbiguous:
			ambiguous = true
		}
	}

	switch {
	case rejected:
		return dispositions.OutcomeRejected, reason
	case ambiguous:
		return dispositions.OutcomePendingReview, reason
	default:
		return dispositions.OutcomeApproved, reason
	}
}

// preview produces the reviewer-facing content summary for notifications.
func preview(c *Content) string {
	const maxPreview = 140

	text := c.Text
	if len(text) > maxPreview {
		// Back off to a rune boundary so the cut never splits a multi-byte
		// character and emits invalid UTF-8.
		cut := maxPreview
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "…"
	}

	switch {
	case text != "" && c.ImageKey != "":
		return text + " [image: " + c.ImageKey + "]"
	case c.ImageKey != "":
		return "[image: " + c.ImageKey + "]"
	default:
		return text
	}
}
