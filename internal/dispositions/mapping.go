package dispositions

import (
	"net/url"

	"github.com/gatehouse-io/gatehouse/pkg/query"
	"github.com/gatehouse-io/gatehouse/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "dispositions", "d").
	Project("submission_id", "SubmissionID").
	Project("outcome", "Outcome").
	Project("reason_detail", "ReasonDetail").
	Project("decided_at", "DecidedAt").
	Project("resolved_by", "ResolvedBy").
	Project("resolved_at", "ResolvedAt")

var defaultSort = query.SortField{
	Field:      "DecidedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for disposition queries.
// Nil fields are ignored.
type Filters struct {
	Outcome    *Outcome `json:"outcome,omitempty"`
	ResolvedBy *string  `json:"resolved_by,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Outcome", f.Outcome).
		WhereEquals("ResolvedBy", f.ResolvedBy)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if o := values.Get("outcome"); o != "" {
		outcome := Outcome(o)
		f.Outcome = &outcome
	}

	if r := values.Get("resolved_by"); r != "" {
		f.ResolvedBy = &r
	}

	return f
}

func scanDisposition(s repository.Scanner) (Disposition, error) {
	var d Disposition
	var reasonRaw []byte

	err := s.Scan(
		&d.SubmissionID,
		&d.Outcome,
		&reasonRaw,
		&d.DecidedAt,
		&d.ResolvedBy,
		&d.ResolvedAt,
	)
	if err != nil {
		return d, err
	}

	if len(reasonRaw) > 0 {
		d.ReasonDetail = append(d.ReasonDetail[:0], reasonRaw...)
	}

	return d, nil
}
