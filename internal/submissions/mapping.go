package submissions

import (
	"database/sql"
	"net/url"
	"strconv"

	"github.com/gatehouse-io/gatehouse/pkg/query"
	"github.com/gatehouse-io/gatehouse/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "submissions", "s").
	Project("id", "ID").
	Project("author", "Author").
	Project("text", "Text").
	Project("image_key", "ImageKey").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for submission queries.
// Nil fields are ignored. Author uses exact matching; HasText and HasImage
// filter on modality presence.
type Filters struct {
	Author   *string `json:"author,omitempty"`
	HasText  *bool   `json:"has_text,omitempty"`
	HasImage *bool   `json:"has_image,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Author", f.Author).
		WherePresent("Text", f.HasText).
		WherePresent("ImageKey", f.HasImage)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if a := values.Get("author"); a != "" {
		f.Author = &a
	}

	if ht := values.Get("has_text"); ht != "" {
		if v, err := strconv.ParseBool(ht); err == nil {
			f.HasText = &v
		}
	}

	if hi := values.Get("has_image"); hi != "" {
		if v, err := strconv.ParseBool(hi); err == nil {
			f.HasImage = &v
		}
	}

	return f
}

func scanSubmission(sc repository.Scanner) (Submission, error) {
	var s Submission
	var text, imageKey sql.NullString

	err := sc.Scan(
		&s.ID,
		&s.Author,
		&text,
		&imageKey,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return s, err
	}

	s.Text = text.String
	s.ImageKey = imageKey.String
	return s, nil
}
