package programs

import (
	"net/url"

	"github.com/precislabs/precis/pkg/query"
	"github.com/precislabs/precis/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "programs", "p").
	Project("id", "ID").
	Project("name", "Name").
	Project("description", "Description").
	Project("type", "Type").
	Project("status", "Status").
	Project("submitted_by", "SubmittedBy").
	Project("document_url", "DocumentURL").
	Project("ai_summary", "AISummary").
	Project("ai_summary_generated_at", "AISummaryGeneratedAt").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for program queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	Type        *string `json:"type,omitempty"`
	Status      *string `json:"status,omitempty"`
	SubmittedBy *string `json:"submitted_by,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Type", f.Type).
		WhereEquals("Status", f.Status).
		WhereEquals("SubmittedBy", f.SubmittedBy)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if t := values.Get("type"); t != "" {
		f.Type = &t
	}

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if s := values.Get("submitted_by"); s != "" {
		f.SubmittedBy = &s
	}

	return f
}

func scanProgram(s repository.Scanner) (Program, error) {
	var p Program

	err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Type,
		&p.Status,
		&p.SubmittedBy,
		&p.DocumentURL,
		&p.AISummary,
		&p.AISummaryGeneratedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	return p, err
}
