// Package programs implements the program record domain: the entities whose
// uploaded documents drive summarization, and the store of record that
// delivered summaries land in. It provides types, data access, and HTTP
// endpoints, including the partial-update surface the delivery activity
// writes through.
package programs

import "time"

// Program represents a government program record. AISummary and
// AISummaryGeneratedAt are nil until a summary has been delivered.
type Program struct {
	ID                   int64      `json:"id"`
	Name                 string     `json:"name"`
	Description          string     `json:"description"`
	Type                 string     `json:"type"`
	Status               string     `json:"status"`
	SubmittedBy          string     `json:"submitted_by"`
	DocumentURL          *string    `json:"document_url"`
	AISummary            *string    `json:"ai_summary"`
	AISummaryGeneratedAt *time.Time `json:"ai_summary_generated_at"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Summarized reports whether the program has a delivered summary.
func (p *Program) Summarized() bool {
	return p.AISummary != nil
}

// CreateCommand carries the data needed to register a program.
type CreateCommand struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	Status      string  `json:"status"`
	SubmittedBy string  `json:"submitted_by"`
	DocumentURL *string `json:"document_url"`
}

// UpdateSummaryCommand carries a generated summary for a program. Applying
// the same command twice yields the same stored state.
type UpdateSummaryCommand struct {
	Summary string `json:"summary"`
}

// MaxSummaryLength bounds the accepted summary size in characters.
const MaxSummaryLength = 10000
