package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/precislabs/precis/internal/engine"
)

// SystemInstruction is the fixed generation instruction. The output contract
// is a 3-5 sentence plain-language summary covering purpose, eligibility, and
// key benefits, with personal data explicitly excluded.
const SystemInstruction = "You are a government document summarizer. " +
	"Write a concise plain-language summary in 3-5 sentences. " +
	"Focus on the program's purpose, eligibility, and key benefits. " +
	"Do not reproduce personally identifiable information."

// TruncationMarker is appended whenever input text is cut at the cap.
const TruncationMarker = "\n[Content truncated for summarization]"

// DefaultTruncationCap bounds the text sent for generation, keeping requests
// inside the model's context window.
const DefaultTruncationCap = 60000

// Generator produces text from a system instruction and user content.
type Generator interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Summarizer generates a plain-language summary of extracted document text.
// Truncation is deterministic; the generated summary is not, which is
// acceptable because the requirement is a valid summary, not a specific one.
type Summarizer struct {
	generator Generator
	cap       int
	logger    *slog.Logger
}

// NewSummarizer creates the summarization activity with the given character cap.
func NewSummarizer(generator Generator, cap int, logger *slog.Logger) *Summarizer {
	if cap <= 0 {
		cap = DefaultTruncationCap
	}
	return &Summarizer{
		generator: generator,
		cap:       cap,
		logger:    logger.With("activity", "summarize"),
	}
}

func (a *Summarizer) Name() string {
	return "summarize"
}

// Execute truncates the extracted text at the configured cap and requests a
// summary from the generation capability. Generation failures are transient;
// the service's own throttling and timeout behavior drives the retry budget.
func (a *Summarizer) Execute(ctx context.Context, input string) (string, error) {
	extracted, err := Decode[ExtractedText](input)
	if err != nil {
		return "", engine.PermanentInput(err)
	}

	text := Truncate(extracted.Text, a.cap)
	prompt := fmt.Sprintf("Summarize this government program document:\n\n%s", text)

	summary, err := a.generator.Complete(ctx, SystemInstruction, prompt)
	if err != nil {
		return "", engine.Transient(err)
	}

	a.logger.Info(
		"summary generated",
		"program_id", extracted.ProgramID,
		"input_length", len(text),
		"summary_length", len(summary),
	)

	return Encode(SummaryResult{
		ProgramID: extracted.ProgramID,
		Summary:   summary,
	})
}

// Truncate keeps exactly the first cap characters and appends the truncation
// marker when text exceeds the cap; shorter text passes through unmodified.
func Truncate(text string, cap int) string {
	if len(text) <= cap {
		return text
	}
	return text[:cap] + TruncationMarker
}
