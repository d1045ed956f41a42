package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/precislabs/precis/internal/engine"
	"github.com/precislabs/precis/pkg/docintel"
	"github.com/precislabs/precis/pkg/storage"
)

// Analyzer performs full-document text recognition on a document URL.
type Analyzer interface {
	Analyze(ctx context.Context, urlSource string) (*docintel.Result, error)
}

// TextExtractor recognizes all text in an uploaded document. Output preserves
// strict reading order: every line of page n precedes every line of page n+1,
// and within a page lines keep the order the analysis service returned.
// No truncation happens at this step.
type TextExtractor struct {
	analyzer Analyzer
	storage  storage.System
	maxSize  int64
	logger   *slog.Logger
}

// NewTextExtractor creates the extraction activity. storage may be nil, in
// which case the pre-analysis PDF validation pass is skipped.
func NewTextExtractor(analyzer Analyzer, store storage.System, maxSize int64, logger *slog.Logger) *TextExtractor {
	return &TextExtractor{
		analyzer: analyzer,
		storage:  store,
		maxSize:  maxSize,
		logger:   logger.With("activity", "extract-text"),
	}
}

func (a *TextExtractor) Name() string {
	return "extract-text"
}

// Execute validates the document blob, runs text recognition against its URL,
// and returns the recognized lines joined with newlines. Malformed documents
// are permanent input failures; analysis service throttling and timeouts are
// transient.
func (a *TextExtractor) Execute(ctx context.Context, input string) (string, error) {
	locator, err := Decode[DocumentLocator](input)
	if err != nil {
		return "", engine.PermanentInput(err)
	}

	if a.storage != nil {
		if err := a.validateDocument(ctx, locator.StorageKey); err != nil {
			return "", err
		}
	}

	result, err := a.analyzer.Analyze(ctx, locator.URL)
	if err != nil {
		return "", classifyAnalysisError(err)
	}

	text := joinLines(result)
	if text == "" {
		return "", engine.PermanentInput(fmt.Errorf("no recognizable text in document %s", locator.StorageKey))
	}
	a.logger.Info(
		"document analyzed",
		"program_id", locator.ProgramID,
		"pages", len(result.Pages),
		"length", len(text),
	)

	return Encode(ExtractedText{
		ProgramID: locator.ProgramID,
		Text:      text,
	})
}

// validateDocument downloads the blob and checks PDF structure before
// spending an analysis call on it. A structurally broken document can never
// succeed, so it fails permanently here.
func (a *TextExtractor) validateDocument(ctx context.Context, key string) error {
	reader, err := a.storage.Download(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return engine.PermanentInput(fmt.Errorf("document blob missing: %s", key))
		}
		return engine.Transient(fmt.Errorf("download document: %w", err))
	}
	defer reader.Close()

	data, err := io.ReadAll(io.LimitReader(reader, a.maxSize+1))
	if err != nil {
		return engine.Transient(fmt.Errorf("read document: %w", err))
	}
	if int64(len(data)) > a.maxSize {
		return engine.PermanentInput(fmt.Errorf("document exceeds %d bytes", a.maxSize))
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return engine.PermanentInput(fmt.Errorf("unreadable document: %w", err))
	}

	a.logger.Info("document validated", "key", key, "page_count", count)
	return nil
}

func classifyAnalysisError(err error) error {
	var status *docintel.StatusError
	if errors.As(err, &status) && status.ClientFault() {
		return engine.PermanentInput(err)
	}

	var operation *docintel.OperationError
	if errors.As(err, &operation) && operation.InputFault() {
		return engine.PermanentInput(err)
	}

	return engine.Transient(err)
}

func joinLines(result *docintel.Result) string {
	var lines []string
	for _, page := range result.Pages {
		for _, line := range page.Lines {
			lines = append(lines, line.Content)
		}
	}
	return strings.Join(lines, "\n")
}
