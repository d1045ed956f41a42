package programs_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/precislabs/precis/internal/programs"
	"github.com/precislabs/precis/pkg/pagination"
	"github.com/precislabs/precis/pkg/routes"
)

type fakeSystem struct {
	programs.System
	summaries map[int64]string
	findErr   error
	updateErr error
}

func (s *fakeSystem) Find(_ context.Context, id int64) (*programs.Program, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return &programs.Program{ID: id, Name: "Housing Assistance"}, nil
}

func (s *fakeSystem) UpdateSummary(_ context.Context, id int64, cmd programs.UpdateSummaryCommand) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if len(cmd.Summary) == 0 || len(cmd.Summary) > programs.MaxSummaryLength {
		return programs.ErrInvalidSummary
	}
	s.summaries[id] = cmd.Summary
	return nil
}

func newTestMux(sys programs.System) *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := programs.NewHandler(sys, logger, pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})

	mux := http.NewServeMux()
	routes.Register(mux, handler.Routes())
	return mux
}

func TestHandlerFind(t *testing.T) {
	mux := newTestMux(&fakeSystem{})

	req := httptest.NewRequest(http.MethodGet, "/programs/42", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Housing Assistance") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandlerFindNotFound(t *testing.T) {
	mux := newTestMux(&fakeSystem{findErr: programs.ErrNotFound})

	req := httptest.NewRequest(http.MethodGet, "/programs/42", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandlerUpdateSummary(t *testing.T) {
	sys := &fakeSystem{summaries: map[int64]string{}}
	mux := newTestMux(sys)

	req := httptest.NewRequest(
		http.MethodPatch,
		"/programs/42/summary",
		strings.NewReader(`{"summary":"A concise summary."}`),
	)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if sys.summaries[42] != "A concise summary." {
		t.Errorf("expected stored summary, got %q", sys.summaries[42])
	}
}

func TestHandlerUpdateSummaryValidation(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		expected int
	}{
		{
			name:     "non-numeric id",
			path:     "/programs/abc/summary",
			body:     `{"summary":"S."}`,
			expected: http.StatusBadRequest,
		},
		{
			name:     "malformed body",
			path:     "/programs/42/summary",
			body:     "{",
			expected: http.StatusBadRequest,
		},
		{
			name:     "empty summary",
			path:     "/programs/42/summary",
			body:     `{"summary":""}`,
			expected: http.StatusBadRequest,
		},
		{
			name:     "oversized summary",
			path:     "/programs/42/summary",
			body:     `{"summary":"` + strings.Repeat("x", programs.MaxSummaryLength+1) + `"}`,
			expected: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestMux(&fakeSystem{summaries: map[int64]string{}})

			req := httptest.NewRequest(http.MethodPatch, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, rec.Code)
			}
		})
	}
}

func TestHandlerUpdateSummaryUnknownProgram(t *testing.T) {
	mux := newTestMux(&fakeSystem{updateErr: programs.ErrNotFound})

	req := httptest.NewRequest(
		http.MethodPatch,
		"/programs/42/summary",
		strings.NewReader(`{"summary":"S."}`),
	)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
