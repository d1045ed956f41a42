package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/precislabs/precis/internal/engine"
)

// CallbackNotifier delivers a generated summary to the Program Store via its
// partial-update endpoint. Delivery is idempotent: repeating the same
// (program, summary) update leaves the store in the same final state, so the
// activity is safe to re-run after a crash between execution and recording.
type CallbackNotifier struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewCallbackNotifier creates the delivery activity against the Program Store
// base URL.
func NewCallbackNotifier(baseURL string, logger *slog.Logger) *CallbackNotifier {
	return &CallbackNotifier{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger.With("activity", "deliver-summary"),
	}
}

func (a *CallbackNotifier) Name() string {
	return "deliver-summary"
}

// Execute PATCHes the summary onto the program record. Any 2xx response is
// success. 4xx responses (unknown program id, rejected payload) are permanent
// target failures with no retry; 5xx and network failures are transient.
func (a *CallbackNotifier) Execute(ctx context.Context, input string) (string, error) {
	result, err := Decode[SummaryResult](input)
	if err != nil {
		return "", engine.PermanentInput(err)
	}

	body, err := json.Marshal(map[string]string{"summary": result.Summary})
	if err != nil {
		return "", engine.PermanentInput(fmt.Errorf("encode callback payload: %w", err))
	}

	url := fmt.Sprintf("%s/api/programs/%s/summary", a.baseURL, result.ProgramID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return "", engine.PermanentInput(fmt.Errorf("create callback request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return "", engine.Transient(fmt.Errorf("callback request: %w", err))
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		a.logger.Info("summary delivered", "program_id", result.ProgramID, "status", resp.StatusCode)
		return Encode(DeliveryReceipt{
			ProgramID: result.ProgramID,
			Status:    "acked",
		})
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return "", engine.PermanentTarget(fmt.Errorf("program store rejected update: status %d", resp.StatusCode))
	default:
		return "", engine.Transient(fmt.Errorf("program store unavailable: status %d", resp.StatusCode))
	}
}
