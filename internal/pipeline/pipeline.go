// Package pipeline implements the three document-summary activities and the
// serialized payloads that flow between them: locate -> extract -> summarize
// -> deliver. Each activity is stateless and safely re-runnable; the engine
// records their results in durable history.
package pipeline

import (
	"encoding/json"
	"fmt"
)

// DocumentLocator identifies an uploaded document: the owning program, its
// blob key within the document container, and its direct URL for analysis.
type DocumentLocator struct {
	ProgramID  string `json:"program_id"`
	StorageKey string `json:"storage_key"`
	URL        string `json:"url"`
}

// ExtractedText carries the recognized document text alongside the program id
// so downstream activities can address the correct record.
type ExtractedText struct {
	ProgramID string `json:"program_id"`
	Text      string `json:"text"`
}

// SummaryResult is the generated summary for a program's document.
type SummaryResult struct {
	ProgramID string `json:"program_id"`
	Summary   string `json:"summary"`
}

// DeliveryReceipt acknowledges a successful Program Store update.
type DeliveryReceipt struct {
	ProgramID string `json:"program_id"`
	Status    string `json:"status"`
}

// Encode serializes a payload for recording in history.
func Encode(payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return string(data), nil
}

// Decode deserializes a recorded payload.
func Decode[T any](input string) (T, error) {
	var payload T
	if err := json.Unmarshal([]byte(input), &payload); err != nil {
		return payload, fmt.Errorf("decode payload: %w", err)
	}
	return payload, nil
}
