// Package docintel provides a minimal Azure Document Intelligence data-plane
// client for the analyze-and-poll flow. There is no official Go SDK for this
// data plane, so the client speaks the REST API directly using an azcore
// token credential for authentication.
package docintel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
)

const tokenScope = "https://cognitiveservices.azure.com/.default"

// Result is the document analysis output: recognized pages in document order.
type Result struct {
	Pages []Page `json:"pages"`
}

// Page holds the recognized lines of a single page, in reading order.
type Page struct {
	PageNumber int    `json:"pageNumber"`
	Lines      []Line `json:"lines"`
}

// Line is a single recognized text line.
type Line struct {
	Content string `json:"content"`
}

// Client analyzes documents via the Document Intelligence REST API.
type Client struct {
	endpoint     string
	apiVersion   string
	modelID      string
	pollInterval time.Duration
	credential   azcore.TokenCredential
	http         *http.Client
	logger       *slog.Logger

	tokenMu sync.Mutex
	token   azcore.AccessToken
}

// New creates a Client from the given configuration and credential.
func New(cfg *Config, credential azcore.TokenCredential, logger *slog.Logger) *Client {
	return &Client{
		endpoint:     strings.TrimSuffix(cfg.Endpoint, "/"),
		apiVersion:   cfg.APIVersion,
		modelID:      cfg.ModelID,
		pollInterval: cfg.PollIntervalDuration(),
		credential:   credential,
		http:         &http.Client{Timeout: time.Minute},
		logger:       logger.With("system", "docintel"),
	}
}

// Analyze submits the document at the given URL for full-text recognition and
// polls the resulting operation until it completes. The returned pages are in
// document order with per-page line order preserved exactly as recognized.
func (c *Client) Analyze(ctx context.Context, urlSource string) (*Result, error) {
	opLocation, err := c.submit(ctx, urlSource)
	if err != nil {
		return nil, err
	}

	c.logger.Info("analysis submitted", "operation", opLocation)
	return c.poll(ctx, opLocation)
}

func (c *Client) submit(ctx context.Context, urlSource string) (string, error) {
	u := fmt.Sprintf(
		"%s/documentintelligence/documentModels/%s:analyze?api-version=%s",
		c.endpoint, c.modelID, c.apiVersion,
	)

	body, err := json.Marshal(map[string]string{"urlSource": urlSource})
	if err != nil {
		return "", fmt.Errorf("encode analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("submit analysis: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return "", newStatusError(resp)
	}

	opLocation := resp.Header.Get("Operation-Location")
	if opLocation == "" {
		return "", fmt.Errorf("analyze response missing Operation-Location header")
	}
	return opLocation, nil
}

type operationResponse struct {
	Status        string  `json:"status"`
	AnalyzeResult *Result `json:"analyzeResult"`
	Error         *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) poll(ctx context.Context, opLocation string) (*Result, error) {
	for {
		op, err := c.fetchOperation(ctx, opLocation)
		if err != nil {
			return nil, err
		}

		switch op.Status {
		case "succeeded":
			if op.AnalyzeResult == nil {
				return nil, fmt.Errorf("analysis succeeded without a result")
			}
			return op.AnalyzeResult, nil
		case "failed":
			if op.Error != nil {
				return nil, &OperationError{Code: op.Error.Code, Message: op.Error.Message}
			}
			return nil, &OperationError{Code: "unknown", Message: "analysis failed"}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) fetchOperation(ctx context.Context, opLocation string) (*operationResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opLocation, nil)
	if err != nil {
		return nil, fmt.Errorf("create operation request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch operation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError(resp)
	}

	var op operationResponse
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, fmt.Errorf("decode operation response: %w", err)
	}
	return &op, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	token, err := c.accessToken(req.Context())
	if err != nil {
		return nil, fmt.Errorf("acquire token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return c.http.Do(req)
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if time.Until(c.token.ExpiresOn) > 2*time.Minute {
		return c.token.Token, nil
	}

	token, err := c.credential.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{tokenScope},
	})
	if err != nil {
		return "", err
	}

	c.token = token
	return token.Token, nil
}

func newStatusError(resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}
