package agents

import (
	"context"
	"fmt"
	"time"

	"MarketMind/internal/domain/models"
	domsvc "MarketMind/internal/domain/service"
	xhttp "MarketMind/pkg/http"
)

// HTTPExecutor runs agents hosted in the external analysis service.
// It centralizes client construction and JSON POST request handling so
// remote agents stay interchangeable with the local registry.
type HTTPExecutor struct {
	baseURL string
	client  *xhttp.Client
}

// NewHTTPExecutor builds an HTTP-backed executor with timeout and base
// URL from config.
func NewHTTPExecutor(baseURL string, timeout time.Duration) *HTTPExecutor {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPExecutor{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type executeReq struct {
	Text      string         `json:"text"`
	Symbol    string         `json:"symbol"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	TimeoutMs int64          `json:"timeout_ms"`
}

// Execute posts the input to the agent service and returns the raw
// payload it produced.
func (e *HTTPExecutor) Execute(ctx context.Context, name string, input models.AgentInput, timeout time.Duration) (models.RawPayload, error) {
	if e.client == nil || e.baseURL == "" {
		return nil, fmt.Errorf("agent http client not initialized")
	}
	var raw models.RawPayload
	err := e.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    fmt.Sprintf("%s/agents/%s/execute", e.baseURL, name),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: executeReq{
			Text:      input.Text,
			Symbol:    input.Symbol,
			Metadata:  input.Metadata,
			TimeoutMs: timeout.Milliseconds(),
		},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("post agent %s: %w", name, err)
	}
	return raw, nil
}

var _ domsvc.AgentExecutor = (*HTTPExecutor)(nil)
