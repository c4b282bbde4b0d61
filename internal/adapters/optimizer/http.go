package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/example/refab/internal/ports/secondary"
)

// maxResponseBytes caps how much optimizer output we are willing to read.
const maxResponseBytes = 4 << 20

// HTTPBridge invokes an optimizer service over HTTP. The input object is
// POSTed as JSON; the response body is the result object.
type HTTPBridge struct {
	name    string
	url     string
	client  *http.Client
	timeout time.Duration
}

// NewHTTPBridge creates a bridge to a remote optimizer endpoint.
func NewHTTPBridge(name, url string, timeout time.Duration) *HTTPBridge {
	return &HTTPBridge{
		name:    name,
		url:     url,
		client:  &http.Client{},
		timeout: timeout,
	}
}

// Name identifies the optimizer endpoint.
func (b *HTTPBridge) Name() string {
	return b.name
}

// Optimize runs one optimizer invocation.
func (b *HTTPBridge) Optimize(ctx context.Context, input *secondary.OptimizerInput) (*secondary.OptimizerResult, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode optimizer input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build optimizer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("optimizer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("optimizer returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read optimizer response: %w", err)
	}

	return decodeResult(body)
}
