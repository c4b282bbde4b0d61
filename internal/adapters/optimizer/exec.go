// Package optimizer contains bridge adapters to the pluggable scheduling
// optimizer. The optimizer is an external collaborator behind a JSON
// contract; every failure mode here (spawn error, timeout, malformed
// output) surfaces as a plain error that the release cycle recovers from
// by falling back to FIFO order.
package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/example/refab/internal/ports/secondary"
)

// ExecBridge invokes an optimizer child process. Input is written as JSON
// to stdin; the result is read as JSON from stdout.
type ExecBridge struct {
	command string
	args    []string
	timeout time.Duration
}

// NewExecBridge creates a bridge to a local optimizer executable.
// timeout bounds each invocation; zero means the caller's context rules.
func NewExecBridge(command string, args []string, timeout time.Duration) *ExecBridge {
	return &ExecBridge{command: command, args: args, timeout: timeout}
}

// Name identifies the optimizer by its executable name.
func (b *ExecBridge) Name() string {
	return filepath.Base(b.command)
}

// Optimize runs one optimizer invocation.
func (b *ExecBridge) Optimize(ctx context.Context, input *secondary.OptimizerInput) (*secondary.OptimizerResult, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode optimizer input: %w", err)
	}

	cmd := exec.CommandContext(ctx, b.command, b.args...)
	cmd.Stdin = bytes.NewReader(payload)

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("optimizer timed out: %w", ctx.Err())
		}
		return nil, fmt.Errorf("optimizer process failed: %w", err)
	}

	return decodeResult(out)
}

// decodeResult parses optimizer output. Unknown fields are tolerated;
// absent fields mean "no opinion".
func decodeResult(out []byte) (*secondary.OptimizerResult, error) {
	var result secondary.OptimizerResult
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("malformed optimizer output: %w", err)
	}
	return &result, nil
}
