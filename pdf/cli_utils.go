package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CLI operation timeout constants
const (
	DefaultCLITimeout = 300 * time.Second
	ProbeTimeout      = 10 * time.Second

	// waitDelay bounds how long Wait blocks on pipes still held by killed descendants
	waitDelay = 2 * time.Second
)

// ToolStatus is the outcome class of one external tool invocation.
type ToolStatus int

const (
	ToolSucceeded ToolStatus = iota
	ToolFailed
	ToolTimedOut
)

func (s ToolStatus) String() string {
	switch s {
	case ToolSucceeded:
		return "succeeded"
	case ToolFailed:
		return "failed"
	case ToolTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// ToolResult describes how an external process ended.
// ExitCode is -1 when the process never started or was killed.
type ToolResult struct {
	Status   ToolStatus
	ExitCode int
	Stderr   string
	Duration time.Duration
	Err      error
}

// runTool executes a command with a hard deadline. The child and everything it spawned are
// killed when the deadline passes. Stdout is discarded and stderr is captured.
func runTool(ctx context.Context, timeout time.Duration, name string, args ...string) ToolResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	configureProcessGroup(cmd)

	start := time.Now()
	err := cmd.Run()
	res := ToolResult{
		ExitCode: -1,
		Stderr:   tail(stderr.String(), maxStderrTail),
		Duration: time.Since(start),
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.Status = ToolTimedOut
		res.Err = fmt.Errorf("command timed out after %v", timeout)
		return res
	}

	if err != nil {
		res.Status = ToolFailed
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		}
		if res.Stderr != "" {
			res.Err = fmt.Errorf("command failed: %w: %s", err, res.Stderr)
		} else {
			res.Err = fmt.Errorf("command failed: %w", err)
		}
		return res
	}

	res.Status = ToolSucceeded
	res.ExitCode = 0
	return res
}

// CheckTool verifies that an executable is available and runs.
func CheckTool(ctx context.Context, name string, args ...string) error {
	res := runTool(ctx, ProbeTimeout, name, args...)
	if res.Status != ToolSucceeded {
		return fmt.Errorf("%s not found or not executable: %w", name, res.Err)
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
