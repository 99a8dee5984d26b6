//go:build unix

package pdf

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRunTool_Success(t *testing.T) {
	res := runTool(context.Background(), 5*time.Second, "/bin/sh", "-c", "exit 0")
	if res.Status != ToolSucceeded || res.ExitCode != 0 || res.Err != nil {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRunTool_ExitCode(t *testing.T) {
	res := runTool(context.Background(), 5*time.Second, "/bin/sh", "-c", "echo boom >&2; exit 7")
	if res.Status != ToolFailed || res.ExitCode != 7 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Stderr != "boom" {
		t.Errorf("stderr = %q", res.Stderr)
	}
}

func TestRunTool_TimeoutKillsDescendants(t *testing.T) {
	start := time.Now()
	// The background sleep keeps stderr open; the group kill must still end the run.
	res := runTool(context.Background(), 200*time.Millisecond, "/bin/sh", "-c", "sleep 30 & sleep 30")
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("took %v", elapsed)
	}
	if res.Status != ToolTimedOut {
		t.Fatalf("unexpected result %+v", res)
	}
	if !strings.Contains(res.Err.Error(), "timed out") {
		t.Errorf("unexpected error %v", res.Err)
	}
}

func TestCheckTool(t *testing.T) {
	if err := CheckTool(context.Background(), "/bin/sh", "-c", "true"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := CheckTool(context.Background(), "definitely-not-installed-tool"); err == nil {
		t.Error("expected error for missing tool")
	}
}

func TestTail(t *testing.T) {
	if got := tail("  short  ", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := tail("0123456789", 4); got != "...6789" {
		t.Errorf("got %q", got)
	}
}
