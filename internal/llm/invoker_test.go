package llm

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/timmcelreath/obsidian-journal-analyzer/internal/apperr"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// writeScript drops an executable shell script into a temp dir.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not available on windows")
	}
	path := filepath.Join(t.TempDir(), "tool.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestComplete_EchoesStdin(t *testing.T) {
	tool := writeScript(t, "cat")
	c := NewCLI(tool, testLogger())

	out, err := c.Complete(context.Background(), "hello prompt\n")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "hello prompt" {
		t.Errorf("out = %q, want trimmed echo", out)
	}
}

func TestComplete_StartFailure(t *testing.T) {
	c := NewCLI(filepath.Join(t.TempDir(), "no-such-tool"), testLogger())

	_, err := c.Complete(context.Background(), "p")
	if !errors.Is(err, apperr.ErrExternalTool) {
		t.Errorf("want ErrExternalTool, got %v", err)
	}
}

func TestComplete_AbnormalExit(t *testing.T) {
	tool := writeScript(t, "exit 3")
	c := NewCLI(tool, testLogger())

	_, err := c.Complete(context.Background(), "p")
	if !errors.Is(err, apperr.ErrExternalTool) {
		t.Errorf("want ErrExternalTool, got %v", err)
	}
}

func TestComplete_EmptyOutput(t *testing.T) {
	tool := writeScript(t, "exit 0")
	c := NewCLI(tool, testLogger())

	_, err := c.Complete(context.Background(), "p")
	if !errors.Is(err, apperr.ErrExternalTool) {
		t.Errorf("want ErrExternalTool for empty stdout, got %v", err)
	}
}

func TestComplete_WhitespaceOnlyOutput(t *testing.T) {
	tool := writeScript(t, `printf '  \n\t\n'`)
	c := NewCLI(tool, testLogger())

	_, err := c.Complete(context.Background(), "p")
	if !errors.Is(err, apperr.ErrExternalTool) {
		t.Errorf("want ErrExternalTool for whitespace stdout, got %v", err)
	}
}

func TestComplete_StderrNotFatal(t *testing.T) {
	tool := writeScript(t, "echo diagnostic >&2\necho answer")
	c := NewCLI(tool, testLogger())

	out, err := c.Complete(context.Background(), "p")
	if err != nil {
		t.Fatalf("stderr alone must not fail the call: %v", err)
	}
	if out != "answer" {
		t.Errorf("out = %q", out)
	}
}

func TestComplete_RemovesArtifact(t *testing.T) {
	before, _ := filepath.Glob(filepath.Join(os.TempDir(), "journal-prompt-*"))

	tool := writeScript(t, "cat")
	c := NewCLI(tool, testLogger())
	if _, err := c.Complete(context.Background(), "p"); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	after, _ := filepath.Glob(filepath.Join(os.TempDir(), "journal-prompt-*"))
	if len(after) > len(before) {
		t.Errorf("prompt artifact leaked: %d -> %d", len(before), len(after))
	}
}

func TestComplete_RemovesArtifactOnFailure(t *testing.T) {
	before, _ := filepath.Glob(filepath.Join(os.TempDir(), "journal-prompt-*"))

	tool := writeScript(t, "exit 1")
	c := NewCLI(tool, testLogger())
	_, _ = c.Complete(context.Background(), "p")

	after, _ := filepath.Glob(filepath.Join(os.TempDir(), "journal-prompt-*"))
	if len(after) > len(before) {
		t.Errorf("prompt artifact leaked on failure: %d -> %d", len(before), len(after))
	}
}

func TestComplete_CancellationIsAdvisory(t *testing.T) {
	// The tool sleeps well past the cancellation; Complete must return
	// promptly with ctx.Err() while the process finishes on its own.
	tool := writeScript(t, "sleep 5\ncat")
	c := NewCLI(tool, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := c.Complete(ctx, "p")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Complete blocked %v after cancellation", elapsed)
	}
}

func TestComplete_LargePromptViaFile(t *testing.T) {
	// Prompts are staged through a file, so sizes beyond any argv limit
	// must round-trip intact.
	tool := writeScript(t, "wc -c")
	c := NewCLI(tool, testLogger())

	prompt := strings.Repeat("a", 1<<20)
	out, err := c.Complete(context.Background(), prompt)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !strings.Contains(out, "1048576") {
		t.Errorf("tool saw %s bytes, want 1048576", out)
	}
}
