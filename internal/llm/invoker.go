// Package llm invokes the external analysis tool, a single-shot executable
// that reads a prompt on stdin and answers on stdout.
package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/timmcelreath/obsidian-journal-analyzer/internal/apperr"
)

// Invoker is the injected text-completion capability. Pipelines depend on
// this interface so tests can substitute a deterministic stub.
type Invoker interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CLI shells out to an external command. The prompt is staged in a temporary
// file and piped to the command's stdin, avoiding any argument-length ceiling.
type CLI struct {
	command string
	logger  *slog.Logger
}

// Verify *CLI satisfies Invoker at compile time.
var _ Invoker = (*CLI)(nil)

// NewCLI returns an invoker for command, which may be an absolute path or a
// bare name resolved via PATH.
func NewCLI(command string, logger *slog.Logger) *CLI {
	return &CLI{command: command, logger: logger}
}

// Complete runs one invocation and returns the command's trimmed stdout.
//
// Failure modes that wrap apperr.ErrExternalTool: the process cannot be
// started, it exits abnormally, or it writes nothing but whitespace to
// stdout. Text on stderr is logged and is not by itself a failure.
//
// Cancellation is advisory. An expired ctx makes Complete return ctx.Err()
// immediately, but the process is never killed: it is left to finish in the
// background, its late output is discarded, and the temporary artifact is
// still removed once it exits. No retry, no internal timeout.
func (c *CLI) Complete(ctx context.Context, prompt string) (string, error) {
	tmp, err := os.CreateTemp("", "journal-prompt-*.md")
	if err != nil {
		return "", fmt.Errorf("llm: create prompt artifact: %w", err)
	}
	cleanup := func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}

	if _, err := tmp.WriteString(prompt); err != nil {
		cleanup()
		return "", fmt.Errorf("llm: write prompt artifact: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return "", fmt.Errorf("llm: rewind prompt artifact: %w", err)
	}

	// Deliberately not exec.CommandContext: cancellation must not kill an
	// in-flight invocation.
	cmd := exec.Command(c.command)
	cmd.Stdin = tmp
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		cleanup()
		return "", fmt.Errorf("llm: start %s: %w: %w", c.command, apperr.ErrExternalTool, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		go func() {
			waitErr := <-done
			cleanup()
			c.logger.Warn("external tool finished after cancellation",
				slog.String("command", c.command),
				slog.Bool("exited_ok", waitErr == nil))
		}()
		return "", ctx.Err()
	case waitErr := <-done:
		cleanup()
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			c.logger.Warn("external tool stderr",
				slog.String("command", c.command),
				slog.String("stderr", msg))
		}
		if waitErr != nil {
			return "", fmt.Errorf("llm: %s exited: %w: %w", c.command, apperr.ErrExternalTool, waitErr)
		}
		out := strings.TrimSpace(stdout.String())
		if out == "" {
			return "", fmt.Errorf("llm: %s produced no output: %w", c.command, apperr.ErrExternalTool)
		}
		return out, nil
	}
}
