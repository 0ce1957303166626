package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Output is the captured result of one process run
type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes an external command and waits for it to exit.
// A non-zero exit is reported through Output.ExitCode, not as an error;
// the error is reserved for commands that could not run at all.
type Runner interface {
	Run(ctx context.Context, name string, args []string) (*Output, error)
}

// RunnerFunc adapts a function to the Runner interface
type RunnerFunc func(ctx context.Context, name string, args []string) (*Output, error)

func (f RunnerFunc) Run(ctx context.Context, name string, args []string) (*Output, error) {
	return f(ctx, name, args)
}

const waitDelay = 10 * time.Second

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args []string) (*Output, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// yt-dlp children (ffmpeg) may hold the pipes after a kill
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	out := &Output{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err == nil {
		return out, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s interrupted: %w", name, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	return nil, fmt.Errorf("failed to run %s: %w", name, err)
}
