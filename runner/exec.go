package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"sync"
	"time"
)

// Result is the raw outcome of one subprocess invocation: the exit
// code plus everything the process wrote to each stream, in per-stream
// arrival order.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// CommandExecutor runs one external command to completion. The
// abstraction exists so tests can substitute canned results for the
// real storage CLI.
type CommandExecutor interface {
	Execute(ctx context.Context, name string, args ...string) (Result, error)
}

// execCommand is the production CommandExecutor over os/exec.
type execCommand struct{}

// DefaultExecutor returns the production executor.
func DefaultExecutor() CommandExecutor {
	return execCommand{}
}

// Execute spawns the command and drains stdout and stderr with two
// independent readers. Draining one stream must never block the
// other: a full OS pipe buffer on the idle stream would otherwise
// deadlock the child. The exit code is observed only after both
// readers hit EOF, so a Result is never finalized with a partially
// drained stream.
//
// A returned error means the process could not be run at all (binary
// missing, permission denied); a non-zero exit is reported through
// Result.ExitCode, not the error.
func (execCommand) Execute(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	// Reap the child shortly after context cancellation instead of
	// waiting forever on its pipes.
	cmd.WaitDelay = 5 * time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, err
	}

	if err := cmd.Start(); err != nil {
		return Result{}, err
	}

	var outBuf, errBuf bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(2)
	go drain(&wg, &outBuf, stdout)
	go drain(&wg, &errBuf, stderr)
	wg.Wait()

	res := Result{Stdout: outBuf.String(), Stderr: errBuf.String()}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return res, err
		}
		res.ExitCode = exitErr.ExitCode()
	}
	return res, nil
}

func drain(wg *sync.WaitGroup, buf *bytes.Buffer, r io.Reader) {
	defer wg.Done()
	_, _ = io.Copy(buf, r)
}
