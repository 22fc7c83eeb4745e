package runner_test

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"testing"

	"github.com/akavelink/akavelink/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests use sh")
	}
}

func TestExecute_CapturesBothStreams(t *testing.T) {
	requireShell(t)

	res, err := runner.DefaultExecutor().Execute(context.Background(),
		"sh", "-c", "echo out1; echo err1 >&2; echo out2")
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "out1\nout2\n", res.Stdout)
	assert.Equal(t, "err1\n", res.Stderr)
}

func TestExecute_NonZeroExitIsNotAnError(t *testing.T) {
	requireShell(t)

	res, err := runner.DefaultExecutor().Execute(context.Background(),
		"sh", "-c", "echo failed >&2; exit 3")
	require.NoError(t, err)

	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "failed\n", res.Stderr)
}

func TestExecute_LargeOutputDoesNotDeadlock(t *testing.T) {
	requireShell(t)

	// Write well past the OS pipe buffer on both streams; a
	// sequential reader would deadlock here.
	script := `i=0; while [ $i -lt 5000 ]; do echo "stdout line $i"; echo "stderr line $i" >&2; i=$((i+1)); done`
	res, err := runner.DefaultExecutor().Execute(context.Background(), "sh", "-c", script)
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, 5000, strings.Count(res.Stdout, "\n"))
	assert.Equal(t, 5000, strings.Count(res.Stderr, "\n"))
	assert.True(t, strings.HasSuffix(res.Stdout, "stdout line 4999\n"))
}

func TestExecute_BinaryNotFound(t *testing.T) {
	_, err := runner.DefaultExecutor().Execute(context.Background(),
		"definitely-not-a-real-binary-akavelink")
	require.Error(t, err)
	assert.True(t, errors.Is(err, exec.ErrNotFound))
}

func TestExecute_ContextCancellation(t *testing.T) {
	requireShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := runner.DefaultExecutor().Execute(ctx, "sh", "-c", "sleep 60")
	// Either a start failure or a killed process is acceptable; the
	// call must not hang.
	if err == nil {
		assert.NotEqual(t, 0, res.ExitCode)
	}
}
