package liveness

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/attendkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExec re-runs the test binary as a stand-in for the liveness routine.
// The requested behaviour is passed through the environment.
func fakeExec(t *testing.T, behaviour string) {
	t.Helper()
	orig := execCommand
	execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "HELPER_BEHAVIOUR="+behaviour)
		return cmd
	}
	t.Cleanup(func() { execCommand = orig })
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("HELPER_BEHAVIOUR") {
	case "confirmed":
		fmt.Println("Challenge: Smile.")
		fmt.Println("Liveness confirmed: Smile challenge completed.")
	case "not-confirmed":
		fmt.Println("Liveness failed: Challenge not completed.")
	case "crash":
		fmt.Fprintln(os.Stderr, "camera not found")
		os.Exit(2)
	case "hang":
		time.Sleep(time.Minute)
	case "noisy":
		fmt.Fprintln(os.Stderr, strings.Repeat("e", 4096))
		os.Exit(1)
	}
	os.Exit(0)
}

func newProbe(t *testing.T, timeout time.Duration) *CommandProbe {
	t.Helper()
	p, err := NewCommandProbe("python liveness_detection.py", timeout, logging.Nop{})
	require.NoError(t, err)
	return p
}

func TestCheck_Confirmed(t *testing.T) {
	fakeExec(t, "confirmed")

	res, err := newProbe(t, 10*time.Second).Check(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Confirmed)
	assert.Contains(t, res.RawOutput, "Liveness confirmed: Smile challenge completed.")
}

func TestCheck_MarkerMissing(t *testing.T) {
	fakeExec(t, "not-confirmed")

	res, err := newProbe(t, 10*time.Second).Check(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Confirmed)
	assert.Equal(t, "Liveness failed: Challenge not completed.", res.RawOutput)
}

func TestCheck_NonZeroExit(t *testing.T) {
	fakeExec(t, "crash")

	_, err := newProbe(t, 10*time.Second).Check(context.Background())
	require.ErrorIs(t, err, ErrLivenessFailed)
	assert.Contains(t, err.Error(), "camera not found")
}

func TestCheck_Timeout(t *testing.T) {
	fakeExec(t, "hang")

	started := time.Now()
	_, err := newProbe(t, 200*time.Millisecond).Check(context.Background())
	require.ErrorIs(t, err, ErrLivenessFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(started), 30*time.Second)
}

func TestCheck_CallerCancellation(t *testing.T) {
	fakeExec(t, "hang")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	_, err := newProbe(t, 0).Check(ctx)
	require.ErrorIs(t, err, ErrLivenessFailed)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheck_SpawnFailure(t *testing.T) {
	p, err := NewCommandProbe("/definitely/not/a/liveness-binary", time.Second, logging.Nop{})
	require.NoError(t, err)

	_, err = p.Check(context.Background())
	assert.ErrorIs(t, err, ErrLivenessFailed)
}

func TestCheck_DiagnosticIsBounded(t *testing.T) {
	fakeExec(t, "noisy")

	_, err := newProbe(t, 10*time.Second).Check(context.Background())
	require.Error(t, err)
	assert.Less(t, len(err.Error()), 1024)
}

func TestNewCommandProbe_Empty(t *testing.T) {
	_, err := NewCommandProbe("   ", time.Second, logging.Nop{})
	assert.Error(t, err)
}

func TestNewCommandProbe_SplitsArguments(t *testing.T) {
	p, err := NewCommandProbe("python3  detect.py --camera 0", time.Second, logging.Nop{})
	require.NoError(t, err)
	assert.Equal(t, "python3", p.name)
	assert.Equal(t, []string{"detect.py", "--camera", "0"}, p.args)
}
