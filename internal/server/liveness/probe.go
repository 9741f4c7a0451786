// Package liveness runs the external liveness-analysis routine and
// interprets what it prints.
package liveness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/dmitrijs2005/attendkeeper/internal/logging"
	"github.com/dmitrijs2005/attendkeeper/internal/server/models"
)

// ConfirmationMarker is what the routine prints when the subject passed.
const ConfirmationMarker = "Liveness confirmed"

// maxDiagnostic bounds the stderr/stdout excerpt attached to errors.
const maxDiagnostic = 512

// ErrLivenessFailed wraps every failure to obtain a usable result: the
// process could not start, exited non-zero or ran past its timeout.
var ErrLivenessFailed = errors.New("liveness detection failed")

// Probe performs one blocking liveness check. A nil error with
// Confirmed == false means the routine ran but the subject did not pass.
type Probe interface {
	Check(ctx context.Context) (models.LivenessResult, error)
}

// execCommand is a seam for tests.
var execCommand = exec.CommandContext

// CommandProbe runs a command line and looks for ConfirmationMarker in its
// standard output.
type CommandProbe struct {
	name    string
	args    []string
	timeout time.Duration
	logger  logging.Logger
}

// NewCommandProbe splits commandLine on whitespace into program and
// arguments. timeout <= 0 disables the probe's own deadline; the caller's
// context still applies.
func NewCommandProbe(commandLine string, timeout time.Duration, logger logging.Logger) (*CommandProbe, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, errors.New("liveness command is empty")
	}
	return &CommandProbe{
		name:    fields[0],
		args:    fields[1:],
		timeout: timeout,
		logger:  logger.With("module", "liveness"),
	}, nil
}

func (p *CommandProbe) Check(ctx context.Context) (models.LivenessResult, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := execCommand(ctx, p.name, p.args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	err := cmd.Run()
	raw := strings.TrimSpace(stdout.String())
	result := models.LivenessResult{RawOutput: raw}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w (%v)", ctxErr, err)
		}
		diag := bounded(strings.TrimSpace(stderr.String()))
		if diag == "" {
			diag = bounded(raw)
		}
		p.logger.Error(ctx, "liveness command failed",
			"err", err, "stderr", diag, "elapsed", time.Since(started))
		return result, fmt.Errorf("%w: %w: %s", ErrLivenessFailed, err, diag)
	}

	result.Confirmed = strings.Contains(raw, ConfirmationMarker)
	p.logger.Debug(ctx, "liveness command finished",
		"confirmed", result.Confirmed, "output", bounded(raw), "elapsed", time.Since(started))
	return result, nil
}

func bounded(s string) string {
	if len(s) <= maxDiagnostic {
		return s
	}
	return s[:maxDiagnostic] + "..."
}
