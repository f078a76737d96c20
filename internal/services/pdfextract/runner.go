package pdfextract

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (stdout, stderr []byte, err error)
}

// ErrToolTimeout marks an external tool invocation that hit its wall-clock
// bound. The underlying process is killed by the context before this is
// returned, so a timed-out tool never leaks a subprocess.
var ErrToolTimeout = errors.New("external tool timed out")

type execRunner struct {
	logger arbor.ILogger
}

// NewExecRunner creates the production runner backed by os/exec.
func NewExecRunner(logger arbor.ILogger) Runner {
	return &execRunner{logger: logger}
}

func (r *execRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, []byte, error) {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	r.logger.Debug().
		Str("cmd", name).
		Str("args", strings.Join(args, " ")).
		Msg("Running external tool")

	cmd := exec.CommandContext(runCtx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	// Reap the whole process even if it ignores the kill for a moment.
	cmd.WaitDelay = 5 * time.Second

	err := cmd.Run()
	dur := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		r.logger.Warn().
			Str("cmd", name).
			Dur("duration", dur).
			Msg("External tool killed on timeout")
		return out.Bytes(), errb.Bytes(), ErrToolTimeout
	}

	if err != nil {
		r.logger.Error().
			Str("cmd", name).
			Int64("duration_ms", dur.Milliseconds()).
			Err(err).
			Str("stderr", truncate(errb.String(), 8<<10)).
			Msg("External tool failed")
	} else {
		r.logger.Debug().
			Str("cmd", name).
			Int64("duration_ms", dur.Milliseconds()).
			Int("stdout_bytes", out.Len()).
			Msg("External tool finished")
	}

	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
