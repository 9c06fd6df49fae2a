package whisperer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// Runner launches installer processes
type Runner interface {
	// Run starts name with args and waits for it. A non-zero exit is
	// reported through the exit code, not the error.
	Run(ctx context.Context, name string, args ...string) (exitCode int, output string, err error)
}

// ExecRunner runs processes with os/exec
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (int, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	logrus.Debugf("Running %s %s", name, strings.Join(args, " "))
	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return exitErr.ExitCode(), out.String(), nil
		}
		return -1, out.String(), fmt.Errorf("failed to run %s: %w", name, err)
	}
	return 0, out.String(), nil
}

// ExitCodeError reports an installer that exited unsuccessfully
type ExitCodeError struct {
	Code   int
	Output string
}

func (e *ExitCodeError) Error() string {
	msg := fmt.Sprintf("installer exited with code %d", e.Code)
	if out := strings.TrimSpace(e.Output); out != "" {
		if len(out) > 512 {
			out = out[len(out)-512:]
		}
		msg += ": " + out
	}
	return msg
}
