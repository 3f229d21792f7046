package cli

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// ErrToolFailure marks a non-zero exit from an invoked external tool. The
// wrapping error carries the tool's captured stderr.
var ErrToolFailure = errors.New("external tool failure")

// Invoker runs an external tool with arguments and returns its stdout.
type Invoker interface {
	Invoke(args ...string) (string, error)
}

// Tool invokes a fixed binary. All output parsing downstream assumes the C
// locale, so every invocation runs with LC_ALL=C.
type Tool struct {
	Binary string
}

func (t Tool) Invoke(args ...string) (string, error) {
	cmd := exec.Command(t.Binary, args...)
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Info("invoking", "binary", t.Binary, "args", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		slog.Error("tool failed", "binary", t.Binary, "error", msg)
		return "", fmt.Errorf("%s: %s: %w", t.Binary, msg, ErrToolFailure)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// InvokePassthrough runs the tool with stdout and stderr inherited from the
// current process. Used for hook scripts whose output belongs to the user.
func (t Tool) InvokePassthrough(args ...string) error {
	cmd := exec.Command(t.Binary, args...)
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	slog.Info("invoking", "binary", t.Binary, "args", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %s: %w", t.Binary, err.Error(), ErrToolFailure)
	}
	return nil
}
