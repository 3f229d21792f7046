package cli

import (
	"errors"
	"strings"
	"testing"
)

func TestTool_Invoke_TrimsStdout(t *testing.T) {
	out, err := Tool{Binary: "/bin/sh"}.Invoke("-c", "echo '  hello  '")
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out != "hello" {
		t.Errorf("got %q, want trimmed output", out)
	}
}

func TestTool_Invoke_FailureCarriesStderr(t *testing.T) {
	_, err := Tool{Binary: "/bin/sh"}.Invoke("-c", "echo oops >&2; exit 3")
	if !errors.Is(err, ErrToolFailure) {
		t.Fatalf("expected ErrToolFailure, got %v", err)
	}
	if !strings.Contains(err.Error(), "oops") {
		t.Errorf("error should carry the tool's stderr: %v", err)
	}
}

func TestTool_Invoke_MissingBinary(t *testing.T) {
	if _, err := (Tool{Binary: "/nonexistent/binary"}).Invoke(); !errors.Is(err, ErrToolFailure) {
		t.Fatalf("expected ErrToolFailure, got %v", err)
	}
}

func TestTool_InvokePassthrough(t *testing.T) {
	if err := (Tool{Binary: "/bin/sh"}).InvokePassthrough("-c", "exit 0"); err != nil {
		t.Fatalf("passthrough: %v", err)
	}
	if err := (Tool{Binary: "/bin/sh"}).InvokePassthrough("-c", "exit 1"); !errors.Is(err, ErrToolFailure) {
		t.Fatalf("expected ErrToolFailure, got %v", err)
	}
}
