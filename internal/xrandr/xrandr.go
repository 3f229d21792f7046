// Package xrandr wraps the xrandr command line tool: it parses the state
// from the detailed query and issues configuration commands.
//
// Not ingested from the report: screen minimum/maximum resolutions, mode
// rotations/reflections, physical display sizes.
package xrandr

import (
	"log/slog"

	"github.com/mvanek/displayctl/internal/cli"
)

// XRandr invokes the display configuration tool. Tool is an interface so
// tests can substitute canned reports.
type XRandr struct {
	Tool cli.Invoker
}

func New() *XRandr {
	return &XRandr{Tool: cli.Tool{Binary: "xrandr"}}
}

// Screen queries and parses the current topology. Every call produces a
// fresh snapshot; nothing is cached across calls.
func (x *XRandr) Screen() (*Screen, error) {
	report, err := x.Tool.Invoke("--prop")
	if err != nil {
		return nil, err
	}
	return ParseScreen(report)
}

// Apply issues one atomic configuration invocation.
func (x *XRandr) Apply(args []string) error {
	_, err := x.Tool.Invoke(args...)
	return err
}

// SetPrimaryOutput marks the named output as primary without touching the
// rest of the layout.
func (x *XRandr) SetPrimaryOutput(name string) error {
	slog.Info("setting primary output", "output", name)
	_, err := x.Tool.Invoke("--output", name, "--primary")
	return err
}
