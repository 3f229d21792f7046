package xrandr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMultiplePrimary means more than one active output claims the
	// primary flag.
	ErrMultiplePrimary = errors.New("multiple primary outputs")
	// ErrNoActiveOutput means no output currently has a configuration.
	ErrNoActiveOutput = errors.New("no active outputs")
)

// Configuration is the currently active placement of an output. An output
// without a configuration is disabled.
type Configuration struct {
	Mode     Mode
	Position Position
}

// Output is a physical display connector exposed by the display subsystem.
type Output struct {
	Name          string
	Connected     bool
	Monitor       *Monitor
	Configuration *Configuration
	Primary       bool
}

// String renders the output the way the report shapes it, one header line
// plus one indented line per resolution with its rates. Useful for diagnosis.
func (o Output) String() string {
	parts := []string{o.Name}
	if o.Connected {
		parts = append(parts, "connected")
	} else {
		parts = append(parts, "disconnected")
	}
	if o.Primary {
		parts = append(parts, "primary")
	}
	if o.Configuration != nil {
		parts = append(parts, fmt.Sprintf("%s%s", o.Configuration.Mode.Resolution, o.Configuration.Position))
	}
	if o.Monitor != nil {
		parts = append(parts, "=", o.Monitor.Identifier())
	}
	lines := []string{strings.Join(parts, " ")}

	if o.Monitor != nil {
		var rates []string
		var resolution Resolution
		flush := func() {
			if len(rates) > 0 {
				lines = append(lines, fmt.Sprintf("   %s\t%s", resolution, strings.Join(rates, "\t")))
			}
		}
		for _, mode := range o.Monitor.SortedModes() {
			if resolution != mode.Resolution {
				flush()
				rates = nil
				resolution = mode.Resolution
			}
			current := " "
			if o.Configuration != nil && o.Configuration.Mode.Equal(mode) {
				current = "*"
			}
			preferred := " "
			if o.Monitor.PreferredMode != nil && o.Monitor.PreferredMode.Equal(mode) {
				preferred = "+"
			}
			rates = append(rates, fmt.Sprintf("%s%s%s", mode.RefreshRate, current, preferred))
		}
		flush()
	}
	return strings.Join(lines, "\n")
}

// Screen is the virtual desktop aggregate: its combined resolution plus the
// outputs in report order. A Screen is an immutable snapshot; query methods
// derive views without mutating it.
type Screen struct {
	Name               string
	CombinedResolution Resolution
	Outputs            []Output
}

// ConnectedOutputs returns the outputs with an attached monitor cable.
func (s *Screen) ConnectedOutputs() []Output {
	var outputs []Output
	for _, output := range s.Outputs {
		if output.Connected {
			outputs = append(outputs, output)
		}
	}
	return outputs
}

// ActiveOutputs returns the outputs currently driving a mode.
func (s *Screen) ActiveOutputs() []Output {
	var outputs []Output
	for _, output := range s.Outputs {
		if output.Configuration != nil {
			outputs = append(outputs, output)
		}
	}
	return outputs
}

func (s *Screen) ConnectedOutputNames() []string {
	var names []string
	for _, output := range s.ConnectedOutputs() {
		names = append(names, output.Name)
	}
	return names
}

func (s *Screen) ActiveOutputNames() []string {
	var names []string
	for _, output := range s.ActiveOutputs() {
		names = append(names, output.Name)
	}
	return names
}

// PrimaryOutput resolves the single output flagged primary among the active
// outputs. With no flagged output it falls back to the first active output
// in report order.
func (s *Screen) PrimaryOutput() (Output, error) {
	var primaries []Output
	for _, output := range s.Outputs {
		if output.Configuration != nil && output.Primary {
			primaries = append(primaries, output)
		}
	}
	if len(primaries) > 1 {
		return Output{}, ErrMultiplePrimary
	}
	if len(primaries) == 1 {
		return primaries[0], nil
	}
	if active := s.ActiveOutputs(); len(active) > 0 {
		return active[0], nil
	}
	return Output{}, ErrNoActiveOutput
}

// String renders a report similar to the display tool's own output, though
// not byte-identical since not all of the same data is ingested.
func (s *Screen) String() string {
	lines := []string{fmt.Sprintf("Screen %s: current %s", s.Name, s.CombinedResolution)}
	for _, output := range s.Outputs {
		lines = append(lines, output.String())
	}
	return strings.Join(lines, "\n")
}
