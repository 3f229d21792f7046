// Package pactl lists and selects PulseAudio sinks via the pactl command
// line tool's JSON output.
package pactl

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mvanek/displayctl/internal/cli"
)

// Sink is one PulseAudio output device backed by an ALSA card.
type Sink struct {
	Name              string
	MonitorSourceName string
	AlsaCardNumber    int
}

type PACtl struct {
	Tool cli.Invoker
}

func New() *PACtl {
	return &PACtl{Tool: cli.Tool{Binary: "pactl"}}
}

// Sinks returns the available ALSA-backed sinks in the order pactl lists
// them. Sinks without an alsa.card property (e.g. network sinks) are
// skipped.
func (p *PACtl) Sinks() ([]Sink, error) {
	out, err := p.Tool.Invoke("-f", "json", "list", "sinks")
	if err != nil {
		return nil, err
	}
	var listed []struct {
		Name          string            `json:"name"`
		MonitorSource string            `json:"monitor_source"`
		Properties    map[string]string `json:"properties"`
	}
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		return nil, fmt.Errorf("parsing pactl sink list: %w", err)
	}
	var sinks []Sink
	for _, entry := range listed {
		card, ok := entry.Properties["alsa.card"]
		if !ok {
			slog.Warn("skipping non-alsa sink", "sink", entry.Name)
			continue
		}
		cardNumber, err := strconv.Atoi(card)
		if err != nil {
			return nil, fmt.Errorf("sink %s: alsa.card %q: %w", entry.Name, card, err)
		}
		sinks = append(sinks, Sink{
			Name:              entry.Name,
			MonitorSourceName: entry.MonitorSource,
			AlsaCardNumber:    cardNumber,
		})
	}
	return sinks, nil
}

func (p *PACtl) DefaultSinkName() (string, error) {
	return p.Tool.Invoke("get-default-sink")
}

func (p *PACtl) SetDefaultSink(name string) error {
	slog.Info("setting default sink", "sink", name)
	_, err := p.Tool.Invoke("set-default-sink", name)
	return err
}

// CycleDefaultSink advances the default sink to the next listed one,
// wrapping around. Returns the newly selected sink name.
func (p *PACtl) CycleDefaultSink() (string, error) {
	sinks, err := p.Sinks()
	if err != nil {
		return "", err
	}
	if len(sinks) == 0 {
		return "", fmt.Errorf("no sinks available")
	}
	defaultName, err := p.DefaultSinkName()
	if err != nil {
		return "", err
	}
	selected := -1
	for i, sink := range sinks {
		if sink.Name == defaultName {
			selected = i
			break
		}
	}
	next := sinks[(selected+1)%len(sinks)]
	slog.Info("cycling default sink", "from", defaultName, "to", next.Name)
	if err := p.SetDefaultSink(next.Name); err != nil {
		return "", err
	}
	return next.Name, nil
}
