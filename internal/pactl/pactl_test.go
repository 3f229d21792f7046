package pactl

import (
	"fmt"
	"strings"
	"testing"
)

const sinkListJSON = `[
  {
    "name": "alsa_output.pci-0000_00_1f.3.analog-stereo",
    "monitor_source": "alsa_output.pci-0000_00_1f.3.analog-stereo.monitor",
    "properties": {"alsa.card": "0", "device.api": "alsa"}
  },
  {
    "name": "tunnel.remote-speaker",
    "monitor_source": "tunnel.remote-speaker.monitor",
    "properties": {"device.api": "tunnel"}
  },
  {
    "name": "alsa_output.usb-dock.analog-stereo",
    "monitor_source": "alsa_output.usb-dock.analog-stereo.monitor",
    "properties": {"alsa.card": "2"}
  }
]`

type fakeTool struct {
	responses map[string]string
	calls     [][]string
}

func (f *fakeTool) Invoke(args ...string) (string, error) {
	f.calls = append(f.calls, args)
	key := strings.Join(args, " ")
	if response, ok := f.responses[key]; ok {
		return response, nil
	}
	return "", fmt.Errorf("unexpected invocation: %s", key)
}

func TestSinks_SkipsNonAlsaSinks(t *testing.T) {
	tool := &fakeTool{responses: map[string]string{
		"-f json list sinks": sinkListJSON,
	}}
	sinks, err := (&PACtl{Tool: tool}).Sinks()
	if err != nil {
		t.Fatalf("sinks: %v", err)
	}
	if len(sinks) != 2 {
		t.Fatalf("got %d sinks, want 2", len(sinks))
	}
	if sinks[0].Name != "alsa_output.pci-0000_00_1f.3.analog-stereo" || sinks[0].AlsaCardNumber != 0 {
		t.Errorf("sinks[0]: got %+v", sinks[0])
	}
	if sinks[1].Name != "alsa_output.usb-dock.analog-stereo" || sinks[1].AlsaCardNumber != 2 {
		t.Errorf("sinks[1]: got %+v", sinks[1])
	}
	if sinks[0].MonitorSourceName != "alsa_output.pci-0000_00_1f.3.analog-stereo.monitor" {
		t.Errorf("monitor source: got %q", sinks[0].MonitorSourceName)
	}
}

func TestCycleDefaultSink_Wraps(t *testing.T) {
	tool := &fakeTool{responses: map[string]string{
		"-f json list sinks": sinkListJSON,
		"get-default-sink":   "alsa_output.usb-dock.analog-stereo",
		"set-default-sink alsa_output.pci-0000_00_1f.3.analog-stereo": "",
	}}
	next, err := (&PACtl{Tool: tool}).CycleDefaultSink()
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if next != "alsa_output.pci-0000_00_1f.3.analog-stereo" {
		t.Errorf("next sink: got %q", next)
	}
}

func TestCycleDefaultSink_UnknownDefaultStartsAtFirst(t *testing.T) {
	tool := &fakeTool{responses: map[string]string{
		"-f json list sinks": sinkListJSON,
		"get-default-sink":   "something.else",
		"set-default-sink alsa_output.pci-0000_00_1f.3.analog-stereo": "",
	}}
	next, err := (&PACtl{Tool: tool}).CycleDefaultSink()
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if next != "alsa_output.pci-0000_00_1f.3.analog-stereo" {
		t.Errorf("next sink: got %q", next)
	}
}
