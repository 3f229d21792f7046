package xrandr

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

// testEDIDHex renders a synthetic valid EDID base block the way the report
// prints it: indented lines of 16 bytes each.
func testEDIDHex() string {
	raw := make([]byte, 128)
	copy(raw, []byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00})
	binary.BigEndian.PutUint16(raw[0x08:], 0x10AC) // DEL
	binary.LittleEndian.PutUint16(raw[0x0A:], 41157)
	binary.LittleEndian.PutUint32(raw[0x0C:], 1234567)
	raw[0x10] = 12
	raw[0x11] = 30
	raw[0x12] = 1
	raw[0x13] = 4
	raw[0x36+3] = 0xFC
	copy(raw[0x36+5:], "TESTPANEL\n   ")
	raw[0x48+3] = 0xFF
	copy(raw[0x48+5:], "SER12345\n    ")
	var sum byte
	for _, b := range raw[:127] {
		sum += b
	}
	raw[0x7F] = -sum

	encoded := hex.EncodeToString(raw)
	var lines []string
	for i := 0; i < len(encoded); i += 32 {
		lines = append(lines, "\t\t"+encoded[i:i+32])
	}
	return strings.Join(lines, "\n")
}

func sampleReport() string {
	return fmt.Sprintf(`Screen 0: minimum 8 x 8, current 3840 x 1080, maximum 32767 x 32767
eDP1 connected primary 1920x1080+0+0 (normal left inverted right x axis y axis) 310mm x 170mm
	EDID:
%s
   1920x1080     60.00*+  59.93
   1680x1050     59.95
HDMI1 connected 1920x1080+1920+0 (normal left inverted right x axis y axis) 509mm x 286mm
   1920x1080     60.00*   50.00    30.00
DP1 disconnected (normal left inverted right x axis y axis)
`, testEDIDHex())
}

func TestParseScreen_Aggregate(t *testing.T) {
	screen, err := ParseScreen(sampleReport())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if screen.Name != "0" {
		t.Errorf("screen name: got %q, want 0", screen.Name)
	}
	if screen.CombinedResolution != (Resolution{Width: 3840, Height: 1080}) {
		t.Errorf("combined resolution: got %v", screen.CombinedResolution)
	}
	if len(screen.Outputs) != 3 {
		t.Fatalf("outputs: got %d, want 3", len(screen.Outputs))
	}
}

func TestParseScreen_ConnectedOutput(t *testing.T) {
	screen, err := ParseScreen(sampleReport())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	edp := screen.Outputs[0]
	if edp.Name != "eDP1" || !edp.Connected || !edp.Primary {
		t.Errorf("unexpected eDP1 header fields: %+v", edp)
	}
	if edp.Configuration == nil {
		t.Fatalf("eDP1 should have a configuration")
	}
	if !edp.Configuration.Mode.Equal(mode(1920, 1080, "60.00")) {
		t.Errorf("eDP1 active mode: got %v", edp.Configuration.Mode)
	}
	if edp.Configuration.Position != (Position{X: 0, Y: 0}) {
		t.Errorf("eDP1 position: got %v", edp.Configuration.Position)
	}
	if edp.Monitor == nil {
		t.Fatalf("eDP1 should have a monitor")
	}
	if len(edp.Monitor.ReportedModes) != 3 {
		t.Errorf("eDP1 modes: got %d, want 3", len(edp.Monitor.ReportedModes))
	}
	if edp.Monitor.PreferredMode == nil || !edp.Monitor.PreferredMode.Equal(mode(1920, 1080, "60.00")) {
		t.Errorf("eDP1 preferred mode: got %v", edp.Monitor.PreferredMode)
	}
	if got := edp.Monitor.Identifier(); got != "[DEL] TESTPANEL (SER12345)" {
		t.Errorf("eDP1 identifier: got %q", got)
	}
}

func TestParseScreen_SecondaryAndDisconnected(t *testing.T) {
	screen, err := ParseScreen(sampleReport())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	hdmi := screen.Outputs[1]
	if hdmi.Primary {
		t.Errorf("HDMI1 must not be primary")
	}
	if hdmi.Configuration == nil || hdmi.Configuration.Position != (Position{X: 1920, Y: 0}) {
		t.Errorf("HDMI1 configuration: got %+v", hdmi.Configuration)
	}
	if hdmi.Monitor == nil || hdmi.Monitor.EDID != nil {
		t.Errorf("HDMI1 should have a monitor without EDID")
	}

	dp := screen.Outputs[2]
	if dp.Connected {
		t.Errorf("DP1 must be disconnected")
	}
	if dp.Monitor != nil {
		t.Errorf("a disconnected output without modes has no monitor")
	}
	if dp.Configuration != nil {
		t.Errorf("DP1 must have no configuration")
	}
}

func TestParseScreen_Idempotent(t *testing.T) {
	report := sampleReport()
	first, err := ParseScreen(report)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	second, err := ParseScreen(report)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("parsing the same report twice must yield identical screens")
	}
}

func TestParseScreen_DefaultModeOrdering(t *testing.T) {
	report := `Screen 0: minimum 8 x 8, current 1920 x 1080, maximum 32767 x 32767
eDP1 connected 1920x1080+0+0
   1920x1080     60*+  30
HDMI1 disconnected
`
	screen, err := ParseScreen(report)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	monitor := screen.Outputs[0].Monitor
	if monitor == nil {
		t.Fatalf("expected monitor on eDP1")
	}
	if got := monitor.DefaultMode(); !got.Equal(mode(1920, 1080, "60")) {
		t.Errorf("default mode: got %v, want 1920x1080@60hz", got)
	}
	sorted := monitor.SortedModes()
	if len(sorted) != 2 || !sorted[0].Equal(mode(1920, 1080, "60")) || !sorted[1].Equal(mode(1920, 1080, "30")) {
		t.Errorf("sorted modes: got %v", sorted)
	}
}

func TestParseScreen_MissingScreen(t *testing.T) {
	report := `eDP1 connected 1920x1080+0+0
   1920x1080     60*+
`
	if _, err := ParseScreen(report); !errors.Is(err, ErrMissingScreen) {
		t.Fatalf("expected ErrMissingScreen, got %v", err)
	}
}

func TestParseScreen_MultipleScreenHeaders(t *testing.T) {
	report := `Screen 0: minimum 8 x 8, current 1920 x 1080, maximum 32767 x 32767
Screen 1: minimum 8 x 8, current 1280 x 1024, maximum 32767 x 32767
`
	if _, err := ParseScreen(report); !errors.Is(err, ErrMalformedReport) {
		t.Fatalf("expected ErrMalformedReport, got %v", err)
	}
}

func TestParseScreen_ModeLineWithoutOutput(t *testing.T) {
	report := `Screen 0: minimum 8 x 8, current 1920 x 1080, maximum 32767 x 32767
   1920x1080     60*+
`
	if _, err := ParseScreen(report); !errors.Is(err, ErrMalformedReport) {
		t.Fatalf("expected ErrMalformedReport, got %v", err)
	}
}

func TestParseScreen_DuplicateOutput(t *testing.T) {
	report := `Screen 0: minimum 8 x 8, current 1920 x 1080, maximum 32767 x 32767
eDP1 connected 1920x1080+0+0
eDP1 connected 1920x1080+0+0
`
	if _, err := ParseScreen(report); !errors.Is(err, ErrMalformedReport) {
		t.Fatalf("expected ErrMalformedReport, got %v", err)
	}
}

func TestParseScreen_IgnoresDiagnosticLines(t *testing.T) {
	report := `Screen 0: minimum 8 x 8, current 1920 x 1080, maximum 32767 x 32767
eDP1 connected 1920x1080+0+0
	Identifier: 0x42
	Timestamp:  123456789
	non-desktop: 0
		supported: 0, 1
   1920x1080     60*+
`
	screen, err := ParseScreen(report)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if screen.Outputs[0].Monitor == nil {
		t.Fatalf("mode line after diagnostics should still attach")
	}
}
