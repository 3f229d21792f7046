package xrandr

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mvanek/displayctl/internal/edid"
)

var (
	// ErrMalformedReport means a line appeared out of context, e.g. a mode
	// list with no output open.
	ErrMalformedReport = errors.New("malformed report")
	// ErrMissingScreen means the report never declared a screen header.
	ErrMissingScreen = errors.New("screen header missing from report")
)

// Line shapes recognized by the parser, tried in this order. Anything that
// matches none of them is diagnostic output and is ignored.
var (
	edidMarkerPattern = regexp.MustCompile(`^\s+EDID:\s*$`)
	hexPattern        = regexp.MustCompile(`^\s+([0-9a-fA-F]+)\s*$`)
	modeLinePattern   = regexp.MustCompile(`^\s+(\d+)x(\d+)(.*)$`)
	ratePattern       = regexp.MustCompile(`\s*(\d+(\.\d+)?)(\*)?\s*(\+)?`)
	screenPattern     = regexp.MustCompile(`^Screen ([^:]+):.* current (\d+) x (\d+)([,\s].*)?$`)
	outputPattern     = regexp.MustCompile(`^(\S+) (connected|disconnected)( primary)?( (\d+)x(\d+)\+(\d+)\+(\d+))?(\s.*)?$`)
)

// pending accumulates the output currently being described. It is flushed
// into a completed Output when the next output or screen header appears, and
// once more at end of input.
type pending struct {
	name        string
	connected   bool
	primary     bool
	resolution  Resolution
	position    *Position
	refreshRate decimal.Decimal
	modes       []Mode
	preferred   *Mode
	edidHex     []string
}

type screenParser struct {
	name       string
	resolution Resolution
	outputs    []Output
	seen       map[string]bool

	cur    pending
	inEDID bool
}

// ParseScreen reconstructs a Screen from the full report text of the display
// tool's detailed query. The scan is a single pass over lines with one open
// output accumulator; see pending.
func ParseScreen(text string) (*Screen, error) {
	parser := &screenParser{seen: map[string]bool{}}
	for _, line := range strings.Split(text, "\n") {
		if err := parser.handleLine(strings.TrimRight(line, "\r")); err != nil {
			return nil, err
		}
	}
	if err := parser.flush(); err != nil {
		return nil, err
	}
	if parser.name == "" || parser.resolution.IsZero() {
		return nil, ErrMissingScreen
	}
	return &Screen{
		Name:               parser.name,
		CombinedResolution: parser.resolution,
		Outputs:            parser.outputs,
	}, nil
}

func (p *screenParser) handleLine(line string) error {
	if edidMarkerPattern.MatchString(line) {
		p.inEDID = true
		return nil
	}
	if p.inEDID {
		if match := hexPattern.FindStringSubmatch(line); match != nil {
			p.cur.edidHex = append(p.cur.edidHex, match[1])
			return nil
		}
		p.inEDID = false
	}
	// sections go above this
	if match := modeLinePattern.FindStringSubmatch(line); match != nil {
		return p.handleModeLine(match)
	}
	if match := screenPattern.FindStringSubmatch(line); match != nil {
		return p.handleScreenLine(match)
	}
	if match := outputPattern.FindStringSubmatch(line); match != nil {
		return p.handleOutputLine(match)
	}
	slog.Debug("unparsed line", "line", line)
	return nil
}

func (p *screenParser) handleModeLine(match []string) error {
	if p.cur.name == "" {
		return fmt.Errorf("%w: mode list with no output open", ErrMalformedReport)
	}
	resolution := Resolution{Width: atoi(match[1]), Height: atoi(match[2])}
	for _, rateMatch := range ratePattern.FindAllStringSubmatch(match[3], -1) {
		rate, err := decimal.NewFromString(rateMatch[1])
		if err != nil {
			return fmt.Errorf("%w: refresh rate %q: %v", ErrMalformedReport, rateMatch[1], err)
		}
		mode := Mode{Resolution: resolution, RefreshRate: rate}
		p.cur.modes = append(p.cur.modes, mode)
		if rateMatch[3] != "" { // currently active
			p.cur.refreshRate = mode.RefreshRate
		}
		if rateMatch[4] != "" { // preferred
			p.cur.preferred = &mode
		}
	}
	return nil
}

func (p *screenParser) handleScreenLine(match []string) error {
	if err := p.flush(); err != nil {
		return err
	}
	if p.name != "" {
		return fmt.Errorf("%w: multiple screen headers", ErrMalformedReport)
	}
	p.name = match[1]
	p.resolution = Resolution{Width: atoi(match[2]), Height: atoi(match[3])}
	return nil
}

func (p *screenParser) handleOutputLine(match []string) error {
	if err := p.flush(); err != nil {
		return err
	}
	p.cur.name = match[1]
	p.cur.connected = match[2] == "connected"
	p.cur.primary = match[3] != ""
	if match[5] != "" { // geometry present; the remaining groups must be too
		p.cur.resolution = Resolution{Width: atoi(match[5]), Height: atoi(match[6])}
		p.cur.position = &Position{X: atoi(match[7]), Y: atoi(match[8])}
	}
	return nil
}

// flush completes the open output, if any. An output that accumulated no
// modes, no preferred mode and no EDID bytes gets no Monitor at all; that is
// how the tool represents a disconnected output.
func (p *screenParser) flush() error {
	defer func() { p.cur = pending{}; p.inEDID = false }()
	if p.cur.name == "" {
		return nil
	}
	if p.seen[p.cur.name] {
		return fmt.Errorf("%w: duplicate output %q", ErrMalformedReport, p.cur.name)
	}
	p.seen[p.cur.name] = true

	var monitor *Monitor
	if len(p.cur.modes) > 0 || p.cur.preferred != nil || len(p.cur.edidHex) > 0 {
		monitor = &Monitor{
			ReportedModes: dedupeModes(p.cur.modes),
			PreferredMode: p.cur.preferred,
		}
		if len(p.cur.edidHex) > 0 {
			raw, err := hex.DecodeString(strings.Join(p.cur.edidHex, ""))
			if err != nil {
				return fmt.Errorf("%w: EDID hex for %q: %v", edid.ErrMalformed, p.cur.name, err)
			}
			info, err := edid.Decode(raw)
			if err != nil {
				return err
			}
			monitor.EDID = info
		}
	}

	var configuration *Configuration
	if !p.cur.resolution.IsZero() && p.cur.position != nil {
		configuration = &Configuration{
			Mode:     Mode{Resolution: p.cur.resolution, RefreshRate: p.cur.refreshRate},
			Position: *p.cur.position,
		}
	}

	p.outputs = append(p.outputs, Output{
		Name:          p.cur.name,
		Connected:     p.cur.connected,
		Monitor:       monitor,
		Configuration: configuration,
		Primary:       p.cur.primary,
	})
	return nil
}

func dedupeModes(modes []Mode) []Mode {
	var unique []Mode
	for _, mode := range modes {
		if !containsMode(unique, mode) {
			unique = append(unique, mode)
		}
	}
	return unique
}

// atoi is safe here: every argument already matched \d+.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
