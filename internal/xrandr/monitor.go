package xrandr

import (
	"sort"

	"github.com/mvanek/displayctl/internal/edid"
)

// Monitor is the capability set reported by a physically attached display:
// the modes it can be driven at plus its identification block.
type Monitor struct {
	ReportedModes []Mode
	PreferredMode *Mode
	EDID          *edid.Info
}

// Identifier returns the EDID identifier, or "" when no EDID was reported.
func (m *Monitor) Identifier() string {
	if m.EDID != nil {
		return m.EDID.Identifier()
	}
	return ""
}

// SupportsMode reports whether the monitor listed the given mode.
func (m *Monitor) SupportsMode(mode Mode) bool {
	for _, reported := range m.ReportedModes {
		if reported.Equal(mode) {
			return true
		}
	}
	return false
}

// SortedModes orders the reported modes for selection: the preferred mode
// first, then the other modes at the preferred resolution by descending
// refresh rate, then everything else descending by (resolution, rate).
func (m *Monitor) SortedModes() []Mode {
	var preferred []Mode
	if m.PreferredMode != nil {
		preferred = append(preferred, *m.PreferredMode)
		var sameResolution []Mode
		for _, mode := range m.ReportedModes {
			if mode.Equal(*m.PreferredMode) {
				continue
			}
			if mode.Resolution == m.PreferredMode.Resolution {
				sameResolution = append(sameResolution, mode)
			}
		}
		sort.Slice(sameResolution, func(i, j int) bool {
			return sameResolution[j].Less(sameResolution[i])
		})
		preferred = append(preferred, sameResolution...)
	}

	var remaining []Mode
	for _, mode := range m.ReportedModes {
		if !containsMode(preferred, mode) {
			remaining = append(remaining, mode)
		}
	}
	sort.Slice(remaining, func(i, j int) bool {
		return remaining[j].Less(remaining[i])
	})
	return append(preferred, remaining...)
}

// DefaultMode is the preferred mode when reported, else the highest sorted
// mode.
func (m *Monitor) DefaultMode() Mode {
	if m.PreferredMode != nil {
		return *m.PreferredMode
	}
	return m.SortedModes()[0]
}

func containsMode(modes []Mode, mode Mode) bool {
	for _, candidate := range modes {
		if candidate.Equal(mode) {
			return true
		}
	}
	return false
}
