package xrandr

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Resolution is a width/height pair in pixels. The zero value (or any value
// with a zero side) means "no resolution".
type Resolution struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func (r Resolution) IsZero() bool {
	return r.Width == 0 || r.Height == 0
}

// Less orders resolutions lexicographically by width, then height.
func (r Resolution) Less(other Resolution) bool {
	if r.Width != other.Width {
		return r.Width < other.Width
	}
	return r.Height < other.Height
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Position is a signed placement offset on the virtual screen.
type Position struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// String renders the xrandr display form, e.g. "+1920+0" or "+0-1080".
func (p Position) String() string {
	return fmt.Sprintf("%+d%+d", p.X, p.Y)
}

// CLIString renders the offset form accepted by xrandr --pos.
func (p Position) CLIString() string {
	return fmt.Sprintf("%dx%d", p.X, p.Y)
}

// Mode is a resolution plus an optional refresh rate. A zero RefreshRate
// means the rate is unknown or unspecified. Rates are exact decimals so that
// 59.95 read back from a report never drifts through a float round-trip.
type Mode struct {
	Resolution  Resolution
	RefreshRate decimal.Decimal
}

// Equal compares both fields; the rate is compared by value, so 60 and 60.00
// are the same mode.
func (m Mode) Equal(other Mode) bool {
	return m.Resolution == other.Resolution && m.RefreshRate.Equal(other.RefreshRate)
}

// Less orders modes by resolution, then refresh rate.
func (m Mode) Less(other Mode) bool {
	if m.Resolution != other.Resolution {
		return m.Resolution.Less(other.Resolution)
	}
	return m.RefreshRate.Cmp(other.RefreshRate) < 0
}

func (m Mode) String() string {
	if !m.RefreshRate.IsZero() {
		return fmt.Sprintf("%s@%shz", m.Resolution, m.RefreshRate)
	}
	return m.Resolution.String()
}
