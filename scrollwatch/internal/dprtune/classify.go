// Package dprtune implements the DPR-conditional rendering mitigation: it
// classifies the device pixel ratio, synthesises the matching CSS override
// sheet, and keeps a single global scrolling marker in step with the shared
// scroll-activity signal so DOM mutation cost stays O(1) regardless of how
// many elements the rules match.
package dprtune

import "math"

// Mode selects which override sheet (if any) is active.
type Mode int

const (
	// ModeOff injects nothing.
	ModeOff Mode = iota
	// ModeLight only suppresses transitions while the scrolling marker is set.
	ModeLight
	// ModeAggressive additionally kills animations and promotes the grid
	// container to its own compositing layer.
	ModeAggressive
)

func (m Mode) String() string {
	switch m {
	case ModeLight:
		return "light"
	case ModeAggressive:
		return "aggressive"
	default:
		return "off"
	}
}

// Classification is derived from the device pixel ratio, never stored.
type Classification struct {
	DPR float64
}

// Classify wraps a DPR reading.
func Classify(dpr float64) Classification {
	return Classification{DPR: dpr}
}

// IsDPR1 reports a ratio of effectively exactly 1, the Chromium rendering
// path that benefits most from compositing-layer promotion.
func (c Classification) IsDPR1() bool {
	return math.Abs(c.DPR-1.0) < 0.01
}

// IsLowDPR reports a ratio at or below 1.25. A zero reading means the
// environment lookup failed and classifies as nothing.
func (c Classification) IsLowDPR() bool {
	return c.DPR > 0 && c.DPR <= 1.25
}

// Mode maps the classification to an override sheet.
func (c Classification) Mode() Mode {
	switch {
	case c.IsDPR1():
		return ModeAggressive
	case c.IsLowDPR():
		return ModeLight
	default:
		return ModeOff
	}
}
