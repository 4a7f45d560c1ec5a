package density

import (
	"fmt"
	"strings"
)

// Mode selects how normalized density is turned into circle size and opacity.
// The engine holds no mode state; callers pick one per request.
type Mode string

const (
	// ModeArea renders diffuse heat blobs: sparse points are wide and faint.
	ModeArea Mode = "area"
	// ModeMarker renders small discrete dots of constant size.
	ModeMarker Mode = "marker"
)

// Area and marker encoding constants
const (
	areaMinRadiusMeters = 50.0
	areaRadiusSpan      = 100.0
	areaMinOpacity      = 0.15
	areaOpacitySpan     = 0.45

	markerRadiusMeters = 8.0
	markerOpacity      = 0.9
)

// ParseMode parses a mode name; the empty string selects ModeArea.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeArea:
		return ModeArea, nil
	case ModeMarker:
		return ModeMarker, nil
	default:
		return "", fmt.Errorf("unknown render mode %q", s)
	}
}

// Encode returns the circle radius in meters and the fill opacity for a normalized density.
func Encode(normalized float64, mode Mode) (radiusMeters, opacity float64) {
	n := clamp01(normalized)
	if mode == ModeMarker {
		return markerRadiusMeters, markerOpacity
	}
	return areaMinRadiusMeters + (1-n)*areaRadiusSpan, areaMinOpacity + n*areaOpacitySpan
}
