// Package location defines the contract for obtaining device position fixes and
// ships three implementations: a simulator, an MQTT subscriber and a serial
// NMEA receiver.
package location

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrPermissionDenied means the platform refused access to location.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrUnavailable means no positioning capability is reachable.
	ErrUnavailable = errors.New("location unavailable")
	// ErrNoFix means the source is up but could not produce a position in time.
	ErrNoFix = errors.New("no location fix")
)

// Fix is one position reported by a source.
type Fix struct {
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
	Timestamp      time.Time
}

// Source yields position fixes. The request timeout is carried by ctx.
// A nil fix with a nil error is treated as a failed fix by callers.
type Source interface {
	RequestFix(ctx context.Context, accuracy Accuracy) (*Fix, error)
}

// Checker is implemented by sources that can report up front whether they are
// usable.
type Checker interface {
	CheckAvailability(ctx context.Context) error
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, accuracy Accuracy) (*Fix, error)

// RequestFix calls f
func (f SourceFunc) RequestFix(ctx context.Context, accuracy Accuracy) (*Fix, error) {
	return f(ctx, accuracy)
}

// ValidateFix rejects coordinates outside the WGS84 ranges.
func ValidateFix(f Fix) error {
	if math.IsNaN(f.Latitude) || f.Latitude < -90 || f.Latitude > 90 {
		return fmt.Errorf("latitude: must be between -90 and 90, got %v", f.Latitude)
	}
	if math.IsNaN(f.Longitude) || f.Longitude < -180 || f.Longitude > 180 {
		return fmt.Errorf("longitude: must be between -180 and 180, got %v", f.Longitude)
	}
	if f.AccuracyMeters < 0 {
		return fmt.Errorf("accuracy: must not be negative")
	}
	return nil
}
