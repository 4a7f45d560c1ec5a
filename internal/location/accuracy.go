package location

import (
	"fmt"
	"strings"
)

// Accuracy is the precision hint passed with every fix request. Sources may
// ignore it.
type Accuracy int

const (
	// AccuracyDefault is the zero value. Samplers resolve it to AccuracyMedium.
	AccuracyDefault Accuracy = iota
	AccuracyLowest
	AccuracyLow
	AccuracyMedium
	AccuracyHigh
	AccuracyBest
)

var accuracyNames = [...]string{"default", "lowest", "low", "medium", "high", "best"}

func (a Accuracy) String() string {
	if a < AccuracyDefault || a > AccuracyBest {
		return fmt.Sprintf("accuracy(%d)", int(a))
	}
	return accuracyNames[a]
}

// OrDefault resolves AccuracyDefault to AccuracyMedium.
func (a Accuracy) OrDefault() Accuracy {
	if a == AccuracyDefault {
		return AccuracyMedium
	}
	return a
}

// ParseAccuracy parses an accuracy name; "" and "default" mean medium.
func ParseAccuracy(s string) (Accuracy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return AccuracyMedium, nil
	}
	for i, name := range accuracyNames {
		if s == name {
			return Accuracy(i).OrDefault(), nil
		}
	}
	return AccuracyMedium, fmt.Errorf("unknown accuracy %q", s)
}

// MaxHDOP is the worst horizontal dilution of precision a receiver fix may have
// to satisfy this hint.
func (a Accuracy) MaxHDOP() float64 {
	switch a {
	case AccuracyLowest:
		return 20
	case AccuracyLow:
		return 10
	case AccuracyHigh:
		return 2
	case AccuracyBest:
		return 1
	default:
		return 5
	}
}

// ErrorMeters is the nominal horizontal error for the hint.
func (a Accuracy) ErrorMeters() float64 {
	switch a {
	case AccuracyLowest:
		return 3000
	case AccuracyLow:
		return 1000
	case AccuracyHigh:
		return 10
	case AccuracyBest:
		return 3
	default:
		return 100
	}
}
