package models

import "time"

// GeoSample is one stored location observation. Samples are immutable once stored.
type GeoSample struct {
	ID        int64     `json:"id" db:"id"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"` // UTC capture instant
}

// GeoSamplesResponse represents the list of stored samples
type GeoSamplesResponse struct {
	Data  []GeoSample `json:"data"`
	Count int         `json:"count"`
}

// SessionStatus is a point-in-time view of a tracking session
type SessionStatus struct {
	Tracking            bool       `json:"tracking"`
	RunID               string     `json:"runId,omitempty"`
	StartedAt           *time.Time `json:"startedAt,omitempty"`
	PointCount          int64      `json:"pointCount"`
	FixSuccesses        int64      `json:"fixSuccesses"`
	FixFailures         int64      `json:"fixFailures"`
	ConsecutiveFailures int64      `json:"consecutiveFailures"`
	StoreErrors         int64      `json:"storeErrors"`
	LastFixAt           *time.Time `json:"lastFixAt,omitempty"`
	LastError           string     `json:"lastError,omitempty"`
	Degraded            bool       `json:"degraded"`
}
