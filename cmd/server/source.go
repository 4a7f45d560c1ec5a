package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jengzang/trackheat/internal/config"
	"github.com/jengzang/trackheat/internal/location"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newSource builds the configured fix provider, behind a circuit breaker when
// location.breaker_failures is set. The returned closer releases any
// connection or port it holds.
func newSource(cfg *config.Config) (location.Source, io.Closer, error) {
	src, closer, err := newProvider(cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Location.BreakerFailures > 0 {
		src = location.NewBreakerSource(src, location.BreakerConfig{
			Failures: cfg.Location.BreakerFailures,
			Cooldown: cfg.Location.BreakerCooldown,
		})
	}
	return src, closer, nil
}

func newProvider(cfg *config.Config) (location.Source, io.Closer, error) {
	switch strings.ToLower(cfg.Location.Provider) {
	case "", "simulator":
		s := cfg.Simulator
		return location.NewSimulatedSource(location.SimulatorConfig{
			HomeLatitude:     s.HomeLatitude,
			HomeLongitude:    s.HomeLongitude,
			StepMeters:       s.StepMeters,
			RadiusMeters:     s.RadiusMeters,
			FailureRate:      s.FailureRate,
			Latency:          s.Latency,
			Seed:             s.Seed,
			PermissionDenied: s.PermissionDenied,
		}), nopCloser{}, nil

	case "mqtt":
		m := cfg.MQTT
		src, err := location.NewMQTTSource(location.MQTTConfig{
			Broker:         m.Broker,
			ClientID:       m.ClientID,
			Topic:          m.Topic,
			QoS:            byte(m.QoS),
			MaxFixAge:      m.MaxFixAge,
			ConnectTimeout: m.ConnectTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create mqtt source: %w", err)
		}
		return src, src, nil

	case "serial":
		s := cfg.Serial
		src, err := location.NewSerialSource(location.SerialConfig{
			Port:      s.Port,
			BaudRate:  s.BaudRate,
			MaxFixAge: s.MaxFixAge,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create serial source: %w", err)
		}
		return src, src, nil

	default:
		return nil, nil, fmt.Errorf("unknown location provider %q", cfg.Location.Provider)
	}
}
