// Package supervisor runs the long-lived parts of the server (HTTP listener,
// tracking session) under a suture supervisor so they restart with backoff
// and stop together on shutdown.
package supervisor

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

// TreeConfig tunes restart behaviour. Zero values take defaults.
type TreeConfig struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

func (c TreeConfig) withDefaults() TreeConfig {
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = 30
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = 15 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	return c
}

// Tree is the root supervisor
type Tree struct {
	root   *suture.Supervisor
	config TreeConfig
}

// NewTree creates a supervisor that reports its events to logger.
func NewTree(logger zerolog.Logger, config TreeConfig) *Tree {
	config = config.withDefaults()

	root := suture.New("trackheat", suture.Spec{
		EventHook:        eventHook(logger),
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	})
	return &Tree{root: root, config: config}
}

func eventHook(logger zerolog.Logger) suture.EventHook {
	return func(e suture.Event) {
		level := zerolog.WarnLevel
		if e.Type() == suture.EventTypeBackoff || e.Type() == suture.EventTypeResume {
			level = zerolog.InfoLevel
		}
		logger.WithLevel(level).Fields(e.Map()).Msg(e.String())
	}
}

// Add registers a service. It may be called before or after Serve.
func (t *Tree) Add(svc suture.Service) suture.ServiceToken {
	return t.root.Add(svc)
}

// Serve blocks until ctx is cancelled and every service has stopped or the
// shutdown timeout elapsed.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground starts the tree and returns a channel carrying Serve's result.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that ignored the shutdown timeout.
func (t *Tree) UnstoppedServiceReport() (suture.UnstoppedServiceReport, error) {
	return t.root.UnstoppedServiceReport()
}
