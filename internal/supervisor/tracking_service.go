package supervisor

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/jengzang/trackheat/internal/location"
	"github.com/jengzang/trackheat/internal/logging"
)

// Session is the part of tracking.Session the service controls
type Session interface {
	Start(ctx context.Context) error
	Stop()
}

// TrackingService owns the tracking session lifetime. With autostart it
// starts tracking when the tree comes up; in every case it stops tracking
// when the tree shuts down so no sample is written after exit.
type TrackingService struct {
	session   Session
	autostart bool
	log       zerolog.Logger
}

// NewTrackingService creates the service
func NewTrackingService(session Session, autostart bool) *TrackingService {
	return &TrackingService{
		session:   session,
		autostart: autostart,
		log:       logging.Component("supervisor"),
	}
}

// Serve implements suture.Service. A denied permission is not retried since
// only the user can fix it; other start errors are returned so the supervisor
// retries with backoff.
func (s *TrackingService) Serve(ctx context.Context) error {
	if s.autostart {
		if err := s.session.Start(ctx); err != nil {
			if errors.Is(err, location.ErrPermissionDenied) {
				s.log.Error().Err(err).Msg("autostart abandoned")
				return fmt.Errorf("%w: %w", suture.ErrDoNotRestart, err)
			}
			return fmt.Errorf("tracking autostart failed: %w", err)
		}
		s.log.Info().Msg("tracking autostarted")
	}

	<-ctx.Done()
	s.session.Stop()
	return ctx.Err()
}

func (s *TrackingService) String() string { return "tracking-session" }
