package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/trackheat/internal/location"
	"github.com/jengzang/trackheat/internal/logging"
	"github.com/jengzang/trackheat/internal/models"
	"github.com/jengzang/trackheat/pkg/response"
)

// TrackingSession is the subset of tracking.Session the handlers drive
type TrackingSession interface {
	Start(ctx context.Context) error
	Stop()
	IsTracking() bool
	Points(ctx context.Context) ([]models.GeoSample, error)
	PointCount(ctx context.Context) (int64, error)
	ClearPoints(ctx context.Context) error
	Status(ctx context.Context) (models.SessionStatus, error)
}

// TrackingHandler handles HTTP requests for the tracking session
type TrackingHandler struct {
	session TrackingSession
}

// NewTrackingHandler creates a new tracking handler
func NewTrackingHandler(session TrackingSession) *TrackingHandler {
	return &TrackingHandler{session: session}
}

// Start begins tracking. Starting an active session is a no-op.
// POST /api/v1/tracking/start
func (h *TrackingHandler) Start(c *gin.Context) {
	if err := h.session.Start(c.Request.Context()); err != nil {
		logging.Ctx(c.Request.Context()).Warn().Err(err).Msg("start tracking failed")
		switch {
		case errors.Is(err, location.ErrPermissionDenied):
			response.Forbidden(c, "Location permission denied")
		case errors.Is(err, location.ErrUnavailable):
			response.ServiceUnavailable(c, "Location source unavailable")
		default:
			response.InternalError(c, "Failed to start tracking")
		}
		return
	}

	response.Success(c, gin.H{"tracking": true})
}

// Stop ends tracking. Stopping an idle session is a no-op.
// POST /api/v1/tracking/stop
func (h *TrackingHandler) Stop(c *gin.Context) {
	h.session.Stop()
	response.Success(c, gin.H{"tracking": false})
}

// Status returns the session state and counters
// GET /api/v1/tracking/status
func (h *TrackingHandler) Status(c *gin.Context) {
	status, err := h.session.Status(c.Request.Context())
	if err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("read status failed")
		response.InternalError(c, "Failed to read tracking status")
		return
	}

	response.Success(c, status)
}

// ListPoints returns every stored sample in capture order
// GET /api/v1/points
func (h *TrackingHandler) ListPoints(c *gin.Context) {
	points, err := h.session.Points(c.Request.Context())
	if err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("read points failed")
		response.InternalError(c, "Failed to read points")
		return
	}

	response.Success(c, models.GeoSamplesResponse{
		Data:  points,
		Count: len(points),
	})
}

// CountPoints returns the number of stored samples
// GET /api/v1/points/count
func (h *TrackingHandler) CountPoints(c *gin.Context) {
	count, err := h.session.PointCount(c.Request.Context())
	if err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("count points failed")
		response.InternalError(c, "Failed to count points")
		return
	}

	response.Success(c, gin.H{"count": count})
}

// ClearPoints deletes every stored sample. Tracking state is unchanged.
// DELETE /api/v1/points
func (h *TrackingHandler) ClearPoints(c *gin.Context) {
	if err := h.session.ClearPoints(c.Request.Context()); err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("clear points failed")
		response.InternalError(c, "Failed to clear points")
		return
	}

	response.Success(c, gin.H{"message": "Points cleared", "tracking": h.session.IsTracking()})
}
