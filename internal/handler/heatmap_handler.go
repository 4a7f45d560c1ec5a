package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/trackheat/internal/density"
	"github.com/jengzang/trackheat/internal/logging"
	"github.com/jengzang/trackheat/internal/models"
	"github.com/jengzang/trackheat/pkg/response"
)

// HeatmapBuilder renders the stored track as a heatmap
type HeatmapBuilder interface {
	Build(ctx context.Context, mode density.Mode) (*models.HeatmapResponse, error)
}

// HeatmapHandler handles HTTP requests for heatmaps
type HeatmapHandler struct {
	builder HeatmapBuilder
}

// NewHeatmapHandler creates a new heatmap handler
func NewHeatmapHandler(builder HeatmapBuilder) *HeatmapHandler {
	return &HeatmapHandler{builder: builder}
}

// GetHeatmap returns one colored, sized circle per stored sample.
// GET /api/v1/heatmap?mode=area|marker
func (h *HeatmapHandler) GetHeatmap(c *gin.Context) {
	mode, err := density.ParseMode(c.Query("mode"))
	if err != nil {
		response.BadRequest(c, "Invalid mode, expected area or marker")
		return
	}

	result, err := h.builder.Build(c.Request.Context(), mode)
	if err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("mode", string(mode)).Msg("build heatmap failed")
		response.InternalError(c, "Failed to build heatmap")
		return
	}

	response.Success(c, result)
}
