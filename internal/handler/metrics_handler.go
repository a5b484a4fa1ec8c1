package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bm-aniversariantes-api/internal/service"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/response"
)

type rosterStatusProvider interface {
	Current(ctx context.Context) *service.RosterSnapshot
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	roster  rosterStatusProvider
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, roster rosterStatusProvider) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, roster: roster}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports ready once a roster snapshot, real or sample, is being served.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.roster == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting"})
		return
	}
	snapshot := h.roster.Current(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "ready", "roster": snapshot.Status()})
}

// Summary godoc
// @Summary Aggregated runtime counters
// @Tags Observability
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /metrics/summary [get]
func (h *MetricsHandler) Summary(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot())
}
