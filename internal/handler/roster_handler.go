package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/bm-aniversariantes-api/internal/dto"
	"github.com/noah-isme/bm-aniversariantes-api/internal/service"
	appErrors "github.com/noah-isme/bm-aniversariantes-api/pkg/errors"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/response"
)

type rosterStore interface {
	Current(ctx context.Context) *service.RosterSnapshot
	Reload(ctx context.Context) *service.RosterSnapshot
	Units(ctx context.Context) []string
}

type rosterLister interface {
	Roster(ctx context.Context, query dto.BirthdayQuery) (dto.BirthdayList, error)
}

type rosterExporter interface {
	Roster(ctx context.Context, query dto.RosterExportQuery) (*service.FileDownload, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// RosterHandler serves the personnel roster, its status and exports.
type RosterHandler struct {
	roster   rosterStore
	lister   rosterLister
	exporter rosterExporter
	cache    cacheInvalidator
	logger   *zap.Logger
}

// NewRosterHandler constructs the handler. cache may be nil.
func NewRosterHandler(roster rosterStore, lister rosterLister, exporter rosterExporter, cache cacheInvalidator, logger *zap.Logger) *RosterHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterHandler{roster: roster, lister: lister, exporter: exporter, cache: cache, logger: logger}
}

// List godoc
// @Summary List personnel
// @Description Lists the roster, optionally narrowed to a month and by name or unit
// @Tags Roster
// @Produce json
// @Param month query int false "Zero-based month (0 = January)"
// @Param search query string false "Case-insensitive name fragment"
// @Param units query []string false "Unit fragments" collectionFormat(multi)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /roster [get]
func (h *RosterHandler) List(c *gin.Context) {
	query, ok := bindBirthdayQuery(c)
	if !ok {
		return
	}
	list, err := h.lister.Roster(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list)
}

// Status godoc
// @Summary Roster snapshot status
// @Description Reports the source, record count and whether sample data is served
// @Tags Roster
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /roster/status [get]
func (h *RosterHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.roster.Current(c.Request.Context()).Status())
}

// Reload godoc
// @Summary Reload the roster
// @Description Fetches the spreadsheet again, falling back to sample data on failure
// @Tags Roster
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /roster/reload [post]
func (h *RosterHandler) Reload(c *gin.Context) {
	snapshot := h.roster.Reload(c.Request.Context())
	if h.cache != nil {
		if err := h.cache.Invalidate(c.Request.Context(), service.BirthdayCachePattern); err != nil {
			h.logger.Warn("birthday cache not cleared after reload", zap.Error(err))
		}
	}
	response.JSON(c, http.StatusOK, snapshot.Status())
}

// Units godoc
// @Summary Distinct units
// @Tags Roster
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /roster/units [get]
func (h *RosterHandler) Units(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.roster.Units(c.Request.Context()))
}

// Export godoc
// @Summary Export the roster listing
// @Description Downloads the filtered listing as CSV or PDF
// @Tags Roster
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param month query int false "Zero-based month (0 = January)"
// @Param search query string false "Case-insensitive name fragment"
// @Param units query []string false "Unit fragments" collectionFormat(multi)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /roster/export [get]
func (h *RosterHandler) Export(c *gin.Context) {
	var query dto.RosterExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	query.Units = splitUnits(query.Units)
	file, err := h.exporter.Roster(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
