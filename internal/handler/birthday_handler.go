package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bm-aniversariantes-api/internal/dto"
	"github.com/noah-isme/bm-aniversariantes-api/internal/middleware"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/response"
)

type birthdayService interface {
	Today(ctx context.Context) dto.BirthdayList
	OnDate(ctx context.Context, date string) (dto.BirthdayList, error)
	Week(ctx context.Context, query dto.BirthdayQuery) (dto.BirthdayList, error)
	Month(ctx context.Context, query dto.BirthdayQuery) (dto.BirthdayList, error)
	Dashboard(ctx context.Context, query dto.BirthdayQuery) (*dto.DashboardResponse, bool, error)
}

// BirthdayHandler answers the birthday questions of the dashboard.
type BirthdayHandler struct {
	service birthdayService
}

// NewBirthdayHandler constructs the handler.
func NewBirthdayHandler(service birthdayService) *BirthdayHandler {
	return &BirthdayHandler{service: service}
}

// Today godoc
// @Summary Today's birthdays
// @Tags Birthdays
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /birthdays/today [get]
func (h *BirthdayHandler) Today(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Today(c.Request.Context()))
}

// OnDate godoc
// @Summary Birthdays on a date
// @Tags Birthdays
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /birthdays/date/{date} [get]
func (h *BirthdayHandler) OnDate(c *gin.Context) {
	list, err := h.service.OnDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list)
}

// Week godoc
// @Summary Birthdays of a week
// @Description Sunday to Saturday week holding date (default today), filtered by name and units
// @Tags Birthdays
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD)"
// @Param search query string false "Case-insensitive name fragment"
// @Param units query []string false "Unit fragments" collectionFormat(multi)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /birthdays/week [get]
func (h *BirthdayHandler) Week(c *gin.Context) {
	query, ok := bindBirthdayQuery(c)
	if !ok {
		return
	}
	list, err := h.service.Week(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list)
}

// Month godoc
// @Summary Birthdays of a month
// @Tags Birthdays
// @Produce json
// @Param month query int false "Zero-based month (0 = January), defaults to the current month"
// @Param search query string false "Case-insensitive name fragment"
// @Param units query []string false "Unit fragments" collectionFormat(multi)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /birthdays/month [get]
func (h *BirthdayHandler) Month(c *gin.Context) {
	query, ok := bindBirthdayQuery(c)
	if !ok {
		return
	}
	list, err := h.service.Month(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list)
}

// Dashboard godoc
// @Summary Birthday dashboard
// @Description Today's and the selected day's birthdays plus the filtered week and month
// @Tags Birthdays
// @Produce json
// @Param date query string false "Selected date (YYYY-MM-DD)"
// @Param month query int false "Zero-based month, defaults to the selected date's month"
// @Param search query string false "Case-insensitive name fragment"
// @Param units query []string false "Unit fragments" collectionFormat(multi)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /birthdays/dashboard [get]
func (h *BirthdayHandler) Dashboard(c *gin.Context) {
	query, ok := bindBirthdayQuery(c)
	if !ok {
		return
	}
	start := time.Now()
	summary, cacheHit, err := h.service.Dashboard(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetRosterMeta(c, summary.RosterVersion, summary.Sample)
	meta := middleware.ExtractMeta(c)
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, summary, meta)
}
