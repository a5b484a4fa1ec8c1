package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bm-aniversariantes-api/internal/dto"
	"github.com/noah-isme/bm-aniversariantes-api/internal/middleware"
	appErrors "github.com/noah-isme/bm-aniversariantes-api/pkg/errors"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/response"
)

type dispatchService interface {
	Start(ctx context.Context, req dto.DispatchRequest, createdBy string) (*dto.DispatchRunResponse, error)
	Get(ctx context.Context, id string) (*dto.DispatchRunResponse, error)
	List(ctx context.Context, limit int) ([]dto.DispatchRunResponse, error)
}

// NotificationHandler starts and reports birthday e-mail runs.
type NotificationHandler struct {
	service dispatchService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(service dispatchService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// Dispatch godoc
// @Summary Send birthday e-mails
// @Description Queues one e-mail per selected person, or per today's birthday when today is true
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.DispatchRequest true "Recipients"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /notifications/dispatch [post]
func (h *NotificationHandler) Dispatch(c *gin.Context) {
	var req dto.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid dispatch payload"))
		return
	}
	run, err := h.service.Start(c.Request.Context(), req, middleware.CurrentOperator(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Location", strings.TrimSuffix(c.Request.URL.Path, "/dispatch")+"/runs/"+run.ID)
	response.Accepted(c, run)
}

// Runs godoc
// @Summary Recent notification runs
// @Tags Notifications
// @Produce json
// @Param limit query int false "Maximum runs (default 20)"
// @Success 200 {object} response.Envelope
// @Router /notifications/runs [get]
func (h *NotificationHandler) Runs(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	runs, err := h.service.List(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs)
}

// Run godoc
// @Summary Notification run progress
// @Description Progress while sending, then the success and failure report
// @Tags Notifications
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notifications/runs/{id} [get]
func (h *NotificationHandler) Run(c *gin.Context) {
	run, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run)
}
