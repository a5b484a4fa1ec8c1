package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bm-aniversariantes-api/internal/dto"
	"github.com/noah-isme/bm-aniversariantes-api/internal/models"
	"github.com/noah-isme/bm-aniversariantes-api/internal/service"
	appErrors "github.com/noah-isme/bm-aniversariantes-api/pkg/errors"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/response"
)

type cardService interface {
	Personnel(ctx context.Context, id, format string) (*service.FileDownload, error)
	Export(ctx context.Context, req dto.CardExportRequest) (*models.CardExport, error)
	ResolveDownload(ctx context.Context, token string) (*service.FileDownload, error)
}

// CardHandler renders and serves birthday cards.
type CardHandler struct {
	service cardService
}

// NewCardHandler constructs the handler.
func NewCardHandler(service cardService) *CardHandler {
	return &CardHandler{service: service}
}

// Personnel godoc
// @Summary Individual birthday card
// @Tags Cards
// @Produce image/jpeg
// @Produce application/pdf
// @Param id path string true "Personnel ID"
// @Param format query string false "jpg (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /cards/personnel/{id} [get]
func (h *CardHandler) Personnel(c *gin.Context) {
	file, err := h.service.Personnel(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

// Export godoc
// @Summary Export a collective card
// @Description Renders the week or month card and returns a signed download URL
// @Tags Cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CardExportRequest true "Export request"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /cards/export [post]
func (h *CardHandler) Export(c *gin.Context) {
	var req dto.CardExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}
	req.Units = splitUnits(req.Units)
	export, err := h.service.Export(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, export)
}

// Download godoc
// @Summary Download an exported card
// @Tags Cards
// @Produce image/jpeg
// @Produce application/pdf
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /cards/download/{token} [get]
func (h *CardHandler) Download(c *gin.Context) {
	file, err := h.service.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
