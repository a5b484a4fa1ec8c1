package dto

import "github.com/noah-isme/bm-aniversariantes-api/internal/models"

// CardExportRequest captures POST /cards/export payload.
type CardExportRequest struct {
	Scope  models.CardScope  `json:"scope" validate:"required,oneof=week month"`
	Date   string            `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Month  *int              `json:"month" validate:"omitempty,min=0,max=11"`
	Format models.CardFormat `json:"format" validate:"omitempty,oneof=jpg jpeg pdf"`
	Search string            `json:"search"`
	Units  []string          `json:"units"`
}
