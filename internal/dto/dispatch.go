package dto

import (
	"time"

	"github.com/noah-isme/bm-aniversariantes-api/internal/models"
)

// DispatchRequest captures POST /notifications/dispatch payload. Either an
// explicit id selection or today=true (everyone with a birthday today).
type DispatchRequest struct {
	PersonnelIDs []string `json:"personnelIds" validate:"required_without=Today,dive,required"`
	Today        bool     `json:"today"`
}

// DispatchRunResponse exposes progress and the final report of a run.
type DispatchRunResponse struct {
	ID         string                 `json:"id"`
	Status     models.DispatchStatus  `json:"status"`
	Progress   DispatchProgress       `json:"progress"`
	Report     *DispatchReport        `json:"report,omitempty"`
	Results    models.DispatchResults `json:"results,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
	StartedAt  *time.Time             `json:"startedAt,omitempty"`
	FinishedAt *time.Time             `json:"finishedAt,omitempty"`
}

// DispatchProgress mirrors the {current, total} counter shown while sending.
type DispatchProgress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// DispatchReport is the {success, failed} tally of a finished run.
type DispatchReport struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// NewDispatchRunResponse projects a stored run.
func NewDispatchRunResponse(run *models.DispatchRun) DispatchRunResponse {
	resp := DispatchRunResponse{
		ID:         run.ID,
		Status:     run.Status,
		Progress:   DispatchProgress{Current: run.Current, Total: run.Total},
		Results:    run.Results,
		CreatedAt:  run.CreatedAt,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
	if run.Status == models.DispatchStatusFinished {
		resp.Report = &DispatchReport{Success: run.Succeeded, Failed: run.Failed}
	}
	return resp
}
