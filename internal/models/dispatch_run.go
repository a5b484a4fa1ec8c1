package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DispatchStatus captures the notification run lifecycle.
type DispatchStatus string

const (
	DispatchStatusQueued     DispatchStatus = "QUEUED"
	DispatchStatusProcessing DispatchStatus = "PROCESSING"
	DispatchStatusFinished   DispatchStatus = "FINISHED"
)

// Active reports whether a run still occupies the dispatcher.
func (s DispatchStatus) Active() bool {
	return s == DispatchStatusQueued || s == DispatchStatusProcessing
}

// DispatchRun is one pass of the notification loop over a target list.
type DispatchRun struct {
	ID         string          `db:"id" json:"id"`
	Status     DispatchStatus  `db:"status" json:"status"`
	Total      int             `db:"total" json:"total"`
	Current    int             `db:"progress" json:"current"`
	Succeeded  int             `db:"succeeded" json:"success"`
	Failed     int             `db:"failed" json:"failed"`
	TargetIDs  StringList      `db:"target_ids" json:"targetIds"`
	Results    DispatchResults `db:"results" json:"results"`
	CreatedBy  string          `db:"created_by" json:"createdBy"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
	StartedAt  *time.Time      `db:"started_at" json:"startedAt,omitempty"`
	FinishedAt *time.Time      `db:"finished_at" json:"finishedAt,omitempty"`
}

// DispatchResult records the outcome for one recipient.
type DispatchResult struct {
	PersonnelID string    `json:"personnelId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Delivered   bool      `json:"delivered"`
	Error       string    `json:"error,omitempty"`
	At          time.Time `json:"at"`
}

// DispatchResults is persisted as a JSON column.
type DispatchResults []DispatchResult

// Value marshals results to JSON for persistence.
func (r DispatchResults) Value() (driver.Value, error) {
	if r == nil {
		r = DispatchResults{}
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal dispatch results: %w", err)
	}
	return string(data), nil
}

// Scan unmarshals JSON payloads into the results slice.
func (r *DispatchResults) Scan(value interface{}) error {
	return scanJSON(value, r, "DispatchResults")
}

// StringList is persisted as a JSON array column.
type StringList []string

// Value marshals the list to JSON for persistence.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal string list: %w", err)
	}
	return string(data), nil
}

// Scan unmarshals a JSON array.
func (l *StringList) Scan(value interface{}) error {
	return scanJSON(value, l, "StringList")
}

func scanJSON(value interface{}, dest interface{}, name string) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for %s", value, name)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return nil
}
