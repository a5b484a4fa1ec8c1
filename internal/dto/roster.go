package dto

import "time"

// RosterStatus describes the snapshot currently served.
type RosterStatus struct {
	Source         string    `json:"source"`
	Sample         bool      `json:"sample"`
	Records        int       `json:"records"`
	Encoding       string    `json:"encoding,omitempty"`
	Version        string    `json:"version"`
	LoadedAt       time.Time `json:"loadedAt"`
	FallbackReason string    `json:"fallbackReason,omitempty"`
}

// RosterExportQuery selects the month, filters and file format of a roster export.
type RosterExportQuery struct {
	BirthdayQuery
	Format string `form:"format"`
}
