package dto

import (
	"time"

	"github.com/noah-isme/bm-aniversariantes-api/internal/models"
)

// BirthdayQuery carries the selected date and list filters of the dashboard.
type BirthdayQuery struct {
	Date   string   `form:"date"`
	Month  *int     `form:"month"`
	Search string   `form:"search"`
	Units  []string `form:"units"`
}

// Criteria returns the name and unit filters of the query.
func (q BirthdayQuery) Criteria() models.FilterCriteria {
	return models.FilterCriteria{Search: q.Search, Units: q.Units}
}

// BirthdayList is a projection of the roster for one day, week or month.
type BirthdayList struct {
	From      string             `json:"from,omitempty"`
	To        string             `json:"to,omitempty"`
	Month     *int               `json:"month,omitempty"`
	Count     int                `json:"count"`
	Personnel []models.Personnel `json:"personnel"`
}

// DashboardResponse aggregates every list shown on the birthday dashboard.
type DashboardResponse struct {
	Today         string       `json:"today"`
	SelectedDate  string       `json:"selectedDate"`
	TodayList     BirthdayList `json:"todayBirthdays"`
	SelectedList  BirthdayList `json:"selectedDateBirthdays"`
	Week          BirthdayList `json:"week"`
	Month         BirthdayList `json:"month"`
	CalendarDays  []int        `json:"calendarDays"`
	Sample        bool         `json:"sample"`
	RosterVersion string       `json:"rosterVersion"`
	GeneratedAt   time.Time    `json:"generatedAt"`
}
