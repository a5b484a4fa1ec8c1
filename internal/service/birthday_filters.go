package service

import (
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/bm-aniversariantes-api/internal/models"
)

// ByExactDate returns the people whose birthday falls on date's month and day.
// Records whose birth date is not YYYY-MM-DD never match.
func ByExactDate(roster []models.Personnel, date time.Time) []models.Personnel {
	month, day := int(date.Month()), date.Day()
	return filterPersonnel(roster, func(p models.Personnel) bool {
		m, d, ok := p.BirthMonthDay()
		return ok && m == month && d == day
	})
}

// ByWeek returns the people whose birthday, placed in ref's year, falls between
// Sunday 00:00:00.000 and Saturday 23:59:59.999 of ref's week in ref's location.
//
// The birthday is always placed in ref's year, so a week spanning New Year
// misses the birthdays on the side of the boundary in the other year.
func ByWeek(roster []models.Personnel, ref time.Time) []models.Personnel {
	start, end := WeekBounds(ref)
	loc := ref.Location()
	year := ref.Year()
	return filterPersonnel(roster, func(p models.Personnel) bool {
		m, d, ok := p.BirthMonthDay()
		if !ok {
			return false
		}
		candidate := time.Date(year, time.Month(m), d, 0, 0, 0, 0, loc)
		return !candidate.Before(start) && !candidate.After(end)
	})
}

// WeekBounds returns the first and last instant of ref's Sunday-based week.
func WeekBounds(ref time.Time) (time.Time, time.Time) {
	y, m, d := ref.Date()
	start := time.Date(y, m, d-int(ref.Weekday()), 0, 0, 0, 0, ref.Location())
	end := time.Date(y, m, d-int(ref.Weekday())+6, 23, 59, 59, int(999*time.Millisecond), ref.Location())
	return start, end
}

// ByMonth returns the people born in the zero-based monthIndex (0 = January).
// Records whose birth date is not YYYY-MM-DD belong to no month.
func ByMonth(roster []models.Personnel, monthIndex int) []models.Personnel {
	return filterPersonnel(roster, func(p models.Personnel) bool {
		m, ok := p.BirthMonth()
		return ok && m == monthIndex+1
	})
}

// ByNameAndUnits keeps people whose name contains text (case-insensitive) and,
// when units is non-empty, whose unit contains at least one of units (case-sensitive).
func ByNameAndUnits(roster []models.Personnel, text string, units []string) []models.Personnel {
	needle := strings.ToLower(text)
	return filterPersonnel(roster, func(p models.Personnel) bool {
		if !strings.Contains(strings.ToLower(p.Name), needle) {
			return false
		}
		if len(units) == 0 {
			return true
		}
		for _, u := range units {
			if strings.Contains(p.Unit, u) {
				return true
			}
		}
		return false
	})
}

// ApplyCriteria is ByNameAndUnits driven by a FilterCriteria value.
func ApplyCriteria(roster []models.Personnel, criteria models.FilterCriteria) []models.Personnel {
	return ByNameAndUnits(roster, criteria.Search, criteria.Units)
}

// UniqueUnits lists the distinct non-blank units, sorted.
func UniqueUnits(roster []models.Personnel) []string {
	seen := make(map[string]struct{}, len(roster))
	units := make([]string, 0)
	for _, p := range roster {
		if strings.TrimSpace(p.Unit) == "" {
			continue
		}
		if _, ok := seen[p.Unit]; ok {
			continue
		}
		seen[p.Unit] = struct{}{}
		units = append(units, p.Unit)
	}
	sort.Strings(units)
	return units
}

func filterPersonnel(roster []models.Personnel, keep func(models.Personnel) bool) []models.Personnel {
	out := make([]models.Personnel, 0)
	for _, p := range roster {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
