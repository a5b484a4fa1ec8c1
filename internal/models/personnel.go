package models

import "strings"

// Personnel is one row of the brigade roster.
type Personnel struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Rank      string `json:"rank"`
	Unit      string `json:"unit"`
	BirthDate string `json:"birthDate"`
	BMNumber  string `json:"bmNumber"`
}

// BirthMonth returns the month component of BirthDate. Only YYYY-MM-DD
// values carry a month; anything else reports false.
func (p Personnel) BirthMonth() (int, bool) {
	month, _, ok := p.BirthMonthDay()
	return month, ok
}

// BirthMonthDay returns the month and day components of a YYYY-MM-DD BirthDate.
func (p Personnel) BirthMonthDay() (month, day int, ok bool) {
	if !isISODate(p.BirthDate) {
		return 0, 0, false
	}
	month = int(p.BirthDate[5]-'0')*10 + int(p.BirthDate[6]-'0')
	day = int(p.BirthDate[8]-'0')*10 + int(p.BirthDate[9]-'0')
	return month, day, true
}

// DayMonth formats the birthday as dd/mm, as printed on cards and listings.
func (p Personnel) DayMonth() string {
	parts := strings.Split(p.BirthDate, "-")
	if len(parts) < 3 {
		return p.BirthDate
	}
	return parts[2] + "/" + parts[1]
}

// BMDigits returns the registration number without punctuation.
func (p Personnel) BMDigits() string {
	var b strings.Builder
	for _, r := range p.BMNumber {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FilterCriteria narrows a roster by name text and units.
type FilterCriteria struct {
	Search string   `json:"search" form:"search"`
	Units  []string `json:"units" form:"units"`
}

// isISODate reports whether s has the exact YYYY-MM-DD shape.
func isISODate(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if i == 4 || i == 7 {
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
