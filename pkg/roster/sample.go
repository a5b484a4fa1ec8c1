package roster

import (
	"time"

	"github.com/noah-isme/bm-aniversariantes-api/internal/models"
)

// SampleRoster returns the built-in demonstration roster, dated relative to now
// so the dashboard always has a birthday today and one later this week.
func SampleRoster(now time.Time) []models.Personnel {
	year, month, day := now.Date()
	loc := now.Location()
	today := time.Date(year, month, day, 0, 0, 0, 0, loc)

	return []models.Personnel{
		{ID: "1", Name: "Carlos Eduardo Silva", Rank: "Cb BM", Unit: "1ª Cia Op", BirthDate: isoDate(today), BMNumber: "123.456-7"},
		{ID: "2", Name: "Ana Maria Souza", Rank: "Sd BM", Unit: "2ª Cia Op", BirthDate: isoDate(today.AddDate(0, 0, 2)), BMNumber: "765.432-1"},
		{ID: "3", Name: "Roberto Ferreira", Rank: "1º Sgt BM", Unit: "1ª Cia Op", BirthDate: isoDate(time.Date(year, month, 5, 0, 0, 0, 0, loc)), BMNumber: "112.233-4"},
	}
}

// IsSample reports whether records look like the built-in sample roster.
func IsSample(records []models.Personnel) bool {
	return len(records) > 0 && records[0].ID == "1" && records[0].Name == "Carlos Eduardo Silva"
}

func isoDate(t time.Time) string {
	return t.Format("2006-01-02")
}
