package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bm-aniversariantes-api/internal/models"
)

func person(id, name, unit, birth string) models.Personnel {
	return models.Personnel{ID: id, Name: name, Rank: "Sd BM", Unit: unit, BirthDate: birth, BMNumber: "123"}
}

func ids(people []models.Personnel) []string {
	out := make([]string, 0, len(people))
	for _, p := range people {
		out = append(out, p.ID)
	}
	return out
}

func TestByExactDate(t *testing.T) {
	roster := []models.Personnel{
		person("1", "Ana", "1ª Cia", "1990-03-05"),
		person("2", "Bia", "1ª Cia", "2000-03-05"),
		person("3", "Caio", "1ª Cia", "1990-03-06"),
		person("4", "Duda", "1ª Cia", "3/5"),
		person("5", "Edu", "1ª Cia", ""),
	}

	got := ByExactDate(roster, time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, []string{"1", "2"}, ids(got))
}

func TestByExactDateIncludesEachRecordOnItsOwnDate(t *testing.T) {
	roster := []models.Personnel{
		person("1", "Ana", "A", "1990-01-31"),
		person("2", "Bia", "B", "1985-07-15"),
		person("3", "Caio", "C", "2000-12-01"),
	}
	for _, p := range roster {
		birth, err := time.Parse("2006-01-02", p.BirthDate)
		require.NoError(t, err)
		assert.Contains(t, ids(ByExactDate(roster, birth)), p.ID)
	}
}

func TestByWeekScenario(t *testing.T) {
	roster := []models.Personnel{
		person("1", "Ana", "1ª Cia", "1990-03-05"),
		person("2", "Bia", "2ª Cia", "1985-03-09"),
	}
	// Wednesday 2025-03-05: week runs Sunday 03-02 to Saturday 03-08.
	ref := time.Date(2025, time.March, 5, 14, 30, 0, 0, time.UTC)

	assert.Equal(t, []string{"1"}, ids(ByWeek(roster, ref)))
	march := ByMonth(roster, 2)
	assert.Equal(t, []string{"1", "2"}, ids(march))
	assert.Equal(t, []string{"1"}, ids(ByNameAndUnits(march, "an", nil)))
	assert.Equal(t, []string{"1"}, ids(ByExactDate(roster, ref)))
}

func TestByWeekBoundariesInclusive(t *testing.T) {
	roster := []models.Personnel{
		person("sun", "Sun", "A", "1990-03-02"),
		person("sat", "Sat", "A", "1990-03-08"),
		person("before", "Before", "A", "1990-03-01"),
		person("after", "After", "A", "1990-03-09"),
	}
	for _, ref := range []time.Time{
		time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 8, 23, 59, 59, 0, time.UTC),
	} {
		assert.Equal(t, []string{"sun", "sat"}, ids(ByWeek(roster, ref)), ref.String())
	}
}

func TestByWeekUsesReferenceLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	roster := []models.Personnel{person("1", "Ana", "A", "1990-03-08")}
	// Saturday night in BRT is already Sunday in UTC.
	ref := time.Date(2025, time.March, 8, 22, 0, 0, 0, loc)
	assert.Equal(t, []string{"1"}, ids(ByWeek(roster, ref)))
	assert.Empty(t, ByWeek(roster, ref.UTC()))
}

func TestByWeekYearBoundary(t *testing.T) {
	roster := []models.Personnel{
		person("dec", "Dec", "A", "1990-12-30"),
		person("jan", "Jan", "A", "1990-01-02"),
	}
	// Week of Thursday 2026-01-01 runs from Sunday 2025-12-28 to Saturday 2026-01-03.
	ref := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"jan"}, ids(ByWeek(roster, ref)), "December birthdays are placed in the reference year")
}

func TestByWeekSkipsMalformedDates(t *testing.T) {
	roster := []models.Personnel{
		person("1", "Ana", "A", "unknown"),
		person("2", "Bia", "A", ""),
		person("3", "Caio", "A", "05-03-1990"),
		person("4", "Duda", "A", "90-03-05"),
	}
	ref := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, ByWeek(roster, ref))
	assert.Empty(t, ByExactDate(roster, ref))
}

func TestWeekBounds(t *testing.T) {
	start, end := WeekBounds(time.Date(2025, time.March, 5, 14, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, time.March, 8, 23, 59, 59, 999000000, time.UTC), end)
}

func TestByMonthPartitionsRoster(t *testing.T) {
	roster := []models.Personnel{
		person("1", "Ana", "A", "1990-01-05"),
		person("2", "Bia", "A", "1990-02-05"),
		person("3", "Caio", "A", "1990-12-31"),
		person("4", "Duda", "A", "1990-06-15"),
		person("5", "Edu", "A", "2000-06-01"),
	}
	malformed := []models.Personnel{
		person("dashed", "Fabi", "A", "05-03-1990"),
		person("compact", "Gil", "A", "0503"),
		person("short-year", "Hugo", "A", "90-03-05"),
		person("unpadded", "Iris", "A", "1990-3-5"),
		person("text", "Joao", "A", "unknown"),
		person("blank", "Kau", "A", ""),
	}
	all := append(append([]models.Personnel(nil), roster...), malformed...)
	total := 0
	seen := map[string]int{}
	for m := 0; m < 12; m++ {
		for _, p := range ByMonth(all, m) {
			seen[p.ID]++
			total++
		}
	}
	assert.Equal(t, len(roster), total)
	for _, p := range roster {
		assert.Equal(t, 1, seen[p.ID], p.ID)
	}
	for _, p := range malformed {
		assert.Zero(t, seen[p.ID], p.ID)
	}
}

func TestByNameAndUnits(t *testing.T) {
	roster := []models.Personnel{
		person("1", "Ana Souza", "1ª Cia Op", "1990-01-05"),
		person("2", "Bia Lima", "2ª Cia Op", "1990-02-05"),
		person("3", "Carlos Ana", "PEMAD", "1990-03-05"),
	}

	assert.Equal(t, roster, ByNameAndUnits(roster, "", nil))
	assert.Equal(t, roster, ByNameAndUnits(roster, "", []string{}))
	assert.Equal(t, []string{"1", "3"}, ids(ByNameAndUnits(roster, "ana", nil)))
	assert.Equal(t, []string{"1", "2"}, ids(ByNameAndUnits(roster, "", []string{"Cia"})))
	assert.Equal(t, []string{"3"}, ids(ByNameAndUnits(roster, "ANA", []string{"PEMAD", "2ª"})))
	assert.Empty(t, ByNameAndUnits(roster, "", []string{"cia"}), "unit match is case-sensitive")
}

func TestFiltersDoNotMutateInput(t *testing.T) {
	roster := []models.Personnel{
		person("1", "Ana", "A", "1990-03-05"),
		person("2", "Bia", "B", "1990-03-09"),
	}
	snapshot := append([]models.Personnel(nil), roster...)
	ref := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)

	_ = ByExactDate(roster, ref)
	_ = ByWeek(roster, ref)
	_ = ByMonth(roster, 2)
	_ = ByNameAndUnits(roster, "a", []string{"A"})

	assert.Equal(t, snapshot, roster)
}

func TestUniqueUnits(t *testing.T) {
	roster := []models.Personnel{
		person("1", "Ana", "2ª Cia Op", ""),
		person("2", "Bia", "1ª Cia Op", ""),
		person("3", "Caio", "2ª Cia Op", ""),
		person("4", "Duda", "  ", ""),
	}
	assert.Equal(t, []string{"1ª Cia Op", "2ª Cia Op"}, UniqueUnits(roster))
}
