package roster

import (
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/bm-aniversariantes-api/internal/models"
)

// Defaults stored when the optional columns are missing from the sheet.
const (
	DefaultUnit     = "Undefined"
	DefaultBMNumber = "0000000"
	DefaultYear     = "2000"
)

// ErrMissingRequiredColumn is returned when the header has no name or birth date column.
var ErrMissingRequiredColumn = errors.New("roster: required name or birth date column not found")

// Parser turns spreadsheet text into personnel records.
type Parser struct {
	mapping ColumnMapping
}

// NewParser returns a parser using the given column mapping.
func NewParser(mapping ColumnMapping) *Parser {
	return &Parser{mapping: mapping}
}

// Parse reads the header row, resolves the columns once and converts every
// data row. Rows with fewer than two cells, or with a blank name or birth date,
// are skipped. Text with fewer than two rows yields no records and no error.
func (p *Parser) Parse(text string) ([]models.Personnel, error) {
	rows := SplitRecords(text)
	if len(rows) < 2 {
		return []models.Personnel{}, nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = NormalizeHeader(h)
	}

	cols := p.mapping.Resolve(headers)
	if cols.Name == -1 || cols.Date == -1 {
		return []models.Personnel{}, fmt.Errorf("%w (headers: %s)", ErrMissingRequiredColumn, strings.Join(headers, ", "))
	}

	records := make([]models.Personnel, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) < 2 {
			continue
		}

		name := cellAt(row, cols.Name)
		rawDate := cellAt(row, cols.Date)
		if name == "" || rawDate == "" {
			continue
		}

		record := models.Personnel{
			ID:        fmt.Sprintf("sheet-%d", i),
			Name:      stripQuotes(name),
			Rank:      "",
			Unit:      DefaultUnit,
			BirthDate: ToISODate(rawDate),
			BMNumber:  DefaultBMNumber,
		}
		if cols.Rank != -1 {
			record.Rank = stripQuotes(cellAt(row, cols.Rank))
		}
		if cols.Unit != -1 {
			record.Unit = stripQuotes(cellAt(row, cols.Unit))
		}
		if cols.BMNumber != -1 {
			record.BMNumber = stripQuotes(cellAt(row, cols.BMNumber))
		}
		records = append(records, record)
	}

	return records, nil
}

// ToISODate converts "D/M/Y" or "D/M" into "YYYY-MM-DD", padding day and month
// to two digits. A missing year becomes DefaultYear. Input without a slash is
// returned unchanged apart from quote removal.
func ToISODate(raw string) string {
	clean := stripQuotes(raw)
	parts := strings.Split(clean, "/")
	if len(parts) < 2 {
		return clean
	}

	day := padLeft(parts[0], 2)
	month := padLeft(parts[1], 2)
	year := DefaultYear
	if len(parts) == 3 {
		year = parts[2]
	}
	return year + "-" + month + "-" + day
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func stripQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}

func padLeft(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return strings.Repeat("0", width-n) + s
	}
	return s
}
