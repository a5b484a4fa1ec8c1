package roster

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bm-aniversariantes-api/internal/models"
)

func newTestParser() *Parser {
	return NewParser(DefaultColumnMapping())
}

func TestParseFullSheet(t *testing.T) {
	text := "NOME,POSTO/GRADUAÇÃO,LOTAÇÃO,DATA DE NASCIMENTO,NUM\n" +
		"Ana Souza,Sd BM,2ª Cia Op,3/7/1995,765.432-1\n" +
		"Bia Lima,Cb BM,1ª Cia Op,15/12,123\n"

	records, err := newTestParser().Parse(text)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, models.Personnel{
		ID: "sheet-1", Name: "Ana Souza", Rank: "Sd BM", Unit: "2ª Cia Op", BirthDate: "1995-07-03", BMNumber: "765.432-1",
	}, records[0])
	assert.Equal(t, "2000-12-15", records[1].BirthDate)
	assert.Equal(t, "sheet-2", records[1].ID)
}

func TestParseQuotedNameWithComma(t *testing.T) {
	text := "NOME,POSTO,DATA NASCIMENTO\n\"Silva, Carlos\",Cb BM,05/03/1990\n"

	records, err := newTestParser().Parse(text)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Silva, Carlos", records[0].Name)
	assert.Equal(t, "Cb BM", records[0].Rank)
	assert.Equal(t, "1990-03-05", records[0].BirthDate)
	assert.Equal(t, DefaultUnit, records[0].Unit)
	assert.Equal(t, DefaultBMNumber, records[0].BMNumber)
}

func TestParseMissingNameColumn(t *testing.T) {
	records, err := newTestParser().Parse("POSTO,DATA\nCb BM,01/01/1990\n")
	assert.ErrorIs(t, err, ErrMissingRequiredColumn)
	assert.Empty(t, records)
}

func TestParseMissingDateColumn(t *testing.T) {
	records, err := newTestParser().Parse("NOME,POSTO\nAna,Sd BM\n")
	assert.ErrorIs(t, err, ErrMissingRequiredColumn)
	assert.Empty(t, records)
}

func TestParseHeaderOnlyOrEmpty(t *testing.T) {
	for _, text := range []string{"", "NOME,DATA", "NOME,DATA\n"} {
		records, err := newTestParser().Parse(text)
		require.NoError(t, err, text)
		assert.Empty(t, records, text)
	}
}

func TestParseSkipsShortAndBlankRows(t *testing.T) {
	text := "NOME,DATA,LOTACAO\n" +
		"solo\n" +
		",01/02/1990,X\n" +
		"Ana,,X\n" +
		"Bia,02/02/1991,Y\n"

	records, err := newTestParser().Parse(text)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Bia", records[0].Name)
	assert.Equal(t, "sheet-4", records[0].ID, "ids follow the row index, skipped rows included")
}

func TestParseShortRowMissingOptionalCells(t *testing.T) {
	records, err := newTestParser().Parse("NOME,DATA,POSTO,LOTACAO\nAna,01/02/1990\n")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "", records[0].Rank)
	assert.Equal(t, "", records[0].Unit)
}

func TestParseCustomMapping(t *testing.T) {
	mapping := DefaultColumnMapping()
	mapping.Name = []string{"MILITAR"}
	records, err := NewParser(mapping).Parse("MILITAR,NASCIMENTO\nAna,1/2/1990\n")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "1990-02-01", records[0].BirthDate)
}

func TestParseBoundsAndNonEmptyFields(t *testing.T) {
	var b strings.Builder
	b.WriteString("NOME,DATA,POSTO\n")
	for i := 0; i < 50; i++ {
		switch i % 5 {
		case 0:
			b.WriteString(",01/01/1990,Sd\n")
		case 1:
			b.WriteString("x\n")
		default:
			fmt.Fprintf(&b, "Name %d,%d/%d/1990,Sd\n", i, i%28+1, i%12+1)
		}
	}

	text := b.String()
	records, err := newTestParser().Parse(text)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(records), len(SplitRecords(text))-1)
	for _, r := range records {
		assert.NotEmpty(t, r.Name)
		assert.NotEmpty(t, r.BirthDate)
	}
}

func TestToISODate(t *testing.T) {
	cases := []struct{ in, want string }{
		{"3/7/1995", "1995-07-03"},
		{"03/07/1995", "1995-07-03"},
		{"15/12", "2000-12-15"},
		{`"1/1/2001"`, "2001-01-01"},
		{"1/2/3/4", "2000-02-01"},
		{"1995-07-03", "1995-07-03"},
		{"unknown", "unknown"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ToISODate(tc.in), tc.in)
	}
}

func TestToISODateRoundTrip(t *testing.T) {
	for d := 1; d <= 31; d++ {
		for m := 1; m <= 12; m++ {
			raw := fmt.Sprintf("%d/%d/1987", d, m)
			assert.Equal(t, fmt.Sprintf("1987-%02d-%02d", m, d), ToISODate(raw))
		}
	}
}
