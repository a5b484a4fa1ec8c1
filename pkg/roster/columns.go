package roster

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ColumnMapping lists, per record field, the header keywords that identify its column.
// A header matches when its normalized text contains any keyword.
type ColumnMapping struct {
	Name     []string `yaml:"name"`
	Rank     []string `yaml:"rank"`
	Unit     []string `yaml:"unit"`
	Date     []string `yaml:"date"`
	BMNumber []string `yaml:"bm_number"`
}

// DefaultColumnMapping matches the brigade spreadsheet headers.
func DefaultColumnMapping() ColumnMapping {
	return ColumnMapping{
		Name:     []string{"NOME"},
		Rank:     []string{"POSTO", "GRADUACAO"},
		Unit:     []string{"LOTACAO", "OBM", "UNIDADE"},
		Date:     []string{"NASCIMENTO", "DATA"},
		BMNumber: []string{"NUM", "BM"},
	}
}

// LoadColumnMapping reads a YAML override. Fields left empty keep their defaults.
func LoadColumnMapping(path string) (ColumnMapping, error) {
	mapping := DefaultColumnMapping()
	if path == "" {
		return mapping, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return mapping, fmt.Errorf("read column mapping: %w", err)
	}

	var override ColumnMapping
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return mapping, fmt.Errorf("parse column mapping: %w", err)
	}

	mapping.Name = pick(override.Name, mapping.Name)
	mapping.Rank = pick(override.Rank, mapping.Rank)
	mapping.Unit = pick(override.Unit, mapping.Unit)
	mapping.Date = pick(override.Date, mapping.Date)
	mapping.BMNumber = pick(override.BMNumber, mapping.BMNumber)
	return mapping, nil
}

// Columns holds resolved column indices; -1 means the column is absent.
type Columns struct {
	Name     int
	Rank     int
	Unit     int
	Date     int
	BMNumber int
}

// Resolve finds, for each field independently, the first header containing one of
// its keywords. Headers must already be normalized. The same column may satisfy
// more than one field (an "OBM" header also contains "BM").
func (m ColumnMapping) Resolve(headers []string) Columns {
	return Columns{
		Name:     findColumn(headers, m.Name),
		Rank:     findColumn(headers, m.Rank),
		Unit:     findColumn(headers, m.Unit),
		Date:     findColumn(headers, m.Date),
		BMNumber: findColumn(headers, m.BMNumber),
	}
}

func findColumn(headers []string, keywords []string) int {
	for i, h := range headers {
		for _, kw := range keywords {
			if kw != "" && strings.Contains(h, kw) {
				return i
			}
		}
	}
	return -1
}

func pick(override, fallback []string) []string {
	cleaned := make([]string, 0, len(override))
	for _, kw := range override {
		if n := NormalizeHeader(kw); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	if len(cleaned) == 0 {
		return fallback
	}
	return cleaned
}
