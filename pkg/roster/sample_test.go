package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bm-aniversariantes-api/internal/models"
)

func TestSampleRoster(t *testing.T) {
	now := time.Date(2026, time.October, 30, 15, 4, 0, 0, time.UTC)
	records := SampleRoster(now)
	require.Len(t, records, 3)

	assert.Equal(t, "2026-10-30", records[0].BirthDate)
	assert.Equal(t, "2026-11-01", records[1].BirthDate)
	assert.Equal(t, "2026-10-05", records[2].BirthDate)
	assert.True(t, IsSample(records))
}

func TestIsSample(t *testing.T) {
	assert.False(t, IsSample(nil))
	assert.False(t, IsSample([]models.Personnel{{ID: "sheet-1", Name: "Carlos Eduardo Silva"}}))
	assert.False(t, IsSample([]models.Personnel{{ID: "1", Name: "Outro"}}))
}
