package roster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaultMapping(t *testing.T) {
	headers := []string{"NOME", "POSTO/GRADUACAO", "LOTACAO", "DATA DE NASCIMENTO", "NUMERO BM"}
	cols := DefaultColumnMapping().Resolve(headers)
	assert.Equal(t, Columns{Name: 0, Rank: 1, Unit: 2, Date: 3, BMNumber: 4}, cols)
}

func TestResolveFirstMatchWinsPerField(t *testing.T) {
	headers := []string{"NOME", "OBM", "DATA", "Nº BM"}
	cols := DefaultColumnMapping().Resolve(headers)
	assert.Equal(t, 1, cols.Unit)
	assert.Equal(t, 1, cols.BMNumber, "OBM contains BM and comes first")
	assert.Equal(t, -1, cols.Rank)
}

func TestLoadColumnMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "columns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [\"militar\"]\nbm_number: [\"matrícula\"]\n"), 0o600))

	mapping, err := LoadColumnMapping(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"MILITAR"}, mapping.Name)
	assert.Equal(t, []string{"MATRICULA"}, mapping.BMNumber)
	assert.Equal(t, DefaultColumnMapping().Date, mapping.Date)
}

func TestLoadColumnMappingEmptyPath(t *testing.T) {
	mapping, err := LoadColumnMapping("")
	require.NoError(t, err)
	assert.Equal(t, DefaultColumnMapping(), mapping)
}

func TestLoadColumnMappingErrors(t *testing.T) {
	_, err := LoadColumnMapping(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unterminated"), 0o600))
	_, err = LoadColumnMapping(path)
	assert.Error(t, err)
}
