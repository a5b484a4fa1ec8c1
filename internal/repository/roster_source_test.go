package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/bm-aniversariantes-api/pkg/errors"
)

func TestSpreadsheetCSVURL(t *testing.T) {
	got := SpreadsheetCSVURL("abc-123", "ANIVERSARIANTES 2026")
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/abc-123/gviz/tq?tqx=out:csv&sheet=ANIVERSARIANTES+2026", got)
}

func TestHTTPRosterSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_, _ = w.Write([]byte("NOME,DATA\nAna,02/03/1990\n"))
	}))
	defer srv.Close()

	body, err := NewHTTPRosterSource(srv.URL, 0).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "NOME,DATA\nAna,02/03/1990\n", string(body))
}

func TestHTTPRosterSourceRejects(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"html login page": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html>login</html>"))
		},
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/csv")
			w.WriteHeader(http.StatusInternalServerError)
		},
		"blank body": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/csv")
			_, _ = w.Write([]byte("  \n\t "))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			_, err := NewHTTPRosterSource(srv.URL, 0).Fetch(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrRosterUnavailable)
		})
	}
}

func TestHTTPRosterSourceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewHTTPRosterSource(addr, 0).Fetch(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrRosterUnavailable)
}

func TestFileRosterSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roster.csv")
	require.NoError(t, os.WriteFile(path, []byte("NOME,DATA\n"), 0o600))

	src := NewFileRosterSource(path)
	body, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "NOME,DATA\n", string(body))
	assert.Equal(t, "file://"+path, src.Name())

	_, err = NewFileRosterSource(filepath.Join(dir, "missing.csv")).Fetch(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrRosterUnavailable)
}
