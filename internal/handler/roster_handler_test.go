package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bm-aniversariantes-api/internal/dto"
	"github.com/noah-isme/bm-aniversariantes-api/internal/models"
	"github.com/noah-isme/bm-aniversariantes-api/internal/service"
)

type fakeRosterStore struct {
	snapshot *service.RosterSnapshot
	reloads  int
}

func (f *fakeRosterStore) Current(context.Context) *service.RosterSnapshot { return f.snapshot }

func (f *fakeRosterStore) Reload(context.Context) *service.RosterSnapshot {
	f.reloads++
	return f.snapshot
}

func (f *fakeRosterStore) Units(context.Context) []string { return []string{"1ª Cia Op", "2ª Cia Op"} }

type fakeRosterLister struct{ query dto.BirthdayQuery }

func (f *fakeRosterLister) Roster(_ context.Context, query dto.BirthdayQuery) (dto.BirthdayList, error) {
	f.query = query
	return dto.BirthdayList{Count: 0, Personnel: []models.Personnel{}}, nil
}

type fakeRosterExporter struct{ query dto.RosterExportQuery }

func (f *fakeRosterExporter) Roster(_ context.Context, query dto.RosterExportQuery) (*service.FileDownload, error) {
	f.query = query
	return &service.FileDownload{Filename: "efetivo.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("Nome\n")}, nil
}

type fakeInvalidator struct {
	patterns []string
	err      error
}

func (f *fakeInvalidator) Invalidate(_ context.Context, pattern string) error {
	f.patterns = append(f.patterns, pattern)
	return f.err
}

func newRosterHandlerForTest() (*RosterHandler, *fakeRosterStore, *fakeRosterLister, *fakeRosterExporter, *fakeInvalidator) {
	store := &fakeRosterStore{snapshot: &service.RosterSnapshot{
		Records:  []models.Personnel{{ID: "sheet-1"}},
		Source:   "https://docs.google.com/spreadsheets/d/x/gviz/tq",
		Encoding: "utf-8",
		Version:  "abc123",
		LoadedAt: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
	}}
	lister := &fakeRosterLister{}
	exporter := &fakeRosterExporter{}
	cache := &fakeInvalidator{}
	return NewRosterHandler(store, lister, exporter, cache, nil), store, lister, exporter, cache
}

func TestRosterHandlerStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, _, _, _ := newRosterHandlerForTest()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/roster/status", nil)

	handler.Status(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var status dto.RosterStatus
	decodeEnvelope(t, rec, &status)
	assert.Equal(t, 1, status.Records)
	assert.Equal(t, "abc123", status.Version)
	assert.False(t, status.Sample)
}

func TestRosterHandlerReloadClearsCache(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, store, _, _, cache := newRosterHandlerForTest()
	cache.err = errors.New("redis down")

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/roster/reload", nil)

	handler.Reload(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, store.reloads)
	assert.Equal(t, []string{"birthdays:*"}, cache.patterns)
}

func TestRosterHandlerListAndUnits(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, lister, _, _ := newRosterHandlerForTest()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/roster?month=0&search=souza", nil)
	handler.List(c)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, lister.query.Month)
	assert.Equal(t, 0, *lister.query.Month)
	assert.Equal(t, "souza", lister.query.Search)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/roster/units", nil)
	handler.Units(c)
	var units []string
	decodeEnvelope(t, rec, &units)
	assert.Equal(t, []string{"1ª Cia Op", "2ª Cia Op"}, units)
}

func TestRosterHandlerExportStreamsAttachment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, _, exporter, _ := newRosterHandlerForTest()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/roster/export?format=csv&units=Op", nil)

	handler.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", exporter.query.Format)
	assert.Equal(t, []string{"Op"}, exporter.query.Units)
	assert.Equal(t, `attachment; filename="efetivo.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Nome\n", rec.Body.String())
}
