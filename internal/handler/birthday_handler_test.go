package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bm-aniversariantes-api/internal/dto"
	"github.com/noah-isme/bm-aniversariantes-api/internal/middleware"
	"github.com/noah-isme/bm-aniversariantes-api/internal/models"
	appErrors "github.com/noah-isme/bm-aniversariantes-api/pkg/errors"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	if data != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, data))
	}
	return envelope
}

type fakeBirthdaySrv struct {
	lastQuery dto.BirthdayQuery
	lastDate  string
	list      dto.BirthdayList
	err       error
	dashboard *dto.DashboardResponse
	hit       bool
}

func (f *fakeBirthdaySrv) Today(context.Context) dto.BirthdayList { return f.list }

func (f *fakeBirthdaySrv) OnDate(_ context.Context, date string) (dto.BirthdayList, error) {
	f.lastDate = date
	return f.list, f.err
}

func (f *fakeBirthdaySrv) Week(_ context.Context, query dto.BirthdayQuery) (dto.BirthdayList, error) {
	f.lastQuery = query
	return f.list, f.err
}

func (f *fakeBirthdaySrv) Month(_ context.Context, query dto.BirthdayQuery) (dto.BirthdayList, error) {
	f.lastQuery = query
	return f.list, f.err
}

func (f *fakeBirthdaySrv) Dashboard(_ context.Context, query dto.BirthdayQuery) (*dto.DashboardResponse, bool, error) {
	f.lastQuery = query
	return f.dashboard, f.hit, f.err
}

func TestBirthdayHandlerWeekBindsFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeBirthdaySrv{list: dto.BirthdayList{Count: 1, Personnel: []models.Personnel{{ID: "sheet-1", Name: "Ana"}}}}
	handler := NewBirthdayHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/birthdays/week?date=2026-10-16&search=%20ana%20&units=1%C2%AA%20Cia,2%C2%AA%20Cia&units=Pel", nil)

	handler.Week(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-10-16", srv.lastQuery.Date)
	assert.Equal(t, "ana", srv.lastQuery.Search)
	assert.Equal(t, []string{"1ª Cia", "2ª Cia", "Pel"}, srv.lastQuery.Units)

	var list dto.BirthdayList
	decodeEnvelope(t, rec, &list)
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, "sheet-1", list.Personnel[0].ID)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestBirthdayHandlerMonthRejectsNonNumericMonth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBirthdayHandler(&fakeBirthdaySrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/birthdays/month?month=outubro", nil)

	handler.Month(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBirthdayHandlerOnDatePropagatesValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeBirthdaySrv{err: appErrors.Clone(appErrors.ErrValidation, "date must use the YYYY-MM-DD format")}
	handler := NewBirthdayHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/birthdays/date/16-10-2026", nil)
	c.Params = gin.Params{{Key: "date", Value: "16-10-2026"}}

	handler.OnDate(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "16-10-2026", srv.lastDate)
	envelope := decodeEnvelope(t, rec, nil)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, envelope.Error.Code)
}

func TestBirthdayHandlerDashboardReportsCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeBirthdaySrv{dashboard: &dto.DashboardResponse{Today: "2026-10-16", CalendarDays: []int{16}, Sample: true, RosterVersion: "v7"}, hit: true}
	handler := NewBirthdayHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/birthdays/dashboard?month=9", nil)
	middleware.WithResponseMeta()(c)

	handler.Dashboard(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.lastQuery.Month)
	assert.Equal(t, 9, *srv.lastQuery.Month)

	var dashboard dto.DashboardResponse
	envelope := decodeEnvelope(t, rec, &dashboard)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Contains(t, envelope.Meta, "processing_time_ms")
	assert.Equal(t, true, envelope.Meta["sample_data"])
	assert.Equal(t, "v7", envelope.Meta["roster_version"])
	assert.Equal(t, []int{16}, dashboard.CalendarDays)
}
