package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bm-aniversariantes-api/pkg/roster"
)

const testRosterCSV = "NOME,POSTO/GRADUAÇÃO,LOTAÇÃO,DATA NASCIMENTO,Nº BM\n" +
	"Ana Souza,Sd BM,1ª Cia Op,16/10/1990,123.456-7\n" +
	"Bia Lima,Cb BM,2ª Cia Op,13/10/1985,765.432-1\n" +
	"Caio Reis,1º Sgt BM,1ª Cia Op,05/03/1980,112.233-4\n" +
	"Duda Melo,Cap BM,2ª Cia Op,16/10,998.877-6\n"

var saoPaulo = time.FixedZone("BRT", -3*60*60)

// friday 16 October 2026, 09:30 local time
func testNow() time.Time {
	return time.Date(2026, time.October, 16, 9, 30, 0, 0, saoPaulo)
}

type fakeRosterSource struct {
	mu    sync.Mutex
	body  []byte
	err   error
	calls int
}

func (f *fakeRosterSource) Fetch(context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}

func (f *fakeRosterSource) Name() string { return "fake" }

func newTestRoster(t *testing.T, csv string) *RosterService {
	t.Helper()
	svc := NewRosterService(RosterServiceParams{
		Source:   &fakeRosterSource{body: []byte(csv)},
		Metrics:  NewMetricsService(),
		Location: saoPaulo,
	})
	svc.now = testNow
	return svc
}

func TestRosterServiceReloadParsesSource(t *testing.T) {
	svc := newTestRoster(t, testRosterCSV)

	snapshot := svc.Reload(context.Background())
	require.False(t, snapshot.Sample)
	require.Len(t, snapshot.Records, 4)
	assert.Equal(t, "sheet-1", snapshot.Records[0].ID)
	assert.Equal(t, "2000-10-16", snapshot.Records[3].BirthDate)
	assert.Equal(t, "utf-8", snapshot.Encoding)
	assert.NotEmpty(t, snapshot.Version)
	assert.Empty(t, snapshot.FallbackReason)

	status := snapshot.Status()
	assert.Equal(t, 4, status.Records)
	assert.Equal(t, "fake", status.Source)
}

func TestRosterServiceFallsBackToSample(t *testing.T) {
	cases := map[string]*fakeRosterSource{
		"fetch error":    {err: errors.New("connection refused")},
		"missing column": {body: []byte("NAME,BIRTH\nAna,01/02/1990\n")},
		"header only":    {body: []byte("NOME,DATA\n")},
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			metrics := NewMetricsService()
			svc := NewRosterService(RosterServiceParams{Source: src, Metrics: metrics, Location: saoPaulo})
			svc.now = testNow

			snapshot := svc.Reload(context.Background())
			require.True(t, snapshot.Sample)
			require.True(t, roster.IsSample(snapshot.Records))
			assert.Equal(t, "2026-10-16", snapshot.Records[0].BirthDate)
			assert.NotEmpty(t, snapshot.FallbackReason)
			assert.EqualValues(t, 1, metrics.Snapshot().RosterFallbacks)
		})
	}
}

func TestRosterServiceCurrentLoadsOnce(t *testing.T) {
	src := &fakeRosterSource{body: []byte(testRosterCSV)}
	svc := NewRosterService(RosterServiceParams{Source: src, Location: saoPaulo})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Current(context.Background())
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, src.calls)

	svc.Reload(context.Background())
	assert.Equal(t, 2, src.calls)
}

func TestRosterServiceFindByIDs(t *testing.T) {
	svc := newTestRoster(t, testRosterCSV)

	got := svc.FindByIDs(context.Background(), []string{"sheet-3", "unknown", "sheet-1", "sheet-3"})
	assert.Equal(t, []string{"sheet-3", "sheet-1"}, ids(got))

	p, err := svc.FindByID(context.Background(), "sheet-2")
	require.NoError(t, err)
	assert.Equal(t, "Bia Lima", p.Name)

	_, err = svc.FindByID(context.Background(), "sheet-99")
	assert.Error(t, err)
}

func TestRosterServiceUnitsAndRecordsCopy(t *testing.T) {
	svc := newTestRoster(t, testRosterCSV)

	assert.Equal(t, []string{"1ª Cia Op", "2ª Cia Op"}, svc.Units(context.Background()))

	records := svc.Records(context.Background())
	records[0].Name = "changed"
	assert.Equal(t, "Ana Souza", svc.Current(context.Background()).Records[0].Name)
}
