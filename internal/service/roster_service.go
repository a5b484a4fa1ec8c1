package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/bm-aniversariantes-api/internal/dto"
	"github.com/noah-isme/bm-aniversariantes-api/internal/models"
	appErrors "github.com/noah-isme/bm-aniversariantes-api/pkg/errors"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/roster"
)

// RosterSource yields the raw bytes of the roster spreadsheet export.
type RosterSource interface {
	Fetch(ctx context.Context) ([]byte, error)
	Name() string
}

type rosterParser interface {
	Parse(text string) ([]models.Personnel, error)
}

// RosterSnapshot is an immutable, fully loaded roster.
type RosterSnapshot struct {
	Records        []models.Personnel
	// Sample is derived from the shape of Records, see roster.IsSample.
	Sample         bool
	Source         string
	Encoding       string
	Version        string
	LoadedAt       time.Time
	FallbackReason string
}

// Status projects the snapshot metadata.
func (s *RosterSnapshot) Status() dto.RosterStatus {
	return dto.RosterStatus{
		Source:         s.Source,
		Sample:         s.Sample,
		Records:        len(s.Records),
		Encoding:       s.Encoding,
		Version:        s.Version,
		LoadedAt:       s.LoadedAt,
		FallbackReason: s.FallbackReason,
	}
}

// RosterService owns the current roster snapshot. Reads are concurrent, reloads
// are serialized, and a failed ingestion always degrades to the sample roster.
type RosterService struct {
	source   RosterSource
	parser   rosterParser
	metrics  *MetricsService
	logger   *zap.Logger
	location *time.Location
	now      func() time.Time

	reloadMu sync.Mutex
	mu       sync.RWMutex
	current  *RosterSnapshot
}

// RosterServiceParams groups constructor dependencies.
type RosterServiceParams struct {
	Source   RosterSource
	Parser   rosterParser
	Metrics  *MetricsService
	Logger   *zap.Logger
	Location *time.Location
}

// NewRosterService constructs the service. Nothing is fetched until the first read or Reload.
func NewRosterService(params RosterServiceParams) *RosterService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := params.Location
	if loc == nil {
		loc = time.Local
	}
	parser := params.Parser
	if parser == nil {
		parser = roster.NewParser(roster.DefaultColumnMapping())
	}
	return &RosterService{
		source:   params.Source,
		parser:   parser,
		metrics:  params.Metrics,
		logger:   logger,
		location: loc,
		now:      time.Now,
	}
}

// Reload fetches and parses the roster, replacing the snapshot. It never fails:
// any ingestion problem installs the sample roster and is reported in the snapshot.
func (s *RosterService) Reload(ctx context.Context) *RosterSnapshot {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	return s.load(ctx)
}

// load must be called with reloadMu held.
func (s *RosterService) load(ctx context.Context) *RosterSnapshot {
	snapshot := s.ingest(ctx)
	snapshot.Sample = roster.IsSample(snapshot.Records)
	s.mu.Lock()
	s.current = snapshot
	s.mu.Unlock()

	outcome := OutcomeSource
	if snapshot.Sample {
		outcome = OutcomeSample
	}
	s.metrics.RecordRosterLoad(outcome, len(snapshot.Records))
	return snapshot
}

func (s *RosterService) ingest(ctx context.Context) *RosterSnapshot {
	now := s.now().In(s.location)
	snapshot := &RosterSnapshot{
		Version:  uuid.NewString(),
		LoadedAt: now.UTC(),
	}

	if s.source == nil {
		return s.fallback(snapshot, now, errors.New("no roster source configured"))
	}
	snapshot.Source = s.source.Name()

	raw, err := s.source.Fetch(ctx)
	if err != nil {
		return s.fallback(snapshot, now, err)
	}
	text, encoding, err := roster.Decode(raw)
	if err != nil {
		return s.fallback(snapshot, now, err)
	}
	snapshot.Encoding = encoding

	records, err := s.parser.Parse(text)
	if err != nil {
		return s.fallback(snapshot, now, err)
	}
	if len(records) == 0 {
		return s.fallback(snapshot, now, errors.New("roster loaded but no valid rows found"))
	}

	snapshot.Records = records
	s.logger.Info("roster loaded",
		zap.String("source", snapshot.Source),
		zap.String("encoding", encoding),
		zap.Int("records", len(records)),
		zap.String("version", snapshot.Version))
	return snapshot
}

func (s *RosterService) fallback(snapshot *RosterSnapshot, now time.Time, cause error) *RosterSnapshot {
	snapshot.Records = roster.SampleRoster(now)
	snapshot.FallbackReason = cause.Error()
	s.logger.Warn("roster unavailable, serving sample data",
		zap.String("source", snapshot.Source),
		zap.Error(cause))
	return snapshot
}

// Current returns the snapshot, loading it on first use.
func (s *RosterService) Current(ctx context.Context) *RosterSnapshot {
	if snapshot := s.loaded(); snapshot != nil {
		return snapshot
	}
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	if snapshot := s.loaded(); snapshot != nil {
		return snapshot
	}
	return s.load(ctx)
}

func (s *RosterService) loaded() *RosterSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Records returns a copy of the current roster.
func (s *RosterService) Records(ctx context.Context) []models.Personnel {
	return append([]models.Personnel(nil), s.Current(ctx).Records...)
}

// Units lists the distinct non-blank units, sorted.
func (s *RosterService) Units(ctx context.Context) []string {
	return UniqueUnits(s.Current(ctx).Records)
}

// FindByID returns one record.
func (s *RosterService) FindByID(ctx context.Context, id string) (models.Personnel, error) {
	for _, p := range s.Current(ctx).Records {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Personnel{}, appErrors.Clone(appErrors.ErrNotFound, "personnel not found")
}

// FindByIDs resolves ids in request order. Duplicates collapse to their first
// occurrence and unknown ids are dropped.
func (s *RosterService) FindByIDs(ctx context.Context, ids []string) []models.Personnel {
	records := s.Current(ctx).Records
	index := make(map[string]models.Personnel, len(records))
	for _, p := range records {
		if _, exists := index[p.ID]; !exists {
			index[p.ID] = p
		}
	}

	seen := make(map[string]struct{}, len(ids))
	out := make([]models.Personnel, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := index[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Location is the timezone used for "today".
func (s *RosterService) Location() *time.Location {
	return s.location
}
