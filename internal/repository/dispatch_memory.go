package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/bm-aniversariantes-api/internal/models"
)

// MemoryDispatchRepository keeps notification runs in process memory.
type MemoryDispatchRepository struct {
	mu   sync.RWMutex
	runs map[string]models.DispatchRun
}

// NewMemoryDispatchRepository constructs an empty in-memory run log.
func NewMemoryDispatchRepository() *MemoryDispatchRepository {
	return &MemoryDispatchRepository{runs: make(map[string]models.DispatchRun)}
}

// Create stores a copy of run.
func (r *MemoryDispatchRepository) Create(_ context.Context, run *models.DispatchRun) error {
	prepareRun(run)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.runs[run.ID]; exists {
		return fmt.Errorf("create dispatch run: duplicate id %s", run.ID)
	}
	r.runs[run.ID] = cloneRun(*run)
	return nil
}

// GetByID returns a copy of the stored run.
func (r *MemoryDispatchRepository) GetByID(_ context.Context, id string) (*models.DispatchRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("get dispatch run: %w", sql.ErrNoRows)
	}
	out := cloneRun(run)
	return &out, nil
}

// Update replaces the mutable fields of a stored run.
func (r *MemoryDispatchRepository) Update(_ context.Context, run *models.DispatchRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.runs[run.ID]
	if !ok {
		return fmt.Errorf("update dispatch run %s: %w", run.ID, sql.ErrNoRows)
	}
	stored.Status = run.Status
	stored.Current = run.Current
	stored.Succeeded = run.Succeeded
	stored.Failed = run.Failed
	stored.Results = append(models.DispatchResults(nil), run.Results...)
	stored.StartedAt = run.StartedAt
	stored.FinishedAt = run.FinishedAt
	r.runs[run.ID] = stored
	return nil
}

// FindActive returns the newest queued or processing run.
func (r *MemoryDispatchRepository) FindActive(_ context.Context) (*models.DispatchRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var active *models.DispatchRun
	for _, run := range r.runs {
		if !run.Status.Active() {
			continue
		}
		if active == nil || run.CreatedAt.After(active.CreatedAt) {
			c := cloneRun(run)
			active = &c
		}
	}
	return active, nil
}

// ListRecent returns up to limit runs, newest first.
func (r *MemoryDispatchRepository) ListRecent(_ context.Context, limit int) ([]models.DispatchRun, error) {
	if limit <= 0 {
		limit = 20
	}
	r.mu.RLock()
	runs := make([]models.DispatchRun, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, cloneRun(run))
	}
	r.mu.RUnlock()

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// FinishStale closes every active run.
func (r *MemoryDispatchRepository) FinishStale(_ context.Context, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, run := range r.runs {
		if !run.Status.Active() {
			continue
		}
		finished := at.UTC()
		run.Status = models.DispatchStatusFinished
		run.FinishedAt = &finished
		r.runs[id] = run
		n++
	}
	return n, nil
}

func cloneRun(run models.DispatchRun) models.DispatchRun {
	run.TargetIDs = append(models.StringList(nil), run.TargetIDs...)
	run.Results = append(models.DispatchResults(nil), run.Results...)
	if run.StartedAt != nil {
		t := *run.StartedAt
		run.StartedAt = &t
	}
	if run.FinishedAt != nil {
		t := *run.FinishedAt
		run.FinishedAt = &t
	}
	return run
}
