package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/bm-aniversariantes-api/internal/dto"
	"github.com/noah-isme/bm-aniversariantes-api/internal/models"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/card"
	appErrors "github.com/noah-isme/bm-aniversariantes-api/pkg/errors"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/jobs"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/notify"
)

// DispatchJobType labels notification runs on the job queue.
const DispatchJobType = "birthday-dispatch"

// DispatchPayload is the queued job body: the run as created and the
// recipients resolved when it was accepted.
type DispatchPayload struct {
	Run     models.DispatchRun
	Targets []models.Personnel
}

// DispatchRunStore persists notification runs.
type DispatchRunStore interface {
	Create(ctx context.Context, run *models.DispatchRun) error
	GetByID(ctx context.Context, id string) (*models.DispatchRun, error)
	Update(ctx context.Context, run *models.DispatchRun) error
	FindActive(ctx context.Context) (*models.DispatchRun, error)
	ListRecent(ctx context.Context, limit int) ([]models.DispatchRun, error)
	FinishStale(ctx context.Context, at time.Time) (int64, error)
}

type recipientResolver interface {
	rosterReader
	FindByIDs(ctx context.Context, ids []string) []models.Personnel
}

type dispatchQueue interface {
	Enqueue(job jobs.Job) error
}

// DispatchService accepts notification requests and tracks their runs.
type DispatchService struct {
	repo      DispatchRunStore
	roster    recipientResolver
	queue     dispatchQueue
	validator *validator.Validate
	location  *time.Location
	logger    *zap.Logger
	now       func() time.Time

	startMu sync.Mutex
}

// DispatchServiceParams groups constructor dependencies.
type DispatchServiceParams struct {
	Repo      DispatchRunStore
	Roster    recipientResolver
	Queue     dispatchQueue
	Validator *validator.Validate
	Location  *time.Location
	Logger    *zap.Logger
}

// NewDispatchService constructs a DispatchService.
func NewDispatchService(params DispatchServiceParams) *DispatchService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := params.Location
	if loc == nil {
		loc = time.Local
	}
	v := params.Validator
	if v == nil {
		v = validator.New()
	}
	return &DispatchService{
		repo:      params.Repo,
		roster:    params.Roster,
		queue:     params.Queue,
		validator: v,
		location:  loc,
		logger:    logger,
		now:       time.Now,
	}
}

// Start resolves the recipients, records a run and hands it to the worker.
// Only one run may be queued or processing at a time.
func (s *DispatchService) Start(ctx context.Context, req dto.DispatchRequest, createdBy string) (*dto.DispatchRunResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	var targets []models.Personnel
	if req.Today {
		y, m, d := s.now().In(s.location).Date()
		targets = ByExactDate(s.roster.Current(ctx).Records, time.Date(y, m, d, 0, 0, 0, 0, s.location))
	} else {
		targets = s.roster.FindByIDs(ctx, req.PersonnelIDs)
	}
	if len(targets) == 0 {
		return nil, appErrors.ErrNoRecipients
	}

	s.startMu.Lock()
	defer s.startMu.Unlock()

	active, err := s.repo.FindActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check running dispatch")
	}
	if active != nil {
		return nil, appErrors.Clone(appErrors.ErrDispatchInProgress, fmt.Sprintf("run %s is still %s", active.ID, strings.ToLower(string(active.Status))))
	}

	ids := make(models.StringList, 0, len(targets))
	for _, p := range targets {
		ids = append(ids, p.ID)
	}
	run := &models.DispatchRun{
		Status:    models.DispatchStatusQueued,
		Total:     len(targets),
		TargetIDs: ids,
		CreatedBy: createdBy,
	}
	if err := s.repo.Create(ctx, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create dispatch run")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: run.ID, Type: DispatchJobType, Payload: DispatchPayload{Run: *run, Targets: targets}}); err != nil {
		now := s.now().UTC()
		run.Status = models.DispatchStatusFinished
		run.Failed = run.Total
		run.FinishedAt = &now
		if updateErr := s.repo.Update(ctx, run); updateErr != nil {
			s.logger.Sugar().Warnw("failed to close unqueued dispatch run", "run_id", run.ID, "error", updateErr)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue dispatch run")
	}

	s.logger.Info("dispatch run queued",
		zap.String("run_id", run.ID),
		zap.Int("recipients", run.Total),
		zap.String("created_by", createdBy))
	resp := dto.NewDispatchRunResponse(run)
	return &resp, nil
}

// Get returns the progress or final report of a run.
func (s *DispatchService) Get(ctx context.Context, id string) (*dto.DispatchRunResponse, error) {
	run, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "dispatch run not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dispatch run")
	}
	resp := dto.NewDispatchRunResponse(run)
	return &resp, nil
}

// List returns the most recent runs without their per-recipient results.
func (s *DispatchService) List(ctx context.Context, limit int) ([]dto.DispatchRunResponse, error) {
	runs, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list dispatch runs")
	}
	out := make([]dto.DispatchRunResponse, 0, len(runs))
	for i := range runs {
		resp := dto.NewDispatchRunResponse(&runs[i])
		resp.Results = nil
		out = append(out, resp)
	}
	return out, nil
}

// RecoverStale closes runs a previous process left queued or processing.
// Their loops died with the process and are not resumed.
func (s *DispatchService) RecoverStale(ctx context.Context) {
	n, err := s.repo.FinishStale(ctx, s.now())
	if err != nil {
		s.logger.Sugar().Warnw("failed to close stale dispatch runs", "error", err)
		return
	}
	if n > 0 {
		s.logger.Sugar().Infow("closed stale dispatch runs", "count", n)
	}
}

type cardImager interface {
	RenderIndividual(p models.Personnel) ([]byte, error)
}

// DispatchWorkerConfig tunes the notification loop.
type DispatchWorkerConfig struct {
	EmailDomain string
	ItemDelay   time.Duration
}

// DispatchWorker runs the notification loop of one queued run: strictly one
// recipient at a time, in list order, with no retries.
type DispatchWorker struct {
	repo     DispatchRunStore
	roster   recipientResolver
	cards    cardImager
	notifier notify.Sender
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      DispatchWorkerConfig
	now      func() time.Time
	sleep    func(time.Duration)
}

// DispatchWorkerParams groups constructor dependencies.
type DispatchWorkerParams struct {
	Repo     DispatchRunStore
	Roster   recipientResolver
	Cards    cardImager
	Notifier notify.Sender
	Metrics  *MetricsService
	Logger   *zap.Logger
	Config   DispatchWorkerConfig
}

// NewDispatchWorker constructs a worker.
func NewDispatchWorker(params DispatchWorkerParams) *DispatchWorker {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := params.Config
	if cfg.EmailDomain == "" {
		cfg.EmailDomain = "bombeiros.mg.gov.br"
	}
	if cfg.ItemDelay < 0 {
		cfg.ItemDelay = 0
	}
	return &DispatchWorker{
		repo:     params.Repo,
		roster:   params.Roster,
		cards:    params.Cards,
		notifier: params.Notifier,
		metrics:  params.Metrics,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Handle processes a queued run to completion. Shutdown does not interrupt a
// started loop and per-recipient failures never fail the job. Whatever way
// Handle returns, the run is left FINISHED so the dispatcher is free again.
func (w *DispatchWorker) Handle(ctx context.Context, job jobs.Job) (err error) {
	ctx = context.WithoutCancel(ctx)
	payload, _ := job.Payload.(DispatchPayload)
	log := w.logger.With(zap.String("run_id", job.ID))

	run, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		if payload.Run.ID != job.ID {
			return err
		}
		log.Warn("dispatch run lookup failed, using queued copy", zap.Error(err))
		queued := payload.Run
		run, err = &queued, nil
	}
	if run.Status == models.DispatchStatusFinished {
		return nil
	}

	started := w.now().UTC()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch run %s panicked: %v", run.ID, r)
		}
		if run.Status != models.DispatchStatusFinished {
			w.abort(ctx, run, started, err)
		}
	}()

	targets := payload.Targets
	if targets == nil {
		targets = w.roster.FindByIDs(ctx, run.TargetIDs)
	}

	run.Status = models.DispatchStatusProcessing
	run.StartedAt = &started
	run.Total = len(targets)
	w.save(ctx, run)

	log.Info("dispatch run started", zap.Int("recipients", len(targets)))

	for i, p := range targets {
		if w.cfg.ItemDelay > 0 {
			w.sleep(w.cfg.ItemDelay)
		}
		result := w.deliver(ctx, p)
		if result.Delivered {
			run.Succeeded++
		} else {
			run.Failed++
			log.Warn("birthday e-mail failed",
				zap.String("personnel_id", p.ID),
				zap.String("to", result.Email),
				zap.String("error", result.Error))
		}
		w.metrics.RecordNotification(result.Delivered)
		run.Results = append(run.Results, result)
		run.Current = i + 1
		w.save(ctx, run)
	}

	finished := w.now().UTC()
	run.Status = models.DispatchStatusFinished
	run.FinishedAt = &finished
	w.save(ctx, run)
	w.metrics.ObserveDispatchRun(finished.Sub(started))

	log.Info("dispatch run finished",
		zap.Int("success", run.Succeeded),
		zap.Int("failed", run.Failed),
		zap.Duration("elapsed", finished.Sub(started)))
	return nil
}

// abort closes a run whose loop stopped early. Recipients it never reached
// are counted as failed.
func (w *DispatchWorker) abort(ctx context.Context, run *models.DispatchRun, started time.Time, cause error) {
	finished := w.now().UTC()
	if remaining := run.Total - run.Current; remaining > 0 {
		run.Failed += remaining
	}
	run.Status = models.DispatchStatusFinished
	run.FinishedAt = &finished
	w.save(ctx, run)
	w.metrics.ObserveDispatchRun(finished.Sub(started))
	w.logger.Error("dispatch run aborted",
		zap.String("run_id", run.ID),
		zap.Int("success", run.Succeeded),
		zap.Int("failed", run.Failed),
		zap.Error(cause))
}

// deliver sends one birthday e-mail. A panic while composing or sending
// becomes the recipient's error and the loop moves on.
func (w *DispatchWorker) deliver(ctx context.Context, p models.Personnel) (result models.DispatchResult) {
	result = models.DispatchResult{
		PersonnelID: p.ID,
		Name:        p.Name,
		Email:       RecipientEmail(p, w.cfg.EmailDomain),
	}
	defer func() {
		if r := recover(); r != nil {
			result.Delivered = false
			result.Error = fmt.Sprintf("panic: %v", r)
			result.At = w.now().UTC()
		}
	}()

	image, err := w.cards.RenderIndividual(p)
	if err != nil {
		result.Error = err.Error()
		result.At = w.now().UTC()
		return result
	}
	body, err := EmailBody(p)
	if err != nil {
		result.Error = err.Error()
		result.At = w.now().UTC()
		return result
	}
	msg := notify.Message{
		To:      result.Email,
		Subject: EmailSubject(p),
		Body:    body,
		Image:   card.DataURI(image),
	}
	if err := w.notifier.Send(ctx, msg); err != nil {
		result.Error = err.Error()
		result.At = w.now().UTC()
		return result
	}
	result.Delivered = true
	result.At = w.now().UTC()
	return result
}

func (w *DispatchWorker) save(ctx context.Context, run *models.DispatchRun) {
	if err := w.repo.Update(ctx, run); err != nil {
		w.logger.Sugar().Warnw("failed to persist dispatch progress", "run_id", run.ID, "error", err)
	}
}

// RecipientEmail derives the institutional address from the registration number.
func RecipientEmail(p models.Personnel, domain string) string {
	return p.BMDigits() + "@" + domain
}

// EmailSubject is the subject line of a birthday e-mail.
func EmailSubject(p models.Personnel) string {
	return fmt.Sprintf("Feliz Aniversário - %s %s", p.Rank, p.Name)
}

var emailTemplate = template.Must(template.New("email").Parse(
	`<div style="font-family: Arial, sans-serif; color: #333;">` +
		`<p>Prezado(a) {{.Rank}} {{.Name}},</p>` +
		`<p>O Comando da 1ª Cia Operacional parabeniza-o(a) pelo seu aniversário.</p>` +
		`<br>` +
		`<img src="cid:birthdayCard" alt="Cartão de Aniversário" style="width: 100%; max-width: 600px; height: auto; border: 1px solid #ddd;">` +
		`<br><br>` +
		`<p>Atenciosamente,</p>` +
		`<p><strong>Comando da 1ª Cia Op - CBMMG</strong></p>` +
		`</div>`))

// EmailBody renders the HTML body; the card travels as the inline image cid:birthdayCard.
func EmailBody(p models.Personnel) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("render e-mail body: %w", err)
	}
	return buf.String(), nil
}
