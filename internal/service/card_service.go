package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/bm-aniversariantes-api/internal/dto"
	"github.com/noah-isme/bm-aniversariantes-api/internal/models"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/card"
	appErrors "github.com/noah-isme/bm-aniversariantes-api/pkg/errors"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/export"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/storage"
)

type cardRenderer interface {
	JPEG(content models.CardContent) ([]byte, error)
}

type personnelFinder interface {
	rosterReader
	FindByID(ctx context.Context, id string) (models.Personnel, error)
}

// FileDownload is a generated file ready to be streamed.
type FileDownload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CardServiceConfig tunes exported card storage.
type CardServiceConfig struct {
	APIPrefix       string
	CleanupInterval time.Duration
}

// CardService composes, renders and stores birthday cards.
type CardService struct {
	roster    personnelFinder
	renderer  cardRenderer
	signature card.Signature
	store     storage.Store
	signer    *storage.SignedURLSigner
	validator *validator.Validate
	location  *time.Location
	logger    *zap.Logger
	now       func() time.Time
	cfg       CardServiceConfig
}

// CardServiceParams groups constructor dependencies.
type CardServiceParams struct {
	Roster    personnelFinder
	Renderer  cardRenderer
	Signature card.Signature
	Store     storage.Store
	Signer    *storage.SignedURLSigner
	Validator *validator.Validate
	Location  *time.Location
	Logger    *zap.Logger
	Config    CardServiceConfig
}

// NewCardService constructs a CardService.
func NewCardService(params CardServiceParams) *CardService {
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
	cfg := params.Config
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &CardService{
		roster:    params.Roster,
		renderer:  params.Renderer,
		signature: params.Signature,
		store:     params.Store,
		signer:    params.Signer,
		validator: v,
		location:  loc,
		logger:    logger,
		now:       time.Now,
		cfg:       cfg,
	}
}

// Signature returns the signer block printed on every card.
func (s *CardService) Signature() card.Signature {
	return s.signature
}

// IndividualContent words the card addressed to one person, dated today.
func (s *CardService) IndividualContent(p models.Personnel) models.CardContent {
	return card.ComposeIndividual(p, s.signature, s.today())
}

// RenderIndividual rasterizes the individual card of p as JPEG.
func (s *CardService) RenderIndividual(p models.Personnel) ([]byte, error) {
	jpegBytes, err := s.renderer.JPEG(s.IndividualContent(p))
	if err != nil {
		return nil, fmt.Errorf("render card for %s: %w", p.ID, err)
	}
	return jpegBytes, nil
}

// Personnel renders the individual card of one roster record.
func (s *CardService) Personnel(ctx context.Context, id, format string) (*FileDownload, error) {
	f, err := ParseCardFormat(format)
	if err != nil {
		return nil, err
	}
	p, err := s.roster.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	jpegBytes, err := s.RenderIndividual(p)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render card")
	}
	data, err := s.encode(jpegBytes, f, fullTitle(p))
	if err != nil {
		return nil, err
	}
	return &FileDownload{
		Filename:    card.IndividualFilename(p, string(f)),
		ContentType: f.ContentType(),
		Data:        data,
	}, nil
}

// Export renders the collective card of a week or month, stores it and returns
// a signed download URL.
func (s *CardService) Export(ctx context.Context, req dto.CardExportRequest) (*models.CardExport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	f, err := ParseCardFormat(string(req.Format))
	if err != nil {
		return nil, err
	}
	ref := s.today()
	if req.Date != "" {
		if ref, err = time.ParseInLocation(isoDateLayout, req.Date, s.location); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date must use the YYYY-MM-DD format")
		}
	}

	records := s.roster.Current(ctx).Records
	criteria := models.FilterCriteria{Search: req.Search, Units: req.Units}
	var (
		people   []models.Personnel
		filename string
	)
	switch req.Scope {
	case models.CardScopeWeek:
		people = ApplyCriteria(ByWeek(records, ref), criteria)
		filename = card.WeekFilename(ref, string(f))
	default:
		monthIndex := int(ref.Month()) - 1
		if req.Month != nil {
			monthIndex = *req.Month
		}
		people = ApplyCriteria(ByMonth(records, monthIndex), criteria)
		filename = card.MonthFilename(time.Month(monthIndex+1), string(f))
	}
	if len(people) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no birthdays in the selected period")
	}

	content := card.ComposeCollective(people, s.signature, s.today())
	jpegBytes, err := s.renderer.JPEG(content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render card")
	}
	data, err := s.encode(jpegBytes, f, strings.TrimSuffix(filename, "."+string(f)))
	if err != nil {
		return nil, err
	}

	key := path.Join("cards", uuid.NewString(), filename)
	if err := s.store.Save(ctx, key, f.ContentType(), data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store card")
	}
	token, expiresAt, err := s.signer.Generate(key, filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign card download")
	}
	s.logger.Info("card exported",
		zap.String("scope", string(req.Scope)),
		zap.String("key", key),
		zap.Int("count", len(people)))

	return &models.CardExport{
		Filename:    filename,
		Format:      f,
		Count:       len(people),
		DownloadURL: fmt.Sprintf("%s/cards/download/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		ExpiresAt:   expiresAt,
	}, nil
}

// ResolveDownload validates a download token and loads the stored card.
func (s *CardService) ResolveDownload(ctx context.Context, token string) (*FileDownload, error) {
	key, filename, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	rc, err := s.store.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "card no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open card")
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read card")
	}
	f := models.CardFormatJPEG
	if strings.HasSuffix(filename, "."+string(models.CardFormatPDF)) {
		f = models.CardFormatPDF
	}
	return &FileDownload{Filename: filename, ContentType: f.ContentType(), Data: data}, nil
}

// StartCleanup periodically deletes stored cards older than the download TTL.
func (s *CardService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *CardService) cleanupExpired(ctx context.Context) {
	removed, err := s.store.CleanupOlderThan(ctx, s.signer.TTL())
	if err != nil {
		s.logger.Sugar().Warnw("card cleanup failed", "error", err)
		return
	}
	if len(removed) > 0 {
		s.logger.Sugar().Infow("expired cards removed", "count", len(removed))
	}
}

func (s *CardService) encode(jpegBytes []byte, f models.CardFormat, title string) ([]byte, error) {
	if f != models.CardFormatPDF {
		return jpegBytes, nil
	}
	pdf, err := export.CardPDF(jpegBytes, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build card pdf")
	}
	return pdf, nil
}

func (s *CardService) today() time.Time {
	y, m, d := s.now().In(s.location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.location)
}

// ParseCardFormat accepts jpg, jpeg or pdf; blank means jpg.
func ParseCardFormat(raw string) (models.CardFormat, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "jpg", "jpeg":
		return models.CardFormatJPEG, nil
	case "pdf":
		return models.CardFormatPDF, nil
	default:
		return "", appErrors.ErrUnsupportedCardFormat
	}
}

func fullTitle(p models.Personnel) string {
	return strings.TrimSpace(p.Rank + " " + p.Name)
}
