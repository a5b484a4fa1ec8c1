package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/bm-aniversariantes-api/internal/dto"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/card"
	appErrors "github.com/noah-isme/bm-aniversariantes-api/pkg/errors"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/export"
)

type tableRenderer interface {
	Render(table export.Table) ([]byte, error)
}

type rosterLister interface {
	Roster(ctx context.Context, query dto.BirthdayQuery) (dto.BirthdayList, error)
}

var rosterColumns = []export.Column{
	{Key: "rank", Label: "Posto/Graduação", Width: 1.2},
	{Key: "name", Label: "Nome", Width: 2.6},
	{Key: "unit", Label: "Lotação", Width: 1.6},
	{Key: "birthday", Label: "Aniversário", Width: 1},
	{Key: "bm", Label: "Nº BM", Width: 1},
}

// ExportService renders the roster listing as CSV or PDF.
type ExportService struct {
	roster rosterLister
	csv    tableRenderer
	pdf    tableRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(roster rosterLister, csv, pdf tableRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter(true)
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{roster: roster, csv: csv, pdf: pdf, logger: logger}
}

// Roster exports the roster screen listing with the same month and filters.
func (s *ExportService) Roster(ctx context.Context, query dto.RosterExportQuery) (*FileDownload, error) {
	format := strings.ToLower(strings.TrimSpace(query.Format))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	list, err := s.roster.Roster(ctx, query.BirthdayQuery)
	if err != nil {
		return nil, err
	}

	title := "Efetivo"
	base := "efetivo"
	if list.Month != nil {
		month := card.MonthName(time.Month(*list.Month + 1))
		title = "Aniversariantes de " + month
		base = "aniversariantes_" + month
	}

	table := export.Table{Title: title, Columns: rosterColumns, Rows: make([]map[string]string, 0, len(list.Personnel))}
	for _, p := range list.Personnel {
		table.Rows = append(table.Rows, map[string]string{
			"rank":     p.Rank,
			"name":     p.Name,
			"unit":     p.Unit,
			"birthday": p.DayMonth(),
			"bm":       p.BMNumber,
		})
	}

	renderer, contentType := s.csv, "text/csv; charset=utf-8"
	if format == "pdf" {
		renderer, contentType = s.pdf, "application/pdf"
	}
	data, err := renderer.Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster export")
	}
	s.logger.Debug("roster exported", zap.String("format", format), zap.Int("rows", len(table.Rows)))
	return &FileDownload{Filename: base + "." + format, ContentType: contentType, Data: data}, nil
}
