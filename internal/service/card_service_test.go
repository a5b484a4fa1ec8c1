package service

import (
	"bytes"
	"context"
	"image/jpeg"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bm-aniversariantes-api/internal/dto"
	"github.com/noah-isme/bm-aniversariantes-api/internal/models"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/card"
	appErrors "github.com/noah-isme/bm-aniversariantes-api/pkg/errors"
	"github.com/noah-isme/bm-aniversariantes-api/pkg/storage"
)

var testCardSignature = card.Signature{
	CommanderName: "João Pereira",
	CommanderRank: "Cap BM",
	UnitName:      "1ª Cia Operacional",
	City:          "Belo Horizonte",
	Corporation:   "CBMMG",
}

func newTestCardService(t *testing.T) (*CardService, *storage.LocalStorage) {
	t.Helper()
	renderer, err := card.NewRenderer(1, 60)
	require.NoError(t, err)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	svc := NewCardService(CardServiceParams{
		Roster:    newTestRoster(t, testRosterCSV),
		Renderer:  renderer,
		Signature: testCardSignature,
		Store:     store,
		Signer:    storage.NewSignedURLSigner("card-secret", time.Hour),
		Location:  saoPaulo,
	})
	svc.now = testNow
	return svc, store
}

func TestCardServicePersonnelJPEG(t *testing.T) {
	svc, _ := newTestCardService(t)

	file, err := svc.Personnel(context.Background(), "sheet-1", "")
	require.NoError(t, err)
	assert.Equal(t, "cartao_Ana_Souza.jpg", file.Filename)
	assert.Equal(t, "image/jpeg", file.ContentType)

	_, err = jpeg.Decode(bytes.NewReader(file.Data))
	require.NoError(t, err)
}

func TestCardServicePersonnelPDFAndErrors(t *testing.T) {
	svc, _ := newTestCardService(t)

	file, err := svc.Personnel(context.Background(), "sheet-2", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "cartao_Bia_Lima.pdf", file.Filename)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))

	_, err = svc.Personnel(context.Background(), "sheet-2", "png")
	assert.ErrorIs(t, err, appErrors.ErrUnsupportedCardFormat)

	_, err = svc.Personnel(context.Background(), "sheet-99", "jpg")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCardServiceIndividualContent(t *testing.T) {
	svc, _ := newTestCardService(t)

	content := svc.IndividualContent(models.Personnel{Name: "Ana Souza", Rank: "Sd BM"})
	assert.Equal(t, models.CardKindIndividual, content.Kind)
	assert.Equal(t, []string{"Sd BM Ana Souza"}, content.Honorees)
	assert.Contains(t, content.PlaceDate, "16 de outubro de 2026")
}

func TestCardServiceExportAndDownload(t *testing.T) {
	svc, _ := newTestCardService(t)

	export, err := svc.Export(context.Background(), dto.CardExportRequest{Scope: models.CardScopeWeek})
	require.NoError(t, err)
	assert.Equal(t, "aniversariantes_semana_16-10-2026.jpg", export.Filename)
	assert.Equal(t, 3, export.Count)
	require.True(t, strings.HasPrefix(export.DownloadURL, "/api/v1/cards/download/"))

	token := strings.TrimPrefix(export.DownloadURL, "/api/v1/cards/download/")
	file, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, export.Filename, file.Filename)
	assert.Equal(t, "image/jpeg", file.ContentType)
	assert.NotEmpty(t, file.Data)

	_, err = svc.ResolveDownload(context.Background(), token+"x")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestCardServiceExportMonthPDF(t *testing.T) {
	svc, _ := newTestCardService(t)

	export, err := svc.Export(context.Background(), dto.CardExportRequest{
		Scope:  models.CardScopeMonth,
		Month:  intPtr(2),
		Format: models.CardFormatPDF,
	})
	require.NoError(t, err)
	assert.Equal(t, "aniversariantes_mes_março.pdf", export.Filename)
	assert.Equal(t, 1, export.Count)

	token := strings.TrimPrefix(export.DownloadURL, "/api/v1/cards/download/")
	file, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
}

func TestCardServiceExportValidation(t *testing.T) {
	svc, _ := newTestCardService(t)

	_, err := svc.Export(context.Background(), dto.CardExportRequest{Scope: "year"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Export(context.Background(), dto.CardExportRequest{Scope: models.CardScopeMonth, Month: intPtr(2), Search: "nobody"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCardServiceDownloadOfRemovedCard(t *testing.T) {
	svc, store := newTestCardService(t)

	export, err := svc.Export(context.Background(), dto.CardExportRequest{Scope: models.CardScopeWeek})
	require.NoError(t, err)

	removed, err := store.CleanupOlderThan(context.Background(), -time.Minute)
	require.NoError(t, err)
	require.Len(t, removed, 1)

	token := strings.TrimPrefix(export.DownloadURL, "/api/v1/cards/download/")
	_, err = svc.ResolveDownload(context.Background(), token)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestParseCardFormat(t *testing.T) {
	cases := map[string]models.CardFormat{"": models.CardFormatJPEG, "JPEG": models.CardFormatJPEG, " pdf ": models.CardFormatPDF}
	for raw, want := range cases {
		got, err := ParseCardFormat(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCardFormat("gif")
	assert.ErrorIs(t, err, appErrors.ErrUnsupportedCardFormat)
}
