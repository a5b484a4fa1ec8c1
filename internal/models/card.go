package models

import "time"

// CardKind distinguishes a card addressed to one person from a group card.
type CardKind string

const (
	CardKindIndividual CardKind = "individual"
	CardKindCollective CardKind = "collective"
)

// CardFormat enumerates downloadable card encodings.
type CardFormat string

const (
	CardFormatJPEG CardFormat = "jpg"
	CardFormatPDF  CardFormat = "pdf"
)

// ContentType returns the MIME type served for the format.
func (f CardFormat) ContentType() string {
	if f == CardFormatPDF {
		return "application/pdf"
	}
	return "image/jpeg"
}

// CardScope selects which people a collective card export covers.
type CardScope string

const (
	CardScopeWeek  CardScope = "week"
	CardScopeMonth CardScope = "month"
)

// CardContent is the fully worded card, independent of how it is drawn.
type CardContent struct {
	Kind        CardKind `json:"kind"`
	Title       []string `json:"title"`
	Greeting    string   `json:"greeting"`
	Honorees    []string `json:"honorees,omitempty"`
	Paragraphs  []string `json:"paragraphs"`
	Closing     string   `json:"closing"`
	PlaceDate   string   `json:"placeDate"`
	SignerName  string   `json:"signerName"`
	SignerTitle string   `json:"signerTitle"`
}

// CardExport describes a stored card reachable through a signed download URL.
type CardExport struct {
	Filename    string     `json:"filename"`
	Format      CardFormat `json:"format"`
	Count       int        `json:"count"`
	DownloadURL string     `json:"downloadUrl"`
	ExpiresAt   time.Time  `json:"expiresAt"`
}
