package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// CardPDF wraps a rendered card JPEG into a single A4 page.
func CardPDF(jpegBytes []byte, title string) ([]byte, error) {
	if len(jpegBytes) == 0 {
		return nil, fmt.Errorf("card image is empty")
	}
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "JPG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("card", opts, bytes.NewReader(jpegBytes))
	width, height := pdf.GetPageSize()
	pdf.ImageOptions("card", 0, 0, width, height, false, opts, 0, "")

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("embed card image: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render card pdf: %w", err)
	}
	return buf.Bytes(), nil
}
