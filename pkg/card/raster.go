package card

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/noah-isme/bm-aniversariantes-api/internal/models"
)

// Card page size in points: A4 at 72 DPI.
const (
	PageWidth  = 595
	PageHeight = 842
)

var (
	background = color.RGBA{R: 0xF4, G: 0xF1, B: 0xEA, A: 0xFF}
	orange     = color.RGBA{R: 0xE6, G: 0x51, B: 0x00, A: 0xFF}
	orangeSoft = color.RGBA{R: 0xEB, G: 0x8A, B: 0x4F, A: 0xFF}
	gray900    = color.RGBA{R: 0x11, G: 0x18, B: 0x27, A: 0xFF}
	gray700    = color.RGBA{R: 0x37, G: 0x41, B: 0x51, A: 0xFF}
	gray500    = color.RGBA{R: 0x6B, G: 0x72, B: 0x80, A: 0xFF}
	gray400    = color.RGBA{R: 0x9C, G: 0xA3, B: 0xAF, A: 0xFF}
)

// Renderer rasterizes card content with the Go font family.
type Renderer struct {
	regular *opentype.Font
	bold    *opentype.Font
	italic  *opentype.Font
	scale   int
	quality int
}

// NewRenderer parses the embedded fonts. scale multiplies the A4 page size
// (2 gives 1190x1684 pixels) and quality is the JPEG quality from 1 to 100.
func NewRenderer(scale, quality int) (*Renderer, error) {
	if scale <= 0 {
		scale = 2
	}
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	italic, err := opentype.Parse(goitalic.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse italic font: %w", err)
	}
	return &Renderer{regular: regular, bold: bold, italic: italic, scale: scale, quality: quality}, nil
}

// Bounds returns the pixel size of rendered cards.
func (r *Renderer) Bounds() image.Rectangle {
	return image.Rect(0, 0, PageWidth*r.scale, PageHeight*r.scale)
}

// JPEG renders content and encodes it as JPEG.
func (r *Renderer) JPEG(content models.CardContent) ([]byte, error) {
	img, err := r.Render(content)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.quality}); err != nil {
		return nil, fmt.Errorf("encode card jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI wraps JPEG bytes in a data URI.
func DataURI(jpegBytes []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegBytes)
}

type sizes struct {
	greeting float64
	name     float64
	message  float64
	footer   float64
	small    float64
}

func sizesFor(content models.CardContent) sizes {
	if content.Kind != models.CardKindCollective {
		return sizes{greeting: 22, name: 22, message: 15, footer: 17, small: 12}
	}
	switch n := len(content.Honorees); {
	case n > 12:
		return sizes{greeting: 13, name: 9, message: 9, footer: 13, small: 9}
	case n > 8:
		return sizes{greeting: 15, name: 11, message: 11, footer: 13, small: 9}
	case n > 5:
		return sizes{greeting: 17, name: 13, message: 13, footer: 17, small: 12}
	default:
		return sizes{greeting: 17, name: 15, message: 15, footer: 17, small: 12}
	}
}

type canvas struct {
	img   *image.RGBA
	scale int
	faces []font.Face
}

// Render draws content onto a new RGBA image.
func (r *Renderer) Render(content models.CardContent) (*image.RGBA, error) {
	c := &canvas{img: image.NewRGBA(r.Bounds()), scale: r.scale}
	defer c.close()

	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	c.corner(230, orangeSoft)
	c.corner(160, orange)

	sz := sizesFor(content)
	titleFace, err := c.face(r.bold, 64)
	if err != nil {
		return nil, err
	}
	subtitleFace, err := c.face(r.bold, 22)
	if err != nil {
		return nil, err
	}
	greetingFace, err := c.face(r.regular, sz.greeting)
	if err != nil {
		return nil, err
	}
	greetingBold, err := c.face(r.bold, sz.greeting)
	if err != nil {
		return nil, err
	}
	nameFace, err := c.face(r.bold, sz.name)
	if err != nil {
		return nil, err
	}
	messageFace, err := c.face(r.regular, sz.message)
	if err != nil {
		return nil, err
	}
	footerFace, err := c.face(r.bold, sz.footer)
	if err != nil {
		return nil, err
	}
	smallItalic, err := c.face(r.italic, sz.small)
	if err != nil {
		return nil, err
	}
	smallFace, err := c.face(r.regular, sz.small)
	if err != nil {
		return nil, err
	}
	signerFace, err := c.face(r.bold, sz.small+4)
	if err != nil {
		return nil, err
	}

	margin := c.px(48)
	textLeft := c.px(64)
	textWidth := c.px(PageWidth) - textLeft - c.px(56)

	y := c.px(40)
	if len(content.Title) > 0 {
		y += lineHeight(titleFace)
		c.text(titleFace, orange, margin, y, content.Title[0])
	}
	if len(content.Title) > 1 {
		y += lineHeight(subtitleFace)
		c.text(subtitleFace, gray500, margin+c.px(4), y, content.Title[1])
	}

	y += c.px(28)
	blockTop := y
	if content.Kind == models.CardKindCollective {
		y = c.paragraph(greetingBold, gray900, textLeft, y, textWidth, content.Greeting)
		y += c.px(6)
		for _, h := range content.Honorees {
			y = c.paragraph(nameFace, gray700, textLeft, y, textWidth, h)
		}
	} else {
		y = c.paragraph(greetingFace, gray700, textLeft, y, textWidth, content.Greeting)
		y += c.px(6)
		for _, h := range content.Honorees {
			y = c.paragraph(greetingBold, gray900, textLeft, y, textWidth, h)
		}
	}
	y += c.px(8)
	draw.Draw(c.img, image.Rect(margin, blockTop, margin+c.px(6), y), image.NewUniform(orange), image.Point{}, draw.Src)

	y += c.px(18)
	for _, p := range content.Paragraphs {
		y = c.paragraph(messageFace, gray700, textLeft, y, textWidth, p)
		y += c.px(10)
	}

	footerTop := c.px(PageHeight - 200)
	if y > footerTop {
		footerTop = y
	}
	fy := footerTop
	for _, line := range wrap(footerFace, content.Closing, c.px(PageWidth)-2*textLeft) {
		fy += lineHeight(footerFace)
		c.centered(footerFace, orange, fy, line)
	}
	fy += c.px(12) + lineHeight(smallItalic)
	c.centered(smallItalic, gray500, fy, content.PlaceDate)

	fy += c.px(34)
	lineHalf := c.px(150)
	mid := c.px(PageWidth) / 2
	draw.Draw(c.img, image.Rect(mid-lineHalf, fy, mid+lineHalf, fy+c.px(1)), image.NewUniform(gray400), image.Point{}, draw.Src)
	fy += lineHeight(signerFace)
	c.centered(signerFace, gray900, fy, content.SignerName)
	fy += lineHeight(smallFace)
	c.centered(smallFace, gray500, fy, content.SignerTitle)

	return c.img, nil
}

func (c *canvas) px(v float64) int {
	return int(v * float64(c.scale))
}

func (c *canvas) face(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: float64(72 * c.scale), Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	c.faces = append(c.faces, face)
	return face, nil
}

func (c *canvas) close() {
	for _, f := range c.faces {
		_ = f.Close()
	}
}

// corner fills the bottom-right triangle cut by a 45 degree diagonal reach points from the corner.
func (c *canvas) corner(reach float64, col color.RGBA) {
	b := c.img.Bounds()
	r := c.px(reach)
	for y := b.Max.Y - r; y < b.Max.Y; y++ {
		for x := b.Max.X - r; x < b.Max.X; x++ {
			if (b.Max.X-x)+(b.Max.Y-y) <= r {
				c.img.SetRGBA(x, y, col)
			}
		}
	}
}

func (c *canvas) text(face font.Face, col color.Color, x, y int, s string) {
	d := font.Drawer{Dst: c.img, Src: image.NewUniform(col), Face: face, Dot: fixed.P(x, y)}
	d.DrawString(s)
}

func (c *canvas) centered(face font.Face, col color.Color, y int, s string) {
	w := font.MeasureString(face, s).Ceil()
	c.text(face, col, (c.img.Bounds().Dx()-w)/2, y, s)
}

// paragraph draws s wrapped to width starting below y and returns the new baseline.
func (c *canvas) paragraph(face font.Face, col color.Color, x, y, width int, s string) int {
	for _, line := range wrap(face, s, width) {
		y += lineHeight(face)
		c.text(face, col, x, y, line)
	}
	return y
}

func lineHeight(face font.Face) int {
	return face.Metrics().Height.Ceil() * 5 / 4
}

func wrap(face font.Face, s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	lines := make([]string, 0, 4)
	current := words[0]
	for _, w := range words[1:] {
		candidate := current + " " + w
		if font.MeasureString(face, candidate).Ceil() > width {
			lines = append(lines, current)
			current = w
			continue
		}
		current = candidate
	}
	return append(lines, current)
}
