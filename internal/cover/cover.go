// package cover renders playlist cover art: the word-wrapped title,
// right-aligned, over a flat background with a fixed signature line.
package cover

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/discojam/internal/shared"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	// The provider displays square covers; 640 matches its preferred size.
	canvasSize = 640
	margin     = 40

	titleSize     = 52
	signatureSize = 22
	fontDPI       = 72
)

var (
	backgroundColor = color.RGBA{R: 0x12, G: 0x12, B: 0x12, A: 0xff}
	titleColor      = color.RGBA{R: 0xf5, G: 0xf5, B: 0xf0, A: 0xff}
	signatureColor  = color.RGBA{R: 0x1d, G: 0xb9, B: 0x54, A: 0xff}
)

// Options configures a [Generator]. Zero values select the embedded Go fonts
// and the default signature line.
type Options struct {
	TitleFont     []byte // TTF bytes for the title face
	SignatureFont []byte // TTF bytes for the signature face
	Signature     string // Signature line drawn at the bottom
}

// Generator renders deterministic cover images: the same title always
// produces the same bytes.
type Generator struct {
	titleFace     font.Face
	signatureFace font.Face
	signature     string
}

// NewGenerator builds a generator from the given options. Unparsable font
// bytes fall back to a built-in bitmap face rather than failing; a cover in
// the wrong font beats no cover.
func NewGenerator(opts Options, logger *log.Logger) *Generator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	titleFont := opts.TitleFont
	if titleFont == nil {
		titleFont = gobold.TTF
	}
	signatureFont := opts.SignatureFont
	if signatureFont == nil {
		signatureFont = goregular.TTF
	}

	signature := opts.Signature
	if signature == "" {
		signature = "discovery jam"
	}

	return &Generator{
		titleFace:     parseFace(titleFont, titleSize, logger),
		signatureFace: parseFace(signatureFont, signatureSize, logger),
		signature:     signature,
	}
}

// parseFace parses TTF bytes at the given size, falling back to
// [basicfont.Face7x13] when the data is unusable.
func parseFace(data []byte, size float64, logger *log.Logger) font.Face {
	parsed, err := opentype.Parse(data)
	if err != nil {
		logger.Warn("font parse failed, using fallback face", "error", err)
		return basicfont.Face7x13
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     fontDPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		logger.Warn("font face creation failed, using fallback face", "error", err)
		return basicfont.Face7x13
	}
	return face
}

// Render draws the cover for the given title onto a fresh canvas.
func (g *Generator) Render(title string) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, canvasSize, canvasSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	titleDrawer := &font.Drawer{Dst: img, Src: image.NewUniform(titleColor), Face: g.titleFace}

	maxWidth := fixed.I(canvasSize - 2*margin)
	lines := wrap(titleDrawer, title, maxWidth)

	metrics := g.titleFace.Metrics()
	lineHeight := metrics.Height.Ceil()
	y := margin + metrics.Ascent.Ceil()

	// Right-aligned: each line ends at the same x.
	for _, line := range lines {
		width := titleDrawer.MeasureString(line)
		titleDrawer.Dot = fixed.P(canvasSize-margin, y)
		titleDrawer.Dot.X -= width
		titleDrawer.DrawString(line)
		y += lineHeight
	}

	sigDrawer := &font.Drawer{Dst: img, Src: image.NewUniform(signatureColor), Face: g.signatureFace}
	sigWidth := sigDrawer.MeasureString(g.signature)
	sigDrawer.Dot = fixed.P(canvasSize-margin, canvasSize-margin)
	sigDrawer.Dot.X -= sigWidth
	sigDrawer.DrawString(g.signature)

	return img
}

// EncodeJPEG renders the cover and encodes it as JPEG bytes.
func (g *Generator) EncodeJPEG(title string) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, g.Render(title), &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode cover: %w", err)
	}
	return buf.Bytes(), nil
}

// Base64JPEG renders the cover encoded for the provider's cover-upload
// endpoint, which takes the JPEG as a bare base64 string.
func (g *Generator) Base64JPEG(title string) (string, error) {
	raw, err := g.EncodeJPEG(title)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// wrap splits text into lines no wider than maxWidth, breaking greedily on
// spaces. A single word wider than the canvas gets its own line untouched;
// clipping beats dropping characters.
func wrap(d *font.Drawer, text string, maxWidth fixed.Int26_6) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	lines := make([]string, 0, 4)
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if d.MeasureString(candidate) > maxWidth {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	return append(lines, current)
}
