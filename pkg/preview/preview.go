// Package preview synthesizes preview images for uploaded resources when
// the seller did not supply one. Generation is best effort by contract:
// callers treat any error as "no preview", never as a pipeline failure.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/edumart/edumart/pkg/validator"
)

// Preview images are bounded to a portrait card.
const (
	maxWidth  = 600
	maxHeight = 800
)

// ContentType is the MIME type of every generated preview.
const ContentType = "image/png"

// Generate derives a PNG preview from the main file's bytes. Raster images
// are downscaled to the preview bounds; PDFs get a generated cover card.
// Other formats are not supported and return an error, which callers map
// to a null preview.
func Generate(data []byte, contentType string) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input")
	}
	mime := validator.NormalizeMIME(contentType)
	switch {
	case strings.HasPrefix(mime, "image/"):
		return fromImage(data)
	case mime == "application/pdf":
		return pdfCover(data)
	default:
		return nil, fmt.Errorf("no preview generator for %s", mime)
	}
}

func fromImage(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	fitted := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

// pdfCover renders a document cover card. First-page rasterization would
// need a native PDF renderer; a generated cover keeps the preview slot
// filled without a cgo dependency.
func pdfCover(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, fmt.Errorf("not a pdf")
	}
	version := pdfVersion(data)

	card := imaging.New(maxWidth, maxHeight, color.NRGBA{R: 245, G: 246, B: 248, A: 255})

	// Header band.
	band := image.Rect(0, 0, maxWidth, 120)
	draw.Draw(card, band, &image.Uniform{C: color.NRGBA{R: 198, G: 52, B: 44, A: 255}}, image.Point{}, draw.Src)

	drawLabel(card, "PDF", maxWidth/2-12, 68, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	if version != "" {
		drawLabel(card, "v"+version, maxWidth/2-14, 440, color.NRGBA{R: 120, G: 124, B: 130, A: 255})
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, card, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode cover: %w", err)
	}
	return buf.Bytes(), nil
}

func drawLabel(dst draw.Image, text string, x, y int, c color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// pdfVersion extracts the "1.7" out of a "%PDF-1.7" header.
func pdfVersion(data []byte) string {
	rest := data[len("%PDF-"):]
	end := 0
	for end < len(rest) && end < 8 {
		ch := rest[end]
		if (ch < '0' || ch > '9') && ch != '.' {
			break
		}
		end++
	}
	return string(rest[:end])
}
