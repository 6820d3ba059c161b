package preview

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 10, G: 120, B: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func TestGenerateFromImageFitsBounds(t *testing.T) {
	data := encodePNG(t, 1800, 1200)

	out, err := Generate(data, "image/png")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	bounds := img.Bounds()
	assert.LessOrEqual(t, bounds.Dx(), maxWidth)
	assert.LessOrEqual(t, bounds.Dy(), maxHeight)
	// Aspect ratio preserved: a 3:2 landscape stays 3:2.
	assert.Equal(t, 600, bounds.Dx())
	assert.Equal(t, 400, bounds.Dy())
}

func TestGenerateSmallImageNotUpscaled(t *testing.T) {
	data := encodePNG(t, 100, 80)

	out, err := Generate(data, "image/png")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())
}

func TestGeneratePDFCover(t *testing.T) {
	out, err := Generate([]byte("%PDF-1.7\n1 0 obj\n<< >>\nendobj"), "application/pdf")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, maxWidth, img.Bounds().Dx())
	assert.Equal(t, maxHeight, img.Bounds().Dy())
}

func TestGenerateFailures(t *testing.T) {
	_, err := Generate(nil, "application/pdf")
	assert.Error(t, err)

	// Declared pdf without the header.
	_, err = Generate([]byte("not a pdf at all"), "application/pdf")
	assert.Error(t, err)

	// Unsupported format.
	_, err = Generate([]byte("PK\x03\x04"), "application/zip")
	assert.Error(t, err)

	// Corrupt image bytes.
	_, err = Generate([]byte{0x89, 0x50, 0x4E, 0x47, 0x00}, "image/png")
	assert.Error(t, err)
}

func TestPDFVersionExtraction(t *testing.T) {
	assert.Equal(t, "1.7", pdfVersion([]byte("%PDF-1.7\nrest")))
	assert.Equal(t, "2.0", pdfVersion([]byte("%PDF-2.0")))
	assert.Equal(t, "", pdfVersion([]byte("%PDF-\n")))
}
