package decoder

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reagent-inventory-api-server/internal/models"
)

// renderEAN13 draws the code onto a white canvas with a generous quiet zone.
func renderEAN13(t *testing.T, code string) image.Image {
	t.Helper()
	matrix, err := oned.NewEAN13Writer().Encode(code, gozxing.BarcodeFormat_EAN_13, 380, 120, nil)
	require.NoError(t, err)

	const pad = 40
	w, h := matrix.GetWidth(), matrix.GetHeight()
	img := image.NewGray(image.Rect(0, 0, w+2*pad, h+2*pad))
	for y := 0; y < img.Bounds().Dy(); y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if matrix.Get(x, y) {
				img.SetGray(x+pad, y+pad, color.Gray{Y: 0})
			}
		}
	}
	return img
}

func TestDecode_EAN13(t *testing.T) {
	res, err := New().Decode(renderEAN13(t, "4912345678904"))
	require.NoError(t, err)
	assert.Equal(t, "4912345678904", res.Text)
	assert.Equal(t, "EAN_13", res.Format)
}

func TestDecodeReader_PNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, renderEAN13(t, "4912345678904")))

	res, err := New().DecodeReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, "4912345678904", res.Text)
}

func TestDecode_BlankImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 200, 100))
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	_, err := New().Decode(img)
	assert.ErrorIs(t, err, models.ErrNoBarcodeDetected)
}

func TestDecodeReader_NotAnImage(t *testing.T) {
	_, err := New().DecodeReader(bytes.NewReader([]byte("definitely not a jpeg")))
	assert.ErrorIs(t, err, models.ErrNoBarcodeDetected)
}
