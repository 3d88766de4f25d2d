// Package decoder reads a barcode out of a still image. Symbology decoding is
// delegated to gozxing; this package only picks the readers and normalises the
// result into the plain string the reconciler consumes.
package decoder

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"

	"reagent-inventory-api-server/internal/models"
)

// Result is one decoded code.
type Result struct {
	Text   string `json:"text"`
	Format string `json:"format"`
}

// Decoder tries each reader in order and returns the first hit.
type Decoder struct {
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

// New returns a decoder for the symbologies found on reagent packaging:
// EAN/JAN, UPC, Code 128, Code 39 and QR.
func New() *Decoder {
	return &Decoder{
		readers: []gozxing.Reader{
			oned.NewMultiFormatUPCEANReader(nil),
			oned.NewCode128Reader(),
			oned.NewCode39Reader(),
			qrcode.NewQRCodeReader(),
		},
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// Decode returns models.ErrNoBarcodeDetected when no reader finds a code.
func (d *Decoder) Decode(img image.Image) (Result, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return Result{}, fmt.Errorf("prepare image: %w", err)
	}

	for _, reader := range d.readers {
		res, err := reader.Decode(bmp, d.hints)
		reader.Reset()
		if err != nil {
			continue
		}
		text, err := models.NormalizeBarcode(res.GetText())
		if err != nil {
			continue
		}
		return Result{Text: text, Format: res.GetBarcodeFormat().String()}, nil
	}
	return Result{}, models.ErrNoBarcodeDetected
}

// DecodeReader decodes a JPEG or PNG stream.
func (d *Decoder) DecodeReader(r io.Reader) (Result, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return Result{}, fmt.Errorf("%w: unsupported image format", models.ErrNoBarcodeDetected)
		}
		return Result{}, fmt.Errorf("%w: %v", models.ErrNoBarcodeDetected, err)
	}
	return d.Decode(img)
}
