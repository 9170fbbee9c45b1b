// Package preview re-encodes uploads for display. It is best-effort: callers
// log failures and carry on.
package preview

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	apperrors "go-medscan/internal/errors"
)

const (
	// DefaultMaxDimension caps the longest side of a preview.
	DefaultMaxDimension = 1600

	// DefaultFormat is used when the source format has no encoder.
	DefaultFormat = "png"
)

// Preview holds one encoded rendition in the two textual forms the app needs.
type Preview struct {
	Format string
	Base64 string
	Hex    string
}

type Encoder struct {
	maxDimension int
}

func NewEncoder(maxDimension int) *Encoder {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &Encoder{maxDimension: maxDimension}
}

// Encode decodes data, shrinks it to fit maxDimension and re-encodes it in
// its own format, or PNG when that format cannot be written.
func (e *Encoder) Encode(data []byte) (*Preview, error) {
	if len(data) == 0 {
		return nil, apperrors.NewPreviewError("empty image data", nil)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewPreviewError("cannot decode image for preview", err)
	}
	return e.EncodeImage(img, format)
}

// EncodeImage is Encode for an already decoded image. format is the name
// reported by image.Decode.
func (e *Encoder) EncodeImage(img image.Image, format string) (*Preview, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, apperrors.NewPreviewError("empty image", nil)
	}

	outFormat, name := outputFormat(format)
	if b := img.Bounds(); b.Dx() > e.maxDimension || b.Dy() > e.maxDimension {
		img = imaging.Fit(img, e.maxDimension, e.maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, outFormat); err != nil {
		return nil, apperrors.NewPreviewError("cannot encode preview", err)
	}

	raw := buf.Bytes()
	return &Preview{
		Format: name,
		Base64: base64.StdEncoding.EncodeToString(raw),
		Hex:    hex.EncodeToString(raw),
	}, nil
}

// outputFormat maps a decoder name to an imaging encoder. Formats browsers
// cannot show inline, such as TIFF, become PNG.
func outputFormat(format string) (imaging.Format, string) {
	f, err := imaging.FormatFromExtension(format)
	if err != nil || format == "" {
		return imaging.PNG, DefaultFormat
	}
	switch f {
	case imaging.JPEG:
		return f, "jpeg"
	case imaging.PNG:
		return f, "png"
	case imaging.GIF:
		return f, "gif"
	case imaging.BMP:
		return f, "bmp"
	default:
		return imaging.PNG, DefaultFormat
	}
}

// HexToBase64 converts a stored hex preview back to base64 for an img tag.
// Invalid input yields an empty string.
func HexToBase64(h string) string {
	if h == "" {
		return ""
	}
	raw, err := hex.DecodeString(h)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(raw)
}
