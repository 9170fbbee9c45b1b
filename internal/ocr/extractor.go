package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/draw"
	"image/png"
	"strings"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/otiai10/gosseract/v2"

	apperrors "go-medscan/internal/errors"
	"go-medscan/pkg/models"
)

var errEmptyImage = errors.New("image has no pixels")

// Extractor converts a decoded image into plain text. Whitespace-only output
// is a valid result; callers decide what it means.
type Extractor interface {
	Extract(ctx context.Context, img image.Image) (string, error)
}

// ExtractText decodes the payload and runs it through the extractor.
// Decode failures are ErrorTypeDecode, engine failures ErrorTypeOCREngine.
func ExtractText(ctx context.Context, e Extractor, data []byte) (string, error) {
	img, _, err := Decode(data)
	if err != nil {
		return "", err
	}
	return e.Extract(ctx, img)
}

// RequireText reports whitespace-only OCR output as ErrorTypeNoText.
func RequireText(text string) error {
	if strings.TrimSpace(text) == "" {
		return apperrors.NewNoTextError(models.MessageNoTextFound)
	}
	return nil
}

// Options configures the Tesseract extractor
type Options struct {
	Languages      []string
	TessdataPrefix string
	// Preprocess boosts contrast and converts to grayscale before recognition.
	Preprocess bool
	// Contrast is the bild contrast change applied when Preprocess is set.
	Contrast float64
}

// DefaultOptions returns options for English documents
func DefaultOptions() Options {
	return Options{
		Languages:  []string{"eng"},
		Preprocess: true,
		Contrast:   0.3,
	}
}

type tesseractExtractor struct {
	opts          Options
	clientFactory func() *gosseract.Client
}

// NewTesseractExtractor constructs a gosseract-backed extractor. A new client
// is created per call so the extractor is safe for concurrent requests.
func NewTesseractExtractor(opts Options) Extractor {
	if len(opts.Languages) == 0 {
		opts.Languages = []string{"eng"}
	}
	return &tesseractExtractor{opts: opts, clientFactory: gosseract.NewClient}
}

func (e *tesseractExtractor) Extract(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperrors.NewOCREngineError("ocr cancelled", err)
	}

	payload, err := e.encodeInput(img)
	if err != nil {
		return "", apperrors.NewOCREngineError("prepare image", err)
	}

	client := e.clientFactory()
	defer client.Close()

	if e.opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.opts.TessdataPrefix); err != nil {
			return "", apperrors.NewOCREngineError("set tessdata path", err)
		}
	}
	if err := client.SetLanguage(e.opts.Languages...); err != nil {
		return "", apperrors.NewOCREngineError("set languages", err)
	}
	if err := client.SetImageFromBytes(payload); err != nil {
		return "", apperrors.NewOCREngineError("set image", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", apperrors.NewOCREngineError("recognize text", err)
	}
	return text, nil
}

// encodeInput hands Tesseract a lossless PNG of the (optionally
// preprocessed) image regardless of the upload format.
func (e *tesseractExtractor) encodeInput(img image.Image) ([]byte, error) {
	src := img
	if e.opts.Preprocess {
		src = Preprocess(img, e.opts.Contrast)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Preprocess raises contrast and drops color, which helps Tesseract on
// photographed paper reports.
func Preprocess(img image.Image, contrast float64) *image.Gray {
	src := img
	if contrast != 0 {
		src = adjust.Contrast(img, contrast)
	}
	rgba := effect.Grayscale(src)
	b := rgba.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, rgba, b.Min, draw.Src)
	return gray
}
