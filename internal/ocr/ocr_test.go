package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	apperrors "go-medscan/internal/errors"
)

func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(ctx context.Context, img image.Image) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestDecode(t *testing.T) {
	white := createTestImage(20, 10, color.White)

	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, white, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}

	tests := []struct {
		name       string
		data       []byte
		wantFormat string
		wantErr    bool
	}{
		{name: "png", data: encodePNG(t, white), wantFormat: "png"},
		{name: "jpeg", data: jpg.Bytes(), wantFormat: "jpeg"},
		{name: "empty payload", data: nil, wantErr: true},
		{name: "plain text", data: []byte("Glucose: 140 mg/dL"), wantErr: true},
		{name: "truncated png", data: encodePNG(t, white)[:20], wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, format, err := Decode(tt.data)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if !apperrors.IsType(err, apperrors.ErrorTypeDecode) {
					t.Errorf("Expected decode error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if format != tt.wantFormat {
				t.Errorf("Expected format %s, got %s", tt.wantFormat, format)
			}
			if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 10 {
				t.Errorf("Unexpected bounds %v", img.Bounds())
			}
		})
	}
}

func TestExtractText_DecodeFailureSkipsEngine(t *testing.T) {
	fake := &fakeExtractor{text: "never"}

	_, err := ExtractText(context.Background(), fake, []byte("not an image"))
	if !apperrors.IsType(err, apperrors.ErrorTypeDecode) {
		t.Fatalf("Expected decode error, got %v", err)
	}
	if fake.calls != 0 {
		t.Errorf("Expected extractor not to be called, got %d calls", fake.calls)
	}
}

func TestExtractText_PassesThroughEngineResult(t *testing.T) {
	data := encodePNG(t, createTestImage(10, 10, color.White))

	fake := &fakeExtractor{text: "  \n"}
	text, err := ExtractText(context.Background(), fake, data)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if text != "  \n" {
		t.Errorf("Expected whitespace text to pass through unchanged, got %q", text)
	}

	engineErr := apperrors.NewOCREngineError("recognize text", errors.New("tesseract crashed"))
	fake = &fakeExtractor{err: engineErr}
	if _, err := ExtractText(context.Background(), fake, data); !apperrors.IsType(err, apperrors.ErrorTypeOCREngine) {
		t.Errorf("Expected engine error, got %v", err)
	}
}

func TestPreprocess(t *testing.T) {
	img := createTestImage(30, 15, color.RGBA{200, 40, 40, 255})

	gray := Preprocess(img, 0.3)
	if gray.Bounds() != img.Bounds() {
		t.Errorf("Expected bounds %v, got %v", img.Bounds(), gray.Bounds())
	}

	plain := Preprocess(img, 0)
	if plain.Bounds() != img.Bounds() {
		t.Errorf("Expected bounds %v, got %v", img.Bounds(), plain.Bounds())
	}
	if y := plain.GrayAt(3, 3).Y; y <= 40 || y >= 200 {
		t.Errorf("Expected luma between channel extremes, got %d", y)
	}
}

func TestTesseractExtractor_CancelledContext(t *testing.T) {
	e := NewTesseractExtractor(DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Extract(ctx, createTestImage(10, 10, color.White))
	if !apperrors.IsType(err, apperrors.ErrorTypeOCREngine) {
		t.Errorf("Expected engine error for cancelled context, got %v", err)
	}
}

// renderText draws black text on white and scales it up so Tesseract can read it.
func renderText(text string) image.Image {
	img := createTestImage(8*len(text)+20, 30, color.White)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 20),
	}
	d.DrawString(text)
	b := img.Bounds()
	return imaging.Resize(img, b.Dx()*4, b.Dy()*4, imaging.Lanczos)
}

func TestTesseractExtractor_Integration(t *testing.T) {
	if os.Getenv("TEST_TESSERACT") == "" {
		t.Skip("TEST_TESSERACT not set, skipping tesseract integration test")
	}

	e := NewTesseractExtractor(DefaultOptions())
	data := encodePNG(t, renderText("Glucose: 140 mg/dL"))

	text, err := ExtractText(context.Background(), e, data)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(text, "Glucose") || !strings.Contains(text, "140") {
		t.Errorf("Expected text to contain Glucose and 140, got %q", text)
	}

	blank, err := ExtractText(context.Background(), e, encodePNG(t, createTestImage(200, 100, color.White)))
	if err != nil {
		t.Fatalf("Expected no error for blank image, got %v", err)
	}
	if strings.TrimSpace(blank) != "" {
		t.Errorf("Expected no text in blank image, got %q", blank)
	}
}
