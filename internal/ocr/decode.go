package ocr

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "go-medscan/internal/errors"
)

// Decode opens an uploaded payload as a raster image and returns it together
// with the registered format name ("png", "jpeg", ...).
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", apperrors.NewDecodeError("cannot decode image", image.ErrFormat)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", apperrors.NewDecodeError("cannot decode image", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, "", apperrors.NewDecodeError("cannot decode image", errEmptyImage)
	}
	return img, format, nil
}
