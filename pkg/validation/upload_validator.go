package validation

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	apperrors "go-medscan/internal/errors"
	"go-medscan/pkg/models"
)

// DefaultAllowedTypes are the image types the OCR pipeline can decode.
var DefaultAllowedTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/bmp",
	"image/tiff",
	"image/webp",
}

// UploadValidator handles upload validation logic
type UploadValidator struct {
	maxSize      int64
	allowedTypes []string
}

// NewUploadValidator creates an upload validator accepting DefaultAllowedTypes
func NewUploadValidator(maxSize int64) *UploadValidator {
	return &UploadValidator{
		maxSize:      maxSize,
		allowedTypes: DefaultAllowedTypes,
	}
}

// NewUploadValidatorWithOptions creates an upload validator with a custom type list
func NewUploadValidatorWithOptions(maxSize int64, allowedTypes []string) *UploadValidator {
	return &UploadValidator{
		maxSize:      maxSize,
		allowedTypes: allowedTypes,
	}
}

// ValidateUpload checks the upload is present, within the size limit and
// sniffs as an allowed image type. The client-declared content type is
// replaced with the sniffed one.
func (v *UploadValidator) ValidateUpload(upload *models.UploadedImage) error {
	if upload == nil || len(upload.Data) == 0 {
		return apperrors.NewValidationError("no image uploaded", nil)
	}

	if v.maxSize > 0 && int64(len(upload.Data)) > v.maxSize {
		return apperrors.NewValidationError(
			fmt.Sprintf("image exceeds %d bytes", v.maxSize), nil)
	}

	detected := mimetype.Detect(upload.Data)
	if !v.isTypeAllowed(detected) {
		return apperrors.NewValidationError(
			fmt.Sprintf("unsupported content type %q", detected.String()), nil)
	}

	upload.ContentType = detected.String()
	return nil
}

// isTypeAllowed checks the sniffed type against the allow list
func (v *UploadValidator) isTypeAllowed(detected *mimetype.MIME) bool {
	for _, allowed := range v.allowedTypes {
		if detected.Is(allowed) {
			return true
		}
	}
	return false
}
