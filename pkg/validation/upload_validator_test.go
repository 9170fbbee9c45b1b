package validation

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	apperrors "go-medscan/internal/errors"
	"go-medscan/pkg/models"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4)), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestNewUploadValidator(t *testing.T) {
	validator := NewUploadValidator(1024)
	if validator == nil {
		t.Fatal("Expected non-nil upload validator")
	}
	if validator.maxSize != 1024 {
		t.Errorf("Expected maxSize 1024, got %d", validator.maxSize)
	}
	if len(validator.allowedTypes) != len(DefaultAllowedTypes) {
		t.Errorf("Expected %d allowed types, got %d", len(DefaultAllowedTypes), len(validator.allowedTypes))
	}
}

func TestValidateUpload_ValidImages(t *testing.T) {
	validator := NewUploadValidator(1 << 20)

	tests := []struct {
		name     string
		data     []byte
		declared string
		want     string
	}{
		{"png", pngBytes(t), "image/png", "image/png"},
		{"jpeg", jpegBytes(t), "image/jpeg", "image/jpeg"},
		{"wrong declared type is replaced", pngBytes(t), "application/octet-stream", "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upload := &models.UploadedImage{Data: tt.data, Filename: "report", ContentType: tt.declared}
			if err := validator.ValidateUpload(upload); err != nil {
				t.Fatalf("Expected valid upload, got %v", err)
			}
			if upload.ContentType != tt.want {
				t.Errorf("Expected content type %s, got %s", tt.want, upload.ContentType)
			}
		})
	}
}

func TestValidateUpload_Rejections(t *testing.T) {
	tests := []struct {
		name        string
		validator   *UploadValidator
		upload      *models.UploadedImage
		wantContain string
	}{
		{
			name:        "nil upload",
			validator:   NewUploadValidator(1 << 20),
			upload:      nil,
			wantContain: "no image uploaded",
		},
		{
			name:        "empty data",
			validator:   NewUploadValidator(1 << 20),
			upload:      &models.UploadedImage{Filename: "empty.png"},
			wantContain: "no image uploaded",
		},
		{
			name:        "too large",
			validator:   NewUploadValidator(10),
			upload:      &models.UploadedImage{Data: pngBytes(t)},
			wantContain: "exceeds 10 bytes",
		},
		{
			name:        "text file",
			validator:   NewUploadValidator(1 << 20),
			upload:      &models.UploadedImage{Data: []byte("Glucose: 140 mg/dL"), ContentType: "image/png"},
			wantContain: "unsupported content type",
		},
		{
			name:        "type outside custom list",
			validator:   NewUploadValidatorWithOptions(1<<20, []string{"image/jpeg"}),
			upload:      &models.UploadedImage{Data: pngBytes(t)},
			wantContain: "image/png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validator.ValidateUpload(tt.upload)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
				t.Errorf("Expected validation error type, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantContain) {
				t.Errorf("Expected error to contain %q, got %q", tt.wantContain, err.Error())
			}
		})
	}
}
