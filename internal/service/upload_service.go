package service

import (
	"context"
	"errors"
	"image"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "go-medscan/internal/errors"
	"go-medscan/internal/logger"
	"go-medscan/internal/medical"
	"go-medscan/internal/observer"
	"go-medscan/internal/ocr"
	"go-medscan/internal/preview"
	"go-medscan/internal/quality"
	"go-medscan/pkg/models"
)

// UploadService turns one uploaded image into a RequestOutcome. It never
// returns an error: every failure is a terminal state of the outcome.
type UploadService interface {
	ProcessUpload(ctx context.Context, upload *models.UploadedImage, opts ProcessOptions) *models.RequestOutcome
}

// ProcessOptions are the optional form fields of an upload
type ProcessOptions struct {
	ExpectedText string
}

// UploadValidator checks a raw upload before any decoding
type UploadValidator interface {
	ValidateUpload(upload *models.UploadedImage) error
}

// QualityInspector produces advisory photo-quality issues
type QualityInspector interface {
	Inspect(img image.Image) []quality.Issue
}

// PreviewEncoder renders the upload for display
type PreviewEncoder interface {
	Encode(data []byte) (*preview.Preview, error)
	EncodeImage(img image.Image, format string) (*preview.Preview, error)
}

type uploadService struct {
	validator UploadValidator
	extractor ocr.Extractor
	analyzer  medical.Analyzer
	inspector QualityInspector
	previewer PreviewEncoder
	events    observer.Subject
}

// NewUploadService creates the upload pipeline. inspector and events may be nil.
func NewUploadService(
	validator UploadValidator,
	extractor ocr.Extractor,
	analyzer medical.Analyzer,
	inspector QualityInspector,
	previewer PreviewEncoder,
	events observer.Subject,
) UploadService {
	return &uploadService{
		validator: validator,
		extractor: extractor,
		analyzer:  analyzer,
		inspector: inspector,
		previewer: previewer,
		events:    events,
	}
}

func (s *uploadService) ProcessUpload(ctx context.Context, upload *models.UploadedImage, opts ProcessOptions) *models.RequestOutcome {
	start := time.Now()
	filename := ""
	if upload != nil {
		filename = upload.Filename
	}
	s.publish(ctx, observer.UploadEvent{EventType: observer.UploadReceived, Filename: filename, Success: true})

	outcome := s.run(ctx, upload, opts)

	elapsed := time.Since(start)
	outcome.ProcessingTimeSec = math.Round(elapsed.Seconds()*1000) / 1000

	s.publish(ctx, observer.UploadEvent{
		EventType:      terminalEvent(outcome.State),
		Filename:       filename,
		ProcessingTime: elapsed,
		Success:        outcome.State == models.StateComplete,
		ErrorMessage:   outcome.Error,
		Metadata: map[string]interface{}{
			"state":    outcome.State,
			"warnings": len(outcome.Warnings),
		},
	})
	return outcome
}

func (s *uploadService) run(ctx context.Context, upload *models.UploadedImage, opts ProcessOptions) *models.RequestOutcome {
	log := logger.Component("upload_service")

	if err := s.validator.ValidateUpload(upload); err != nil {
		log.WithError(err).Debug("Upload rejected")
		return &models.RequestOutcome{
			State: models.StateRejected,
			Error: models.MessageInvalidUpload,
		}
	}

	log = log.WithFields(logrus.Fields{
		"filename":     upload.Filename,
		"content_type": upload.ContentType,
		"size":         len(upload.Data),
	})

	img, format, err := ocr.Decode(upload.Data)
	if err != nil {
		log.WithError(err).Warn("Upload could not be decoded")
		outcome := &models.RequestOutcome{
			State: models.StateFailed,
			Error: models.MessageProcessing + causeMessage(err),
		}
		s.attachPreview(ctx, outcome, func() (*preview.Preview, error) { return s.previewer.Encode(upload.Data) })
		return outcome
	}

	outcome := &models.RequestOutcome{}
	if s.inspector != nil {
		outcome.Warnings = quality.Messages(s.inspector.Inspect(img))
	}
	defer s.attachPreview(ctx, outcome, func() (*preview.Preview, error) { return s.previewer.EncodeImage(img, format) })

	text, err := s.extractor.Extract(ctx, img)
	if err != nil {
		log.WithError(err).Error("OCR failed")
		outcome.State = models.StateFailed
		outcome.Error = models.MessageProcessing + causeMessage(err)
		return outcome
	}

	if opts.ExpectedText != "" {
		outcome.OCRMatch = ocr.Match(opts.ExpectedText, text)
	}

	if err := ocr.RequireText(text); apperrors.IsType(err, apperrors.ErrorTypeNoText) {
		log.Info("No text found in upload")
		outcome.State = models.StateNoTextFound
		outcome.Error = models.MessageNoTextFound
		return outcome
	}
	outcome.OCRText = &text

	analysis, err := s.analyzer.Analyze(ctx, text)
	if err != nil {
		log.WithError(err).Error("Analysis failed")
		outcome.State = models.StateAnalysisFailed
		outcome.Error = models.MessageAnalyzing + causeMessage(err)
		return outcome
	}

	outcome.State = models.StateComplete
	outcome.Analysis = &analysis
	return outcome
}

// attachPreview fills the preview fields. Failure only logs; the format
// still defaults to png.
func (s *uploadService) attachPreview(ctx context.Context, outcome *models.RequestOutcome, encode func() (*preview.Preview, error)) {
	outcome.ImageFormat = preview.DefaultFormat
	if s.previewer == nil {
		return
	}

	p, err := encode()
	if err != nil {
		logger.WithError(err).Warn("Preview encoding failed")
		s.publish(ctx, observer.UploadEvent{EventType: observer.PreviewFailed, ErrorMessage: err.Error()})
		return
	}
	outcome.ImagePreview = p.Base64
	outcome.PreviewHex = p.Hex
	outcome.ImageFormat = p.Format
}

func (s *uploadService) publish(ctx context.Context, event observer.UploadEvent) {
	if s.events == nil {
		return
	}
	s.events.NotifyObservers(ctx, event)
}

func terminalEvent(state models.State) observer.EventType {
	switch state {
	case models.StateRejected:
		return observer.UploadRejected
	case models.StateFailed:
		return observer.ProcessingFailed
	case models.StateNoTextFound:
		return observer.NoTextFound
	case models.StateAnalysisFailed:
		return observer.AnalysisFailed
	default:
		return observer.AnalysisCompleted
	}
}

// causeMessage is the text shown after "Error ...: " on the page.
func causeMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.CauseMessage()
	}
	return err.Error()
}
