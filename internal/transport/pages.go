package transport

import (
	"context"
	"io"
	"net/http"

	"go-medscan/internal/logger"
	"go-medscan/internal/service"
	"go-medscan/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	homeTemplate   = "home.html"
	sliderTemplate = "analysis_slider.html"

	imageField        = "image"
	expectedTextField = "expected_text"
)

func homePage() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, homeTemplate, gin.H{})
	}
}

// uploadReport runs the upload pipeline, renders the result inline and
// stores the preview for the slider page.
func uploadReport(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), deps.Config.RequestTimeout)
		defer cancel()

		upload := readUpload(c, deps.Config.MaxUploadSize)
		outcome := deps.Uploads.ProcessUpload(ctx, upload, service.ProcessOptions{
			ExpectedText: c.PostForm(expectedTextField),
		})

		if outcome.State != models.StateRejected {
			sessionID := ensureSession(c, deps.Config)
			state := models.SessionImageState{Format: outcome.ImageFormat, Preview: outcome.PreviewHex}
			// The request context may already be past its deadline here.
			if err := deps.Sessions.Set(context.WithoutCancel(ctx), sessionID, state); err != nil {
				logger.WithError(err).WithField("session_id", sessionID).Error("Failed to store session preview")
			}
		}

		c.HTML(statusFor(outcome), homeTemplate, outcomeView(outcome))
	}
}

// analysisSlider redisplays the last preview of this browser session. It
// never creates a session.
func analysisSlider(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var state models.SessionImageState
		if sessionID, ok := currentSession(c); ok {
			stored, found, err := deps.Sessions.Get(c.Request.Context(), sessionID)
			switch {
			case err != nil:
				logger.WithError(err).WithField("session_id", sessionID).Error("Failed to read session preview")
			case found:
				state = stored
			}
		}

		c.HTML(http.StatusOK, sliderTemplate, gin.H{
			"ImageFormat":  state.Format,
			"ImagePreview": state.Preview,
		})
	}
}

// analyzeReport is the JSON form of uploadReport. It does not touch
// session state. A request that runs past its deadline still returns the
// outcome assembled so far.
func analyzeReport(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), deps.Config.RequestTimeout)
		defer cancel()

		upload := readUpload(c, deps.Config.MaxUploadSize)
		outcome := deps.Uploads.ProcessUpload(ctx, upload, service.ProcessOptions{
			ExpectedText: c.PostForm(expectedTextField),
		})

		c.JSON(statusFor(outcome), outcome)
	}
}

// readUpload returns nil when the form carries no usable file; the service
// turns that into a rejected outcome.
func readUpload(c *gin.Context, maxSize int64) *models.UploadedImage {
	header, err := c.FormFile(imageField)
	if err != nil {
		logger.WithError(err).WithField("ip", c.ClientIP()).Debug("No image in form")
		return nil
	}

	f, err := header.Open()
	if err != nil {
		logger.WithError(err).Warn("Failed to open uploaded file")
		return nil
	}
	defer f.Close()

	// One byte over the limit is enough for the validator to reject it.
	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		logger.WithError(err).Warn("Failed to read uploaded file")
		return nil
	}

	logger.WithFields(logrus.Fields{
		"filename": header.Filename,
		"size":     len(data),
	}).Debug("Image received")

	return &models.UploadedImage{
		Data:        data,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}
}

func statusFor(outcome *models.RequestOutcome) int {
	if outcome.State == models.StateRejected {
		return http.StatusBadRequest
	}
	return http.StatusOK
}

func outcomeView(o *models.RequestOutcome) gin.H {
	view := gin.H{
		"State":        o.State,
		"Error":        o.Error,
		"ImagePreview": o.ImagePreview,
		"ImageFormat":  o.ImageFormat,
		"Warnings":     o.Warnings,
		"OCRMatch":     o.OCRMatch,
	}
	if o.OCRText != nil {
		view["OCRText"] = *o.OCRText
	}
	if o.Analysis != nil {
		view["Analysis"] = *o.Analysis
	}
	return view
}
