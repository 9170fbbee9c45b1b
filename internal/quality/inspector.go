package quality

import (
	"image"
	"math"
)

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Thresholds tune when a metric turns into an issue.
type Thresholds struct {
	MinLaplacianVariance float64
	MinBrightness        float64
	MaxBrightness        float64
	MaxChannelImbalance  float64
	MinWidth             int
	MinHeight            int
}

// DefaultThresholds are tuned for phone photos of printed reports, which are
// mostly white paper.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinLaplacianVariance: 100.0,
		MinBrightness:        70.0,
		MaxBrightness:        250.0,
		MaxChannelImbalance:  0.15,
		MinWidth:             640,
		MinHeight:            480,
	}
}

// Issue is one quality finding.
type Issue struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"`
	ActualValue float64 `json:"actual_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

type Inspector struct {
	thresholds Thresholds
}

func NewInspector() *Inspector {
	return &Inspector{thresholds: DefaultThresholds()}
}

func NewInspectorWithThresholds(thresholds Thresholds) *Inspector {
	return &Inspector{thresholds: thresholds}
}

// Inspect measures img and returns the issues found.
func (i *Inspector) Inspect(img image.Image) []Issue {
	return i.Evaluate(Measure(img))
}

// Evaluate judges precomputed metrics.
func (i *Inspector) Evaluate(m Metrics) []Issue {
	var issues []Issue
	t := i.thresholds

	if m.Width < t.MinWidth || m.Height < t.MinHeight {
		issues = append(issues, Issue{
			Type:        "low_resolution",
			Message:     "Image resolution is low. Text may not be recognized reliably.",
			Severity:    SeverityWarning,
			ActualValue: float64(m.Width * m.Height),
			Threshold:   float64(t.MinWidth * t.MinHeight),
		})
	}

	if m.LaplacianVar < t.MinLaplacianVariance {
		issues = append(issues, Issue{
			Type:        "blurriness",
			Message:     "Image looks blurry. Hold the camera steady and keep the report in focus.",
			Severity:    SeverityError,
			ActualValue: m.LaplacianVar,
			Threshold:   t.MinLaplacianVariance,
		})
	}

	if m.Brightness < t.MinBrightness {
		issues = append(issues, Issue{
			Type:        "too_dark",
			Message:     "Image is too dark. Take the photo in more light.",
			Severity:    SeverityError,
			ActualValue: m.Brightness,
			Threshold:   t.MinBrightness,
		})
	} else if m.Brightness > t.MaxBrightness {
		issues = append(issues, Issue{
			Type:        "too_bright",
			Message:     "Image is too bright. Avoid strong sunlight or flash.",
			Severity:    SeverityError,
			ActualValue: m.Brightness,
			Threshold:   t.MaxBrightness,
		})
	}

	ch := m.ChannelBalance
	if math.Abs(ch[0]-ch[1]) >= t.MaxChannelImbalance ||
		math.Abs(ch[0]-ch[2]) >= t.MaxChannelImbalance ||
		math.Abs(ch[1]-ch[2]) >= t.MaxChannelImbalance {
		issues = append(issues, Issue{
			Type:      "channel_imbalance",
			Message:   "Colors look odd. Don't use filters or colored lights.",
			Severity:  SeverityWarning,
			Threshold: t.MaxChannelImbalance,
		})
	}

	return issues
}

// Messages flattens issues into user-facing strings.
func Messages(issues []Issue) []string {
	if len(issues) == 0 {
		return nil
	}
	messages := make([]string, 0, len(issues))
	for _, issue := range issues {
		messages = append(messages, issue.Message)
	}
	return messages
}

// HasCriticalIssues reports whether any issue has error severity.
func HasCriticalIssues(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}
