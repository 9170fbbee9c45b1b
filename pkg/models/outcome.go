package models

// State is the terminal state of one upload request
type State string

const (
	StateRejected       State = "rejected"
	StateFailed         State = "failed"
	StateNoTextFound    State = "no_text_found"
	StateComplete       State = "complete"
	StateAnalysisFailed State = "analysis_failed"
)

// User-facing messages rendered into the page
const (
	MessageInvalidUpload = "Please upload a valid image."
	MessageNoTextFound   = "No text detected in the image."
	MessageProcessing    = "Error processing image: "
	MessageAnalyzing     = "Error analyzing text: "
)

// UploadedImage is the raw payload of one form submission
type UploadedImage struct {
	Data        []byte
	Filename    string
	ContentType string
}

// RequestOutcome is everything the result page is rendered from.
// OCRText and Analysis are nil when absent, which is distinct from empty.
type RequestOutcome struct {
	State        State     `json:"state"`
	OCRText      *string   `json:"ocr_text"`
	Analysis     *string   `json:"analysis"`
	Error        string    `json:"error,omitempty"`
	ImagePreview string    `json:"image_preview,omitempty"`
	ImageFormat  string    `json:"image_format"`
	Warnings     []string  `json:"warnings,omitempty"`
	OCRMatch     *OCRMatch `json:"ocr_match,omitempty"`

	ProcessingTimeSec float64 `json:"processing_time_sec"`

	// Hex encoded copy of the preview, handed to session state.
	PreviewHex string `json:"-"`
}

// HasAnalysis reports whether the analyzer produced a result
func (o *RequestOutcome) HasAnalysis() bool {
	return o.Analysis != nil
}

// OCRMatch compares extracted text against text the caller expected
type OCRMatch struct {
	ExpectedText string  `json:"expected_text"`
	CER          float64 `json:"character_error_rate"`
	WER          float64 `json:"word_error_rate"`
	MatchScore   float64 `json:"match_score"`
}

// SessionImageState is the per-session preview handed to the slider page
type SessionImageState struct {
	Format  string `json:"format"`
	Preview string `json:"preview"`
}

// IsEmpty reports whether nothing has been stored yet
func (s SessionImageState) IsEmpty() bool {
	return s.Format == "" && s.Preview == ""
}
