package ocr

import (
	"math"
	"strings"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"

	"go-medscan/pkg/models"
)

// Match scores extracted text against the text the caller expected to find.
// Comparison is case-insensitive and ignores whitespace layout.
func Match(expected, extracted string) *models.OCRMatch {
	exp := normalize(expected)
	got := normalize(extracted)

	cer := characterErrorRate(exp, got)
	return &models.OCRMatch{
		ExpectedText: expected,
		CER:          cer,
		WER:          wordErrorRate(exp, got),
		MatchScore:   round2((1 - cer) * 100),
	}
}

func characterErrorRate(expected, extracted string) float64 {
	n := len([]rune(expected))
	if n == 0 {
		if extracted == "" {
			return 0
		}
		return 1
	}
	rate := float64(levenshtein.Distance(expected, extracted)) / float64(n)
	return round2(math.Min(rate, 1))
}

func wordErrorRate(expected, extracted string) float64 {
	ref := strings.Fields(expected)
	if len(ref) == 0 {
		if extracted == "" {
			return 0
		}
		return 1
	}
	if extracted == "" {
		return 1
	}
	rate, _ := wer.WER(ref, strings.Fields(extracted))
	return round2(math.Min(rate, 1))
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
