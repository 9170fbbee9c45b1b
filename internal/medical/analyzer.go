// Package medical turns OCR'd report text into a short advisory reply from a
// hosted chat model.
package medical

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	apperrors "go-medscan/internal/errors"
	"go-medscan/internal/logger"
)

// SystemPrompt is the fixed instruction sent ahead of every report.
const SystemPrompt = "You are a helpful medical assistant. Analyze the medical report and respond with: " +
	"1) Summary of findings 2) Diet advice 3) Health warnings if any. Keep responses concise and clear."

const (
	DefaultModel         = "claude-3-opus-20240229"
	DefaultTemperature   = float32(0.7)
	DefaultMaxTokens     = 1000
	DefaultMaxInputChars = 4000
	DefaultTimeout       = 30 * time.Second

	truncationMarker = "..."
)

// Analyzer produces advisory text for extracted report text
type Analyzer interface {
	Analyze(ctx context.Context, text string) (string, error)
}

// Config carries the credential and call limits for the analyzer
type Config struct {
	APIKey        string
	Model         string
	BaseURL       string
	Temperature   float32
	MaxTokens     int
	MaxInputChars int
	Timeout       time.Duration
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.MaxInputChars <= 0 {
		c.MaxInputChars = DefaultMaxInputChars
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

type chatAnalyzer struct {
	chat model.BaseChatModel
	cfg  Config
}

// NewClaudeAnalyzer builds an analyzer backed by Anthropic Claude. It fails
// immediately when no API key is configured.
func NewClaudeAnalyzer(ctx context.Context, cfg Config) (Analyzer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperrors.ErrMissingAPIKey
	}
	cfg = cfg.withDefaults()

	var baseURL *string
	if cfg.BaseURL != "" {
		baseURL = &cfg.BaseURL
	}
	temperature := cfg.Temperature
	chat, err := claude.NewChatModel(ctx, &claude.Config{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		BaseURL:     baseURL,
		MaxTokens:   cfg.MaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, apperrors.NewConfigurationError("create claude chat model", err)
	}
	return NewAnalyzer(chat, cfg), nil
}

// NewAnalyzer wraps any eino chat model.
func NewAnalyzer(chat model.BaseChatModel, cfg Config) Analyzer {
	return &chatAnalyzer{chat: chat, cfg: cfg.withDefaults()}
}

// Analyze makes a single bounded call to the hosted model. Every transport,
// auth or quota fault comes back as ErrorTypeAnalyzerUnavailable.
func (a *chatAnalyzer) Analyze(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", apperrors.NewValidationError("text to analyze is empty", nil)
	}

	input, truncated := Truncate(text, a.cfg.MaxInputChars)
	log := logger.WithFields(logrus.Fields{
		"model":       a.cfg.Model,
		"input_chars": utf8.RuneCountInString(input),
		"truncated":   truncated,
	})

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.chat.Generate(ctx, []*schema.Message{
		schema.SystemMessage(SystemPrompt),
		schema.UserMessage(input),
	},
		model.WithTemperature(a.cfg.Temperature),
		model.WithMaxTokens(a.cfg.MaxTokens),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("no reply within %s: %w", a.cfg.Timeout, err)
		}
		log.WithError(err).Error("Hosted model call failed")
		return "", apperrors.NewAnalyzerUnavailableError("hosted model call failed", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		log.Error("Hosted model returned an empty reply")
		return "", apperrors.NewAnalyzerUnavailableError("hosted model call failed", errors.New("empty response from model"))
	}

	log.WithField("duration_ms", time.Since(start).Milliseconds()).Debug("Hosted model replied")
	return resp.Content, nil
}

// Truncate caps text at max runes, appending a marker when it cuts.
func Truncate(text string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text, false
	}
	runes := []rune(text)
	return string(runes[:max]) + truncationMarker, true
}
