package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// UploadEvent describes one step or outcome of an upload
type UploadEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	Filename       string                 `json:"filename,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of upload event
type EventType string

const (
	// UploadReceived when a submission reaches the service
	UploadReceived EventType = "upload_received"
	// UploadRejected when form validation fails
	UploadRejected EventType = "upload_rejected"
	// ProcessingFailed when decoding or OCR fails
	ProcessingFailed EventType = "processing_failed"
	// NoTextFound when OCR returns only whitespace
	NoTextFound EventType = "no_text_found"
	// AnalysisCompleted when the analyzer returned a result
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when the analyzer call failed
	AnalysisFailed EventType = "analysis_failed"
	// PreviewFailed when the preview could not be encoded
	PreviewFailed EventType = "preview_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event UploadEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event UploadEvent)
}

// LoggingObserver logs upload events
type LoggingObserver struct {
	logger logrus.FieldLogger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger logrus.FieldLogger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles upload events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event UploadEvent) {
	fields := logrus.Fields{
		"event_type":         event.EventType,
		"filename":           event.Filename,
		"processing_time_ms": event.ProcessingTime.Milliseconds(),
		"success":            event.Success,
	}

	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}

	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case UploadReceived:
		entry.Debug("Upload received")
	case UploadRejected:
		entry.Warn("Upload rejected")
	case ProcessingFailed:
		entry.Error("Image processing failed")
	case NoTextFound:
		entry.Info("No text detected in upload")
	case AnalysisCompleted:
		entry.Info("Report analysis completed")
	case AnalysisFailed:
		entry.Error("Report analysis failed")
	case PreviewFailed:
		entry.Warn("Preview encoding failed")
	default:
		entry.Info("Upload event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver counts upload events
type MetricsObserver struct {
	mu                  sync.RWMutex
	counts              map[EventType]int64
	totalProcessingTime time.Duration
	finished            int64
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{counts: make(map[EventType]int64)}
}

// OnEvent handles upload events by collecting counters
func (o *MetricsObserver) OnEvent(ctx context.Context, event UploadEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.counts[event.EventType]++
	switch event.EventType {
	case UploadRejected, ProcessingFailed, NoTextFound, AnalysisCompleted, AnalysisFailed:
		o.finished++
		o.totalProcessingTime += event.ProcessingTime
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current counters
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.finished > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.finished)
	}

	return map[string]interface{}{
		"uploads_received":       o.counts[UploadReceived],
		"uploads_rejected":       o.counts[UploadRejected],
		"processing_failures":    o.counts[ProcessingFailed],
		"no_text_found":          o.counts[NoTextFound],
		"analyses_completed":     o.counts[AnalysisCompleted],
		"analyses_failed":        o.counts[AnalysisFailed],
		"preview_failures":       o.counts[PreviewFailed],
		"avg_processing_time_ms": avgProcessingTime.Milliseconds(),
	}
}

// Count returns the number of events seen of one type
func (o *MetricsObserver) Count(eventType EventType) int64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.counts[eventType]
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	inflight  sync.WaitGroup
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event. Delivery is
// asynchronous; Wait blocks until it has finished.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event UploadEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	// Observers must not hold the request context past the request.
	ctx = context.WithoutCancel(ctx)

	for _, observer := range observers {
		p.inflight.Add(1)
		go func(obs Observer) {
			defer p.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					// Log panic but don't crash the application
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Wait blocks until every delivered event has been handled
func (p *EventPublisher) Wait() {
	p.inflight.Wait()
}
