package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/photo-suitability/internal/observability"
)

// AssessmentEvent represents an assessment lifecycle event
type AssessmentEvent struct {
	ID             string                 `json:"id"`
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	Source         string                 `json:"source,omitempty"`
	ContentHash    string                 `json:"content_hash,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	QualityTier    string                 `json:"quality_tier,omitempty"`
	OverallScore   int                    `json:"overall_score,omitempty"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of assessment event
type EventType string

const (
	// AssessmentStarted when an assessment begins
	AssessmentStarted EventType = "assessment_started"
	// AssessmentCompleted when an assessment finishes successfully
	AssessmentCompleted EventType = "assessment_completed"
	// AssessmentFailed when an assessment fails
	AssessmentFailed EventType = "assessment_failed"
	// ImageFetched when source bytes are successfully fetched
	ImageFetched EventType = "image_fetched"
	// ImageFetchFailed when a source fetch fails
	ImageFetchFailed EventType = "image_fetch_failed"
	// CacheHit when a stored assessment is returned without running the engine
	CacheHit EventType = "cache_hit"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AssessmentEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AssessmentEvent)
}

// LoggingObserver logs assessment events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles assessment events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event AssessmentEvent) {
	fields := logrus.Fields{
		"event_id":           event.ID,
		"event_type":         event.EventType,
		"processing_time_ms": event.ProcessingTime.Milliseconds(),
		"success":            event.Success,
	}
	if event.Source != "" {
		fields["source"] = event.Source
	}
	if event.ContentHash != "" {
		fields["content_hash"] = event.ContentHash
	}
	if event.QualityTier != "" {
		fields["quality_tier"] = event.QualityTier
		fields["overall_score"] = event.OverallScore
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case AssessmentStarted:
		entry.Debug("Assessment started")
	case AssessmentCompleted:
		entry.Info("Assessment completed")
	case AssessmentFailed:
		entry.Error("Assessment failed")
	case ImageFetched:
		entry.Debug("Image fetched successfully")
	case ImageFetchFailed:
		entry.Error("Image fetch failed")
	case CacheHit:
		entry.Info("Assessment served from cache")
	default:
		entry.Info("Assessment event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver keeps in-process counters and feeds the Prometheus collectors
type MetricsObserver struct {
	mu                    sync.RWMutex
	totalAssessments      int64
	successfulAssessments int64
	failedAssessments     int64
	cacheHits             int64
	totalProcessingTime   time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles assessment events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event AssessmentEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case AssessmentStarted:
		o.totalAssessments++
	case AssessmentCompleted:
		o.successfulAssessments++
		o.totalProcessingTime += event.ProcessingTime
		observability.Assessments.WithLabelValues("success").Inc()
		observability.AssessmentDuration.Observe(event.ProcessingTime.Seconds())
		if event.QualityTier != "" {
			observability.QualityTiers.WithLabelValues(event.QualityTier).Inc()
		}
	case AssessmentFailed:
		o.failedAssessments++
		observability.Assessments.WithLabelValues("failure").Inc()
	case CacheHit:
		o.cacheHits++
		observability.Assessments.WithLabelValues("cached").Inc()
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.successfulAssessments > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.successfulAssessments)
	}

	return map[string]interface{}{
		"total_assessments":      o.totalAssessments,
		"successful_assessments": o.successfulAssessments,
		"failed_assessments":     o.failedAssessments,
		"cache_hits":             o.cacheHits,
		"total_processing_time":  o.totalProcessingTime,
		"avg_processing_time":    avgProcessingTime,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	wg        sync.WaitGroup
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

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AssessmentEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	// Observers outlive the request, so they must not see its cancellation
	ctx = context.WithoutCancel(ctx)

	// Notify observers concurrently
	for _, observer := range observers {
		p.wg.Add(1)
		go func(obs Observer) {
			defer p.wg.Done()
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

// Wait blocks until every notification issued so far has been handled
func (p *EventPublisher) Wait() {
	p.wg.Wait()
}
