package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/photo-suitability/internal/analyzer"
	"github.com/anime-shed/photo-suitability/internal/cache"
	apperrors "github.com/anime-shed/photo-suitability/internal/errors"
	"github.com/anime-shed/photo-suitability/internal/logger"
	"github.com/anime-shed/photo-suitability/internal/observability"
	"github.com/anime-shed/photo-suitability/internal/observer"
	"github.com/anime-shed/photo-suitability/internal/repository"
	"github.com/anime-shed/photo-suitability/internal/storage"
	"github.com/anime-shed/photo-suitability/pkg/models"
)

// AssessmentService runs the engine behind a cache, a deadline and lifecycle events
type AssessmentService interface {
	// Assess scores uploaded image bytes
	Assess(ctx context.Context, data []byte) (*Result, error)

	// Validate applies the fast upload pre-check to image bytes
	Validate(ctx context.Context, data []byte) (*models.ValidationResult, error)

	// AssessSource fetches an http(s), azure:// or minio:// reference and scores it
	AssessSource(ctx context.Context, source string) (*Result, error)

	// EngineStats reports the engine's worker pool counters
	EngineStats() analyzer.PoolStats
}

// Result is an assessment plus whether it came from the cache
type Result struct {
	Assessment *models.Assessment
	Cached     bool
}

// Options tunes the service deadlines
type Options struct {
	AnalysisTimeout   time.Duration
	ImageFetchTimeout time.Duration
}

type assessmentService struct {
	engine  analyzer.Engine
	repo    repository.ImageRepository
	cache   cache.AssessmentCache
	events  observer.Subject
	opts    Options
	version string
}

// NewAssessmentService creates the service; a nil cache disables caching
func NewAssessmentService(
	engine analyzer.Engine,
	repo repository.ImageRepository,
	assessmentCache cache.AssessmentCache,
	events observer.Subject,
	opts Options,
) AssessmentService {
	if assessmentCache == nil {
		assessmentCache = cache.NoopCache{}
	}
	if events == nil {
		events = observer.NewEventPublisher()
	}
	return &assessmentService{
		engine:  engine,
		repo:    repo,
		cache:   assessmentCache,
		events:  events,
		opts:    opts,
		version: engine.Config().Version,
	}
}

func (s *assessmentService) Assess(ctx context.Context, data []byte) (*Result, error) {
	return s.assess(ctx, "", data)
}

func (s *assessmentService) AssessSource(ctx context.Context, source string) (*Result, error) {
	if err := s.repo.ValidateSource(source); err != nil {
		return nil, sourceError(err)
	}

	start := time.Now()
	fetchCtx, cancel := withTimeout(ctx, s.opts.ImageFetchTimeout)
	data, err := s.repo.FetchImage(fetchCtx, source)
	cancel()
	if err != nil {
		appErr := fetchError(err)
		s.publish(ctx, observer.AssessmentEvent{
			EventType:      observer.ImageFetchFailed,
			Source:         source,
			ProcessingTime: time.Since(start),
			ErrorMessage:   appErr.Error(),
		})
		return nil, appErr
	}

	s.publish(ctx, observer.AssessmentEvent{
		EventType:      observer.ImageFetched,
		Source:         source,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata:       map[string]interface{}{"size_bytes": len(data)},
	})

	return s.assess(ctx, source, data)
}

func (s *assessmentService) assess(ctx context.Context, source string, data []byte) (*Result, error) {
	start := time.Now()
	contentHash := analyzer.ContentHash(data)

	if cached := s.lookup(ctx, contentHash); cached != nil {
		s.publish(ctx, observer.AssessmentEvent{
			EventType:    observer.CacheHit,
			Source:       source,
			ContentHash:  contentHash,
			Success:      true,
			QualityTier:  cached.Suitability.QualityTier,
			OverallScore: cached.Suitability.OverallScore,
		})
		return &Result{Assessment: cached, Cached: true}, nil
	}

	s.publish(ctx, observer.AssessmentEvent{
		EventType:   observer.AssessmentStarted,
		Source:      source,
		ContentHash: contentHash,
	})

	assessment, err := runWithDeadline(ctx, s.opts.AnalysisTimeout, func() (*models.Assessment, error) {
		return s.engine.Assess(data)
	})
	if err != nil {
		appErr := engineError(err)
		s.publish(ctx, observer.AssessmentEvent{
			EventType:      observer.AssessmentFailed,
			Source:         source,
			ContentHash:    contentHash,
			ProcessingTime: time.Since(start),
			ErrorMessage:   appErr.Error(),
		})
		return nil, appErr
	}

	if err := s.cache.Set(ctx, assessment); err != nil {
		logger.WithError(err).WithField("content_hash", contentHash).Warn("Failed to store assessment in cache")
	}

	s.publish(ctx, observer.AssessmentEvent{
		EventType:      observer.AssessmentCompleted,
		Source:         source,
		ContentHash:    contentHash,
		ProcessingTime: time.Since(start),
		Success:        true,
		QualityTier:    assessment.Suitability.QualityTier,
		OverallScore:   assessment.Suitability.OverallScore,
		Metadata: map[string]interface{}{
			"readiness_level": assessment.ProfessionalReadiness.Level,
		},
	})

	return &Result{Assessment: assessment}, nil
}

// lookup returns the cached assessment or nil; cache failures count as misses
func (s *assessmentService) lookup(ctx context.Context, contentHash string) *models.Assessment {
	cached, err := s.cache.Get(ctx, s.version, contentHash)
	switch {
	case err != nil:
		observability.CacheLookups.WithLabelValues("error").Inc()
		logger.WithError(err).WithField("content_hash", contentHash).Warn("Assessment cache lookup failed")
		return nil
	case cached == nil:
		observability.CacheLookups.WithLabelValues("miss").Inc()
		return nil
	default:
		observability.CacheLookups.WithLabelValues("hit").Inc()
		return cached
	}
}

func (s *assessmentService) Validate(ctx context.Context, data []byte) (*models.ValidationResult, error) {
	result, err := runWithDeadline(ctx, s.opts.AnalysisTimeout, func() (*models.ValidationResult, error) {
		return s.engine.Validate(data)
	})
	if err != nil {
		return nil, engineError(err)
	}

	logger.WithFields(logrus.Fields{
		"valid":    result.Valid,
		"errors":   len(result.Errors),
		"warnings": len(result.Warnings),
		"format":   result.Metadata.Format,
	}).Debug("Upload validated")

	return result, nil
}

func (s *assessmentService) EngineStats() analyzer.PoolStats {
	return s.engine.Stats()
}

func (s *assessmentService) publish(ctx context.Context, event observer.AssessmentEvent) {
	event.ID = uuid.NewString()
	event.Timestamp = time.Now().UTC()
	s.events.NotifyObservers(ctx, event)
}

// runWithDeadline runs fn in its own goroutine and stops waiting when ctx or
// the timeout expires. The engine call itself is not interruptible and
// finishes in the background.
func runWithDeadline[T any](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn()
		done <- outcome{value: v, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// engineError maps engine and deadline failures onto application errors
func engineError(err error) *apperrors.AppError {
	var decodeErr *analyzer.ImageDecodeError
	switch {
	case errors.As(err, &decodeErr):
		return apperrors.NewDecodeError("image could not be decoded", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("assessment timed out", err)
	case errors.Is(err, context.Canceled):
		return apperrors.NewProcessingError("assessment canceled", err)
	default:
		return apperrors.NewInternalError("assessment failed", err)
	}
}

// sourceError maps reference validation failures onto application errors
func sourceError(err error) *apperrors.AppError {
	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}
	return apperrors.NewValidationError("invalid image source", err)
}

// fetchError maps fetch failures onto application errors
func fetchError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("image fetch timed out", err)
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.NewNotFoundError("image not found", err)
	case errors.Is(err, storage.ErrTooLarge):
		return apperrors.NewValidationError("image exceeds size limit", err)
	case errors.Is(err, repository.ErrSourceNotSupported):
		return apperrors.NewValidationError("image source not supported", err)
	default:
		if appErr, ok := apperrors.As(err); ok {
			return appErr
		}
		return apperrors.NewNetworkError("failed to fetch image", err)
	}
}
