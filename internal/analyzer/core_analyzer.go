package analyzer

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/photo-suitability/internal/logger"
	"github.com/anime-shed/photo-suitability/internal/observability"
	"github.com/anime-shed/photo-suitability/pkg/models"
	"github.com/anime-shed/photo-suitability/pkg/validation"
)

// coreEngine implements Engine and orchestrates all components
type coreEngine struct {
	cfg               Config
	workerPool        *WorkerPool
	metricsCalculator MetricsCalculator
	qualityValidator  *validation.QualityValidator
}

// NewEngine validates cfg and creates an engine with all components
func NewEngine(cfg Config) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.clone()

	workerPool := NewWorkerPool(cfg.Workers)
	workerPool.Start()

	return &coreEngine{
		cfg:               cfg,
		workerPool:        workerPool,
		metricsCalculator: NewMetricsCalculator(cfg.Workers),
		qualityValidator:  validation.NewQualityValidator(uploadRules(cfg)),
	}, nil
}

func uploadRules(cfg Config) validation.UploadRules {
	return validation.UploadRules{
		MaxFileSizeBytes:   cfg.Validation.MaxFileSizeBytes,
		AcceptedFormats:    cfg.Validation.AcceptedFormats,
		MinWidth:           cfg.Standards.MinWidth,
		MinHeight:          cfg.Standards.MinHeight,
		RecommendedWidth:   cfg.Standards.RecommendedWidth,
		RecommendedHeight:  cfg.Standards.RecommendedHeight,
		MaxAspectDeviation: cfg.Validation.MaxAspectDeviation,
	}
}

// Assess decodes data and runs the four analyzers concurrently before aggregating
func (e *coreEngine) Assess(data []byte) (*models.Assessment, error) {
	start := time.Now()

	img, format, err := decodeImage(data, e.cfg.MaxPixels)
	if err != nil {
		return nil, err
	}
	r := newRaster(img)
	md := buildMetadata(data, img, format, r, e.metricsCalculator)

	var (
		res   componentResults
		phash string
	)
	e.workerPool.Run(
		func() { res.technical = analyzeTechnical(r, md, e.cfg, e.metricsCalculator) },
		func() { res.face = analyzeFace(r, e.cfg, e.metricsCalculator) },
		func() { res.background = analyzeBackground(r, e.cfg, e.metricsCalculator) },
		func() { res.lighting = analyzeLighting(r, md, e.cfg, e.metricsCalculator) },
		func() { phash = perceptualHash(r) },
	)
	e.recordFallbacks(res)

	suitability := aggregate(res, e.cfg.Suitability)

	return &models.Assessment{
		AnalyzerVersion:       e.cfg.Version,
		ContentHash:           ContentHash(data),
		PerceptualHash:        phash,
		Metadata:              md,
		TechnicalQuality:      res.technical,
		FaceAnalysis:          res.face,
		BackgroundAnalysis:    res.background,
		LightingAnalysis:      res.lighting,
		Suitability:           suitability,
		ProfessionalReadiness: Readiness(suitability.OverallScore),
		EstimatedSuccessRate:  SuccessRate(suitability.OverallScore),
		RequiredPreprocessing: requiredPreprocessing(res),
		Recommendations:       recommendations(res, suitability.OverallScore),
		ProcessingTimeMs:      time.Since(start).Milliseconds(),
	}, nil
}

// recordFallbacks logs and counts components that substituted default scores
func (e *coreEngine) recordFallbacks(res componentResults) {
	fallbacks := map[string]string{
		componentTechnical:  res.technical.Error,
		componentFace:       res.face.Error,
		componentBackground: res.background.Error,
		componentLighting:   res.lighting.Error,
	}
	for component, msg := range fallbacks {
		if msg == "" {
			continue
		}
		observability.RegionFallbacks.WithLabelValues(component).Inc()
		logger.WithFields(logrus.Fields{
			"component": component,
			"error":     msg,
		}).Warn("Component analysis fell back to default scores")
	}
}

// Validate applies the upload pre-check. Only undecodable input is an error.
func (e *coreEngine) Validate(data []byte) (*models.ValidationResult, error) {
	img, format, err := decodeImage(data, e.cfg.MaxPixels)
	if err != nil {
		return nil, err
	}
	r := newRaster(img)
	md := buildMetadata(data, img, format, r, e.metricsCalculator)

	issues := e.qualityValidator.ValidateUpload(validation.UploadInfo{
		SizeBytes: md.SizeBytes,
		Format:    md.Format,
		Width:     md.Width,
		Height:    md.Height,
	})
	errs, warnings := e.qualityValidator.SplitIssues(issues)

	return &models.ValidationResult{
		Valid:    !e.qualityValidator.HasCriticalIssues(issues),
		Errors:   errs,
		Warnings: warnings,
		Metadata: md,
	}, nil
}

// Config returns a copy of the engine configuration
func (e *coreEngine) Config() Config {
	return e.cfg.clone()
}

func (e *coreEngine) Stats() PoolStats {
	return e.workerPool.GetStats()
}

// Close stops the worker pool
func (e *coreEngine) Close() error {
	e.workerPool.Close()
	return nil
}

// ContentHash is the hex sha256 of the raw input bytes; together with the
// analyzer version it identifies an assessment
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
