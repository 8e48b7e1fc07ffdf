package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Assessments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "suitability",
		Name:      "assessments_total",
		Help:      "Total number of assessments by result",
	}, []string{"result"})

	RegionFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "suitability",
		Name:      "region_fallbacks_total",
		Help:      "Component analyses that fell back to default scores",
	}, []string{"component"})

	AssessmentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "suitability",
		Name:      "assessment_duration_seconds",
		Help:      "Duration of engine assessments",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	})

	QualityTiers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "suitability",
		Name:      "quality_tier_total",
		Help:      "Assessments by quality tier",
	}, []string{"tier"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "suitability",
		Name:      "cache_lookups_total",
		Help:      "Assessment cache lookups by outcome",
	}, []string{"outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "suitability",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)
