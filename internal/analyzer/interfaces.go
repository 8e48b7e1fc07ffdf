package analyzer

import (
	"image"

	"github.com/anime-shed/photo-suitability/pkg/models"
)

// Engine is the photo suitability assessment engine. Both operations are pure
// functions of the input bytes and safe for concurrent use.
type Engine interface {
	// Assess runs the full analysis; it fails only with *ImageDecodeError
	Assess(data []byte) (*models.Assessment, error)

	// Validate applies the fast upload pre-check
	Validate(data []byte) (*models.ValidationResult, error)

	// Config returns a copy of the engine configuration
	Config() Config

	// Stats reports the analyzer worker pool counters
	Stats() PoolStats

	// Lifecycle management
	Close() error
}

// MetricsCalculator handles pixel statistics shared by the analyzers
type MetricsCalculator interface {
	ChannelStats(img *image.NRGBA, rect image.Rectangle, withAlpha bool) []models.ChannelStats
	LaplacianVariance(gray *image.Gray) float64
	ResponseVariance(img image.Image, kernel [9]float64) float64
	MedianDeviation(img *image.NRGBA) float64
	ClippingCounts(img *image.NRGBA, clipFraction float64) (over, under int)
	GridBrightness(gray *image.Gray, rows, cols int) []float64
}
