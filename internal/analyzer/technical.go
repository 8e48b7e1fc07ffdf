package analyzer

import (
	"math"

	"github.com/anime-shed/photo-suitability/pkg/models"
)

const (
	componentTechnical  = "technical"
	componentFace       = "face"
	componentBackground = "background"
	componentLighting   = "lighting"
)

// analyzeTechnical scores resolution, sharpness, noise, compression and color accuracy
func analyzeTechnical(r *raster, md models.ImageMetadata, cfg Config, mc MetricsCalculator) models.QualityAssessment {
	qa := models.QualityAssessment{
		ResolutionScore:    resolutionScore(md.Width, md.Height, cfg.Standards),
		NoiseScore:         noiseScore(mc.MedianDeviation(r.rgba)),
		CompressionScore:   compressionScore(md.SizeBytes, md.PixelDensity),
		ColorAccuracyScore: colorAccuracyScore(md.ChannelStats),
	}

	if md.Width < 3 || md.Height < 3 {
		qa.SharpnessScore = 50
		qa.Error = (&RegionExtractionError{
			Component: componentTechnical,
			Region:    "laplacian neighborhood",
			Reason:    "image must be at least 3x3 pixels",
		}).Error()
	} else {
		qa.SharpnessScore = sharpnessScore(mc.LaplacianVariance(r.gray))
	}

	w := cfg.Technical
	qa.OverallTechnicalQuality = clampScore(
		w.Resolution*float64(qa.ResolutionScore) +
			w.Sharpness*float64(qa.SharpnessScore) +
			w.Noise*float64(qa.NoiseScore) +
			w.Compression*float64(qa.CompressionScore) +
			w.ColorAccuracy*float64(qa.ColorAccuracyScore))
	return qa
}

func resolutionScore(width, height int, s QualityStandards) int {
	switch {
	case width >= s.OptimalWidth && height >= s.OptimalHeight:
		return 100
	case width >= s.RecommendedWidth && height >= s.RecommendedHeight:
		return 90
	case width >= s.MinWidth && height >= s.MinHeight:
		return 70
	}
	area := float64(width * height)
	minArea := float64(s.MinWidth * s.MinHeight)
	return clampScore(math.Max(20, area/minArea*60))
}

func sharpnessScore(laplacianVariance float64) int {
	return clampScore(laplacianVariance / 20 * 100)
}

func noiseScore(avgAbsDiff float64) int {
	return clampScore(100 - avgAbsDiff*1.5)
}

// compressionScore estimates encoder quality from the stored bytes per pixel
func compressionScore(sizeBytes int64, pixels int) int {
	if pixels <= 0 {
		return 50
	}
	bpp := float64(sizeBytes) / float64(pixels)
	switch {
	case bpp > 3:
		return 95
	case bpp > 2:
		return 85
	case bpp > 1:
		return 70
	case bpp > 0.5:
		return 50
	default:
		return 25
	}
}

func colorAccuracyScore(stats []models.ChannelStats) int {
	if len(stats) < 3 {
		return 60
	}
	r, g, b := stats[0].Mean, stats[1].Mean, stats[2].Mean
	avg := (r + g + b) / 3
	maxDev := math.Max(math.Abs(r-avg), math.Max(math.Abs(g-avg), math.Abs(b-avg)))
	return clampScore(math.Max(40, 100-maxDev/2))
}

// clampScore rounds v and clamps it to [0,100]
func clampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return clampInt(int(math.Round(v)), 0, 100)
}
