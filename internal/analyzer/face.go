package analyzer

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/anime-shed/photo-suitability/pkg/models"
)

// Center window assumed to contain the subject, as fractions of the frame
var (
	faceWindow    = fractionRect{x0: 0.20, x1: 0.80, y0: 0.15, y1: 0.85}
	clarityWindow = fractionRect{x0: 0.30, x1: 0.70, y0: 0.20, y1: 0.70}
)

type fractionRect struct {
	x0, x1, y0, y1 float64
}

func (f fractionRect) within(width, height int) image.Rectangle {
	return image.Rect(
		int(f.x0*float64(width)), int(f.y0*float64(height)),
		int(f.x1*float64(width)), int(f.y1*float64(height)),
	)
}

// analyzeFace estimates the subject region from the center crop. Without a
// trained detector the pose, gaze and appearance values are fixed estimates.
func analyzeFace(r *raster, cfg Config, mc MetricsCalculator) models.FaceAnalysis {
	rect := faceWindow.within(r.width(), r.height())
	if rect.Empty() {
		return models.FaceAnalysis{
			Detected: false,
			Error: (&RegionExtractionError{
				Component: componentFace,
				Region:    "center crop",
				Reason:    "window is empty",
			}).Error(),
		}
	}

	h := cfg.Heuristics
	stats := mc.ChannelStats(r.rgba, rect, false)
	centerStd := (stats[0].Std + stats[1].Std + stats[2].Std) / 3

	fa := models.FaceAnalysis{
		Detected:   true,
		Confidence: h.Confidence,
		SizeRatio:  math.Min(0.6, math.Max(0.1, centerStd/100)),
		Position: models.FacePosition{
			X:               0.5,
			Y:               0.45,
			CenterDeviation: 0.05,
			WellPositioned:  true,
		},
		Orientation:           models.FaceOrientation{Facing: "frontal", Score: h.OrientationScore},
		EyeContact:            models.EyeContactEstimate{Likely: true, Score: h.EyeContactScore},
		ExpressionSuitability: models.ExpressionEstimate{Expression: "neutral", Score: h.ExpressionScore},
		ProfessionalAppearance: models.ProfessionalAppearance{
			Attire:   h.AttireScore,
			Grooming: h.GroomingScore,
			Overall:  h.AppearanceScore,
		},
	}

	sub := clarityWindow.within(r.width(), r.height())
	if sub.Empty() {
		fa.ClarityScore = 50
		fa.Error = (&RegionExtractionError{
			Component: componentFace,
			Region:    "clarity window",
			Reason:    "window is empty",
		}).Error()
	} else {
		crop := imaging.Grayscale(imaging.Crop(r.rgba, sub))
		clarity := mc.ResponseVariance(crop, clarityKernel)
		fa.ClarityScore = clampScore(math.Min(100, math.Max(30, clarity/2)))
	}

	fa.SuitabilityScore = faceSuitability(fa, cfg)
	return fa
}

// faceSuitability combines the face estimates into a single score
func faceSuitability(fa models.FaceAnalysis, cfg Config) int {
	if !fa.Detected {
		return 0
	}
	w := cfg.Face
	positionBonus := 50.0
	if fa.Position.WellPositioned {
		positionBonus = 100
	}
	return clampScore(
		w.Confidence*fa.Confidence*100 +
			w.SizeRatio*sizeRatioScore(fa.SizeRatio, cfg.Heuristics) +
			w.Position*positionBonus +
			w.Clarity*float64(fa.ClarityScore) +
			w.Appearance*float64(fa.ProfessionalAppearance.Overall))
}

// sizeRatioScore rewards ratios close to the optimum. Inside the accepted band
// the score stays within [70,100]; outside it decays from 70 towards 20.
func sizeRatioScore(ratio float64, h FaceHeuristics) float64 {
	switch {
	case ratio < h.MinSizeRatio:
		d := h.MinSizeRatio - ratio
		return math.Max(20, 70-d/h.MinSizeRatio*100)
	case ratio > h.MaxSizeRatio:
		d := ratio - h.MaxSizeRatio
		return math.Max(20, 70-d/h.MaxSizeRatio*100)
	}

	span := h.OptimalSizeRatio - h.MinSizeRatio
	if ratio > h.OptimalSizeRatio {
		span = h.MaxSizeRatio - h.OptimalSizeRatio
	}
	if span <= 0 {
		return 100
	}
	return 100 - math.Abs(ratio-h.OptimalSizeRatio)/span*30
}
