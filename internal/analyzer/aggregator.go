package analyzer

import (
	"github.com/anime-shed/photo-suitability/pkg/models"
)

// componentResults are the four analyzer outputs consumed by the aggregator
type componentResults struct {
	technical  models.QualityAssessment
	face       models.FaceAnalysis
	background models.BackgroundAnalysis
	lighting   models.LightingAnalysis
}

// aggregate combines the component scores into the overall suitability score.
// The breakdown is always ordered technical, face, background, lighting.
func aggregate(res componentResults, w SuitabilityWeights) models.SuitabilityScore {
	breakdown := []models.ScoreComponent{
		{Component: componentTechnical, Score: res.technical.OverallTechnicalQuality, Weight: w.Technical},
		{Component: componentFace, Score: res.face.SuitabilityScore, Weight: w.Face},
		{Component: componentBackground, Score: res.background.ProfessionalSuitability, Weight: w.Background},
		{Component: componentLighting, Score: res.lighting.ProfessionalLightingScore, Weight: w.Lighting},
	}

	scores := make(map[string]int, len(breakdown))
	var total float64
	for i := range breakdown {
		breakdown[i].Contribution = float64(breakdown[i].Score) * breakdown[i].Weight
		total += breakdown[i].Contribution
		scores[breakdown[i].Component] = breakdown[i].Score
	}

	overall := clampScore(total)
	return models.SuitabilityScore{
		OverallScore:    overall,
		ComponentScores: scores,
		ScoreBreakdown:  breakdown,
		QualityTier:     QualityTier(overall),
	}
}

// QualityTier buckets an overall score into one of six tiers
func QualityTier(score int) string {
	switch {
	case score >= 90:
		return models.TierExcellent
	case score >= 80:
		return models.TierVeryGood
	case score >= 70:
		return models.TierGood
	case score >= 60:
		return models.TierAcceptable
	case score >= 50:
		return models.TierFair
	default:
		return models.TierPoor
	}
}

// Readiness levels
const (
	ReadinessReady            = "ready"
	ReadinessGood             = "good"
	ReadinessNeedsImprovement = "needs_improvement"
	ReadinessNotRecommended   = "not_recommended"
)

// Readiness classifies how actionable an overall score is
func Readiness(score int) models.ProfessionalReadiness {
	switch {
	case score >= 85:
		return models.ProfessionalReadiness{
			Level:      ReadinessReady,
			Confidence: "high",
			Message:    "Photo is ready for professional headshot generation.",
		}
	case score >= 70:
		return models.ProfessionalReadiness{
			Level:      ReadinessGood,
			Confidence: "medium",
			Message:    "Photo should produce good results; minor improvements possible.",
		}
	case score >= 55:
		return models.ProfessionalReadiness{
			Level:      ReadinessNeedsImprovement,
			Confidence: "low",
			Message:    "Photo needs improvement before generation for reliable results.",
		}
	default:
		return models.ProfessionalReadiness{
			Level:      ReadinessNotRecommended,
			Confidence: "very_low",
			Message:    "Photo is not recommended; please upload a different photo.",
		}
	}
}

// SuccessRate estimates the chance of a good generation from the overall score
func SuccessRate(score int) models.SuccessRate {
	switch {
	case score >= 85:
		return models.SuccessRate{Percentage: 95, Confidence: "very_high"}
	case score >= 70:
		return models.SuccessRate{Percentage: 80, Confidence: "high"}
	case score >= 55:
		return models.SuccessRate{Percentage: 60, Confidence: "medium"}
	default:
		return models.SuccessRate{Percentage: 25, Confidence: "very_low"}
	}
}

// requiredPreprocessing lists corrective transforms from independent threshold checks
func requiredPreprocessing(res componentResults) []models.PreprocessingStep {
	steps := []models.PreprocessingStep{}
	if res.technical.SharpnessScore < 70 {
		steps = append(steps, models.PreprocessingStep{
			Type:     "sharpening",
			Priority: models.PriorityHigh,
			Reason:   "image lacks sharp detail",
		})
	}
	if res.technical.NoiseScore < 60 {
		steps = append(steps, models.PreprocessingStep{
			Type:     "noise_reduction",
			Priority: models.PriorityMedium,
			Reason:   "visible sensor or compression noise",
		})
	}
	if res.face.SizeRatio < 0.2 {
		steps = append(steps, models.PreprocessingStep{
			Type:     "face_enhancement",
			Priority: models.PriorityHigh,
			Reason:   "face region is too small",
		})
	}
	if res.technical.ResolutionScore < 70 {
		steps = append(steps, models.PreprocessingStep{
			Type:     "upscaling",
			Priority: models.PriorityMedium,
			Reason:   "resolution below the minimum standard",
		})
	}
	if res.lighting.ExposureScore < 50 {
		steps = append(steps, models.PreprocessingStep{
			Type:     "exposure_correction",
			Priority: models.PriorityMedium,
			Reason:   "highlights or shadows are clipped",
		})
	}
	return steps
}
