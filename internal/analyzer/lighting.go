package analyzer

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/anime-shed/photo-suitability/pkg/models"
)

const evennessGrid = 4

// analyzeLighting scores brightness, contrast, clipping, balance and evenness
func analyzeLighting(r *raster, md models.ImageMetadata, cfg Config, mc MetricsCalculator) models.LightingAnalysis {
	cs := md.ChannelStats
	mean := (cs[0].Mean + cs[1].Mean + cs[2].Mean) / 3
	std := (cs[0].Std + cs[1].Std + cs[2].Std) / 3

	over, under := mc.ClippingCounts(r.rgba, cfg.ClipFraction)

	la := models.LightingAnalysis{
		BrightnessScore:        brightnessScore(mean),
		ContrastScore:          contrastScore(std),
		ExposureScore:          exposureScore(over, under),
		ShadowHighlightBalance: balanceScore(mean, std),
		ColorTemperature:       colorTemperature(cs[0].Mean, cs[2].Mean),
	}

	if r.width() < evennessGrid || r.height() < evennessGrid {
		la.LightingEvenness = 60
		la.Error = (&RegionExtractionError{
			Component: componentLighting,
			Region:    "4x4 grid",
			Reason:    "image smaller than grid",
		}).Error()
	} else {
		cells := mc.GridBrightness(r.gray, evennessGrid, evennessGrid)
		la.LightingEvenness = clampScore(math.Max(30, 100-math.Sqrt(stat.PopVariance(cells, nil))/2))
	}

	w := cfg.Lighting
	la.ProfessionalLightingScore = clampScore(
		w.Brightness*float64(la.BrightnessScore) +
			w.Contrast*float64(la.ContrastScore) +
			w.Exposure*float64(la.ExposureScore) +
			w.Balance*float64(la.ShadowHighlightBalance) +
			w.Evenness*float64(la.LightingEvenness))
	return la
}

func brightnessScore(mean float64) int {
	return clampScore(math.Max(20, 100-math.Abs(mean-128)/2))
}

func contrastScore(std float64) int {
	switch {
	case std >= 40 && std <= 80:
		return 90
	case std >= 25 && std <= 100:
		return 70
	}
	return clampScore(math.Max(30, 70-math.Abs(std-60)))
}

func exposureScore(over, under int) int {
	switch {
	case over == 0 && under == 0:
		return 95
	case over <= 1 && under <= 1:
		return 75
	}
	return clampScore(math.Max(25, float64(75-15*(over+under))))
}

// balanceScore averages a brightness deviation score and a contrast band score
func balanceScore(mean, std float64) int {
	brightness := math.Max(0, 100-math.Abs(mean-128))
	contrast := 100.0
	switch {
	case std < 30:
		contrast = math.Max(0, 100-2*(30-std))
	case std > 70:
		contrast = math.Max(0, 100-2*(std-70))
	}
	return clampScore((brightness + contrast) / 2)
}

func colorTemperature(redMean, blueMean float64) string {
	if blueMean == 0 {
		if redMean > 0 {
			return models.TemperatureWarm
		}
		return models.TemperatureNeutral
	}
	ratio := redMean / blueMean
	switch {
	case ratio > 1.2:
		return models.TemperatureWarm
	case ratio < 0.8:
		return models.TemperatureCool
	default:
		return models.TemperatureNeutral
	}
}
