package analyzer

import (
	"image"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/anime-shed/photo-suitability/pkg/models"
)

// bandDepth is the fraction of the frame taken by each edge band
const bandDepth = 0.2

// edgeBands returns the top, bottom, left and right bands of a width x height frame
func edgeBands(width, height int) []image.Rectangle {
	bh := int(float64(height) * bandDepth)
	bw := int(float64(width) * bandDepth)
	return []image.Rectangle{
		image.Rect(0, 0, width, bh),
		image.Rect(0, height-bh, width, height),
		image.Rect(0, 0, bw, height),
		image.Rect(width-bw, 0, width, height),
	}
}

// analyzeBackground scores the four edge bands of the frame
func analyzeBackground(r *raster, cfg Config, mc MetricsCalculator) models.BackgroundAnalysis {
	bands := edgeBands(r.width(), r.height())
	for _, b := range bands {
		if b.Empty() {
			return backgroundFallback(&RegionExtractionError{
				Component: componentBackground,
				Region:    "edge band",
				Reason:    "image too small for 20% bands",
			})
		}
	}

	bandStd := make([]float64, len(bands))
	bandBrightness := make([]float64, len(bands))
	var avgRGB [3]float64
	for i, b := range bands {
		stats := mc.ChannelStats(r.rgba, b, false)
		bandStd[i] = (stats[0].Std + stats[1].Std + stats[2].Std) / 3
		bandBrightness[i] = (stats[0].Mean + stats[1].Mean + stats[2].Mean) / 3
		for c := 0; c < 3; c++ {
			avgRGB[c] += stats[c].Mean / float64(len(bands))
		}
	}

	avgStd := stat.Mean(bandStd, nil)
	var distraction float64
	for _, s := range bandStd {
		distraction += math.Min(100, s*2)
	}
	distraction /= float64(len(bandStd))

	ba := models.BackgroundAnalysis{
		ComplexityScore:  clampScore(100 - avgStd/2),
		ColorUniformity:  clampScore(math.Max(40, 100-stat.PopVariance(bandBrightness, nil)/5)),
		DistractionLevel: clampScore(100 - distraction),
		BackgroundType:   backgroundType(avgStd),
		ColorPalette:     colorPalette(avgRGB),
		Texture:          texture(avgStd),
	}

	w := cfg.Background
	ba.ProfessionalSuitability = clampScore(
		w.Complexity*float64(ba.ComplexityScore) +
			w.Uniformity*float64(ba.ColorUniformity) +
			w.Distraction*float64(ba.DistractionLevel) +
			w.Neutrality*float64(ba.ColorPalette.NeutralityScore))
	return ba
}

func backgroundFallback(err error) models.BackgroundAnalysis {
	return models.BackgroundAnalysis{
		ComplexityScore:         50,
		ColorUniformity:         50,
		DistractionLevel:        50,
		ProfessionalSuitability: 50,
		BackgroundType:          models.BackgroundUnknown,
		ColorPalette: models.ColorPalette{
			Temperature:     models.TemperatureNeutral,
			NeutralityScore: 50,
		},
		Texture: models.Texture{Type: "unknown", Smoothness: 50},
		Error:   err.Error(),
	}
}

func backgroundType(avgStd float64) string {
	switch {
	case avgStd < 20:
		return models.BackgroundPlain
	case avgStd < 40:
		return models.BackgroundMinimal
	case avgStd < 60:
		return models.BackgroundModerate
	default:
		return models.BackgroundComplex
	}
}

func colorPalette(rgb [3]float64) models.ColorPalette {
	temperature := models.TemperatureNeutral
	switch {
	case rgb[0] > rgb[2]+30:
		temperature = models.TemperatureWarm
	case rgb[2] > rgb[0]+30:
		temperature = models.TemperatureCool
	}

	avg := (rgb[0] + rgb[1] + rgb[2]) / 3
	var maxDev float64
	for _, v := range rgb {
		maxDev = math.Max(maxDev, math.Abs(v-avg))
	}
	return models.ColorPalette{
		AverageRGB:      rgb,
		Temperature:     temperature,
		NeutralityScore: clampScore(math.Max(40, 100-maxDev*2)),
	}
}

func texture(avgStd float64) models.Texture {
	kind := "coarse"
	switch {
	case avgStd < 15:
		kind = "smooth"
	case avgStd < 40:
		kind = "fine"
	}
	return models.Texture{
		Type:       kind,
		Variation:  avgStd,
		Smoothness: clampScore(100 - avgStd*2),
	}
}
