package analyzer

import (
	"sort"

	"github.com/anime-shed/photo-suitability/pkg/models"
)

var priorityRank = map[string]int{
	models.PriorityCritical: 0,
	models.PriorityHigh:     1,
	models.PriorityMedium:   2,
	models.PriorityLow:      3,
}

// recommendations builds the per-category suggestions, sorted critical first.
// Recommendations of equal priority keep their category order.
func recommendations(res componentResults, overall int) []models.Recommendation {
	var recs []models.Recommendation
	add := func(category, priority, issue, suggestion, impact string) {
		recs = append(recs, models.Recommendation{
			Category:   category,
			Priority:   priority,
			Issue:      issue,
			Suggestion: suggestion,
			Impact:     impact,
		})
	}

	tq := res.technical
	if tq.ResolutionScore < 70 {
		add("technical", models.PriorityHigh,
			"Image resolution is below the minimum standard",
			"Use a photo of at least 1024x1024 pixels taken with a modern camera",
			"Low resolution limits the detail of the generated headshot")
	}
	if tq.SharpnessScore < 40 {
		add("technical", models.PriorityCritical,
			"Image is blurry",
			"Hold the camera steady, tap to focus on the face and avoid digital zoom",
			"Blurry input produces soft, unrealistic facial features")
	} else if tq.SharpnessScore < 70 {
		add("technical", models.PriorityHigh,
			"Image could be sharper",
			"Make sure the face is in focus and use a faster shutter speed",
			"Sharper input improves fine detail such as eyes and hair")
	}
	if tq.NoiseScore < 60 {
		add("technical", models.PriorityMedium,
			"Image has visible noise",
			"Take the photo in better light or lower the camera ISO",
			"Noise can be amplified into skin texture artifacts")
	}
	if tq.CompressionScore < 50 {
		add("technical", models.PriorityLow,
			"Image is heavily compressed",
			"Upload the original file instead of a screenshot or messaging-app copy",
			"Compression artifacts can appear as blocky patches")
	}

	fa := res.face
	if !fa.Detected {
		add("composition", models.PriorityCritical,
			"No face region could be analyzed",
			"Upload a photo with a single person facing the camera",
			"Headshot generation requires a clearly visible face")
	} else {
		if fa.SizeRatio < 0.2 {
			add("composition", models.PriorityHigh,
				"Face appears too small in the frame",
				"Move closer or crop the photo to head and shoulders",
				"Small faces lose identity details during generation")
		}
		if fa.ClarityScore < 50 {
			add("composition", models.PriorityMedium,
				"Facial details are not clear",
				"Make sure the face is well lit and in focus",
				"Unclear features reduce likeness in the result")
		}
	}

	bg := res.background
	switch bg.BackgroundType {
	case models.BackgroundComplex:
		add("background", models.PriorityHigh,
			"Background is busy",
			"Stand in front of a plain wall or neutral backdrop",
			"Busy backgrounds distract from the subject")
	case models.BackgroundModerate:
		add("background", models.PriorityMedium,
			"Background has some clutter",
			"Choose a simpler background with fewer objects",
			"A cleaner background gives a more professional look")
	}
	if bg.ColorPalette.NeutralityScore < 60 {
		add("background", models.PriorityLow,
			"Background color is strongly tinted",
			"Prefer white, gray or muted backgrounds",
			"Strong colors can cast onto skin tones")
	}

	la := res.lighting
	if la.BrightnessScore < 60 {
		add("lighting", models.PriorityHigh,
			"Photo is too dark or too bright",
			"Face a window or use soft, even light",
			"Poor brightness hides facial features")
	}
	if la.ExposureScore < 50 {
		add("lighting", models.PriorityHigh,
			"Highlights or shadows are clipped",
			"Avoid direct sunlight and harsh flash",
			"Clipped areas cannot be recovered during generation")
	}
	if la.ContrastScore < 70 {
		add("lighting", models.PriorityMedium,
			"Contrast is not in the ideal range",
			"Use light that shapes the face without deep shadows",
			"Balanced contrast gives natural depth")
	}
	if la.LightingEvenness < 60 {
		add("lighting", models.PriorityMedium,
			"Lighting is uneven across the photo",
			"Position the light source in front of you rather than to the side",
			"Uneven light creates harsh shadows on one side of the face")
	}

	if overall < 55 {
		add("general", models.PriorityCritical,
			"Photo is unlikely to produce a good headshot",
			"Retake the photo following the suggestions above",
			"Generation budget may be wasted on this photo")
	} else if len(recs) == 0 {
		add("general", models.PriorityLow,
			"Photo meets professional standards",
			"No changes needed",
			"Expect high quality results")
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return priorityRank[recs[i].Priority] < priorityRank[recs[j].Priority]
	})
	return recs
}
