package analyzer

import (
	"fmt"
	"math"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/anime-shed/photo-suitability/pkg/validation"
)

// AnalyzerVersion tags assessments so cached results are invalidated when scoring changes
const AnalyzerVersion = "suitability-v1.0.0"

// QualityStandards are the resolution tiers used by the technical analyzer and validation
type QualityStandards struct {
	MinWidth          int `yaml:"min_width"`
	MinHeight         int `yaml:"min_height"`
	RecommendedWidth  int `yaml:"recommended_width"`
	RecommendedHeight int `yaml:"recommended_height"`
	OptimalWidth      int `yaml:"optimal_width"`
	OptimalHeight     int `yaml:"optimal_height"`
}

// TechnicalWeights combine the technical sub-scores
type TechnicalWeights struct {
	Resolution    float64 `yaml:"resolution"`
	Sharpness     float64 `yaml:"sharpness"`
	Noise         float64 `yaml:"noise"`
	Compression   float64 `yaml:"compression"`
	ColorAccuracy float64 `yaml:"color_accuracy"`
}

// FaceWeights combine the face heuristics into the face suitability score
type FaceWeights struct {
	Confidence float64 `yaml:"confidence"`
	SizeRatio  float64 `yaml:"size_ratio"`
	Position   float64 `yaml:"position"`
	Clarity    float64 `yaml:"clarity"`
	Appearance float64 `yaml:"appearance"`
}

// FaceHeuristics hold the fixed estimates used in place of a trained detector
type FaceHeuristics struct {
	Confidence       float64 `yaml:"confidence"`
	OptimalSizeRatio float64 `yaml:"optimal_size_ratio"`
	MinSizeRatio     float64 `yaml:"min_size_ratio"`
	MaxSizeRatio     float64 `yaml:"max_size_ratio"`
	OrientationScore int     `yaml:"orientation_score"`
	EyeContactScore  int     `yaml:"eye_contact_score"`
	ExpressionScore  int     `yaml:"expression_score"`
	AttireScore      int     `yaml:"attire_score"`
	GroomingScore    int     `yaml:"grooming_score"`
	AppearanceScore  int     `yaml:"appearance_score"`
}

// BackgroundWeights combine the background sub-scores
type BackgroundWeights struct {
	Complexity  float64 `yaml:"complexity"`
	Uniformity  float64 `yaml:"uniformity"`
	Distraction float64 `yaml:"distraction"`
	Neutrality  float64 `yaml:"neutrality"`
}

// LightingWeights combine the lighting sub-scores
type LightingWeights struct {
	Brightness float64 `yaml:"brightness"`
	Contrast   float64 `yaml:"contrast"`
	Exposure   float64 `yaml:"exposure"`
	Balance    float64 `yaml:"balance"`
	Evenness   float64 `yaml:"evenness"`
}

// SuitabilityWeights combine the four component scores into the overall score
type SuitabilityWeights struct {
	Technical  float64 `yaml:"technical"`
	Face       float64 `yaml:"face"`
	Background float64 `yaml:"background"`
	Lighting   float64 `yaml:"lighting"`
}

// ValidationLimits drive the fast upload pre-check
type ValidationLimits struct {
	MaxFileSizeBytes   int64    `yaml:"max_file_size_bytes"`
	AcceptedFormats    []string `yaml:"accepted_formats"`
	MaxAspectDeviation float64  `yaml:"max_aspect_deviation"`
}

// Config is the immutable engine configuration. It is copied into the engine
// at construction and never mutated afterwards.
type Config struct {
	Version     string             `yaml:"version"`
	Standards   QualityStandards   `yaml:"standards"`
	Technical   TechnicalWeights   `yaml:"technical_weights"`
	Face        FaceWeights        `yaml:"face_weights"`
	Heuristics  FaceHeuristics     `yaml:"face_heuristics"`
	Background  BackgroundWeights  `yaml:"background_weights"`
	Lighting    LightingWeights    `yaml:"lighting_weights"`
	Suitability SuitabilityWeights `yaml:"suitability_weights"`
	Validation  ValidationLimits   `yaml:"validation"`
	Workers     int                `yaml:"workers"`

	// ClipFraction is the share of a channel's samples that must sit at
	// >=250 or <=5 before the channel counts as clipped. Zero means any
	// single sample clips the channel.
	ClipFraction float64 `yaml:"clip_fraction"`

	// MaxPixels caps the declared width*height accepted by the decoder
	MaxPixels int64 `yaml:"max_pixels"`
}

// DefaultMaxPixels admits a 50 megapixel frame
const DefaultMaxPixels = 50_000_000

// DefaultConfig returns the standard headshot profile
func DefaultConfig() Config {
	upload := validation.DefaultUploadRules()
	return Config{
		Version: AnalyzerVersion,
		Standards: QualityStandards{
			MinWidth:          400,
			MinHeight:         400,
			RecommendedWidth:  1024,
			RecommendedHeight: 1024,
			OptimalWidth:      2048,
			OptimalHeight:     2048,
		},
		Technical: TechnicalWeights{
			Resolution:    0.25,
			Sharpness:     0.30,
			Noise:         0.20,
			Compression:   0.15,
			ColorAccuracy: 0.10,
		},
		Face: FaceWeights{
			Confidence: 0.20,
			SizeRatio:  0.20,
			Position:   0.15,
			Clarity:    0.25,
			Appearance: 0.20,
		},
		Heuristics: FaceHeuristics{
			Confidence:       0.85,
			OptimalSizeRatio: 0.35,
			MinSizeRatio:     0.2,
			MaxSizeRatio:     0.6,
			OrientationScore: 85,
			EyeContactScore:  80,
			ExpressionScore:  82,
			AttireScore:      75,
			GroomingScore:    80,
			AppearanceScore:  78,
		},
		Background: BackgroundWeights{
			Complexity:  0.30,
			Uniformity:  0.25,
			Distraction: 0.25,
			Neutrality:  0.20,
		},
		Lighting: LightingWeights{
			Brightness: 0.25,
			Contrast:   0.25,
			Exposure:   0.20,
			Balance:    0.20,
			Evenness:   0.10,
		},
		Suitability: SuitabilityWeights{
			Technical:  0.25,
			Face:       0.35,
			Background: 0.25,
			Lighting:   0.15,
		},
		Validation: ValidationLimits{
			MaxFileSizeBytes:   upload.MaxFileSizeBytes,
			AcceptedFormats:    upload.AcceptedFormats,
			MaxAspectDeviation: upload.MaxAspectDeviation,
		},
		Workers:   runtime.NumCPU(),
		MaxPixels: DefaultMaxPixels,
	}
}

// LoadConfig overlays a YAML profile onto DefaultConfig
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read analyzer profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse analyzer profile: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

const weightTolerance = 0.001

// Validate checks that every weight set sums to one and limits are sane
func (c Config) Validate() error {
	sums := map[string]float64{
		"technical_weights": c.Technical.Resolution + c.Technical.Sharpness + c.Technical.Noise +
			c.Technical.Compression + c.Technical.ColorAccuracy,
		"face_weights": c.Face.Confidence + c.Face.SizeRatio + c.Face.Position +
			c.Face.Clarity + c.Face.Appearance,
		"background_weights": c.Background.Complexity + c.Background.Uniformity +
			c.Background.Distraction + c.Background.Neutrality,
		"lighting_weights": c.Lighting.Brightness + c.Lighting.Contrast + c.Lighting.Exposure +
			c.Lighting.Balance + c.Lighting.Evenness,
		"suitability_weights": c.Suitability.Technical + c.Suitability.Face +
			c.Suitability.Background + c.Suitability.Lighting,
	}
	for name, sum := range sums {
		if math.Abs(sum-1) > weightTolerance {
			return fmt.Errorf("%s must sum to 1 (got %.3f)", name, sum)
		}
	}

	s := c.Standards
	if s.MinWidth <= 0 || s.MinHeight <= 0 ||
		s.RecommendedWidth < s.MinWidth || s.RecommendedHeight < s.MinHeight ||
		s.OptimalWidth < s.RecommendedWidth || s.OptimalHeight < s.RecommendedHeight {
		return fmt.Errorf("quality standards must be positive and ordered min <= recommended <= optimal")
	}

	h := c.Heuristics
	if h.MinSizeRatio <= 0 || h.MinSizeRatio >= h.MaxSizeRatio ||
		h.OptimalSizeRatio < h.MinSizeRatio || h.OptimalSizeRatio > h.MaxSizeRatio {
		return fmt.Errorf("face size ratios must satisfy 0 < min <= optimal <= max")
	}
	if h.Confidence < 0 || h.Confidence > 1 {
		return fmt.Errorf("face confidence must be within [0,1] (got %.2f)", h.Confidence)
	}

	if c.Validation.MaxFileSizeBytes <= 0 {
		return fmt.Errorf("max_file_size_bytes must be > 0 (got %d)", c.Validation.MaxFileSizeBytes)
	}
	if len(c.Validation.AcceptedFormats) == 0 {
		return fmt.Errorf("accepted_formats cannot be empty")
	}
	if c.ClipFraction < 0 || c.ClipFraction >= 1 {
		return fmt.Errorf("clip_fraction must be within [0,1) (got %.3f)", c.ClipFraction)
	}
	if c.MaxPixels <= 0 {
		return fmt.Errorf("max_pixels must be > 0 (got %d)", c.MaxPixels)
	}
	return nil
}

// clone returns a copy that shares no slices with the receiver
func (c Config) clone() Config {
	out := c
	out.Validation.AcceptedFormats = append([]string(nil), c.Validation.AcceptedFormats...)
	return out
}
