package models

// ChannelStats holds per-channel pixel statistics on the 0-255 scale
type ChannelStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// ImageMetadata describes a decoded image. Created once per assessment.
type ImageMetadata struct {
	Width        int            `json:"width"`
	Height       int            `json:"height"`
	Format       string         `json:"format"`
	SizeBytes    int64          `json:"size_bytes"`
	FileSizeMB   float64        `json:"file_size_mb"`
	AspectRatio  float64        `json:"aspect_ratio"`
	PixelDensity int            `json:"pixel_density"`
	Channels     int            `json:"channels"`
	HasAlpha     bool           `json:"has_alpha"`
	ColorSpace   string         `json:"color_space"`
	BitDepth     int            `json:"bit_depth"`
	Orientation  int            `json:"orientation"`
	ChannelStats []ChannelStats `json:"channel_stats"`
}

// QualityAssessment holds the technical quality sub-scores (0-100)
type QualityAssessment struct {
	ResolutionScore         int    `json:"resolution_score"`
	SharpnessScore          int    `json:"sharpness_score"`
	NoiseScore              int    `json:"noise_score"`
	CompressionScore        int    `json:"compression_score"`
	ColorAccuracyScore      int    `json:"color_accuracy_score"`
	OverallTechnicalQuality int    `json:"overall_technical_quality"`
	Error                   string `json:"error,omitempty"`
}

// FacePosition is the estimated placement of the subject inside the frame
type FacePosition struct {
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	CenterDeviation float64 `json:"center_deviation"`
	WellPositioned  bool    `json:"well_positioned"`
}

// FaceOrientation is a fixed-confidence pose estimate
type FaceOrientation struct {
	Facing string `json:"facing"`
	Score  int    `json:"score"`
}

// EyeContactEstimate is a fixed-confidence gaze estimate
type EyeContactEstimate struct {
	Likely bool `json:"likely"`
	Score  int  `json:"score"`
}

// ExpressionEstimate is a fixed-confidence expression estimate
type ExpressionEstimate struct {
	Expression string `json:"expression"`
	Score      int    `json:"score"`
}

// ProfessionalAppearance is a fixed heuristic bundle
type ProfessionalAppearance struct {
	Attire   int `json:"attire"`
	Grooming int `json:"grooming"`
	Overall  int `json:"overall"`
}

// FaceAnalysis is the output of the face region heuristics. A trained detector
// may replace the heuristics behind the same fields.
type FaceAnalysis struct {
	Detected               bool                   `json:"detected"`
	Confidence             float64                `json:"confidence"`
	SizeRatio              float64                `json:"size_ratio"`
	Position               FacePosition           `json:"position"`
	Orientation            FaceOrientation        `json:"orientation"`
	EyeContact             EyeContactEstimate     `json:"eye_contact_estimate"`
	ExpressionSuitability  ExpressionEstimate     `json:"expression_suitability"`
	ClarityScore           int                    `json:"clarity_score"`
	ProfessionalAppearance ProfessionalAppearance `json:"professional_appearance"`
	SuitabilityScore       int                    `json:"suitability_score"`
	Error                  string                 `json:"error,omitempty"`
}

// Background types
const (
	BackgroundPlain    = "plain"
	BackgroundMinimal  = "minimal"
	BackgroundModerate = "moderate"
	BackgroundComplex  = "complex"
	BackgroundUnknown  = "unknown"
)

// ColorPalette summarizes the average background color
type ColorPalette struct {
	AverageRGB      [3]float64 `json:"average_rgb"`
	Temperature     string     `json:"temperature"`
	NeutralityScore int        `json:"neutrality_score"`
}

// Texture summarizes background pixel variation
type Texture struct {
	Type       string  `json:"type"`
	Variation  float64 `json:"variation"`
	Smoothness int     `json:"smoothness"`
}

// BackgroundAnalysis is the output of the edge-band analysis
type BackgroundAnalysis struct {
	ComplexityScore         int          `json:"complexity_score"`
	ColorUniformity         int          `json:"color_uniformity"`
	DistractionLevel        int          `json:"distraction_level"`
	ProfessionalSuitability int          `json:"professional_suitability"`
	BackgroundType          string       `json:"background_type"`
	ColorPalette            ColorPalette `json:"color_palette"`
	Texture                 Texture      `json:"texture"`
	Error                   string       `json:"error,omitempty"`
}

// Color temperatures
const (
	TemperatureWarm    = "warm"
	TemperatureCool    = "cool"
	TemperatureNeutral = "neutral"
)

// LightingAnalysis is the output of the lighting analyzer
type LightingAnalysis struct {
	BrightnessScore           int    `json:"brightness_score"`
	ContrastScore             int    `json:"contrast_score"`
	ExposureScore             int    `json:"exposure_score"`
	ShadowHighlightBalance    int    `json:"shadow_highlight_balance"`
	ColorTemperature          string `json:"color_temperature"`
	LightingEvenness          int    `json:"lighting_evenness"`
	ProfessionalLightingScore int    `json:"professional_lighting_score"`
	Error                     string `json:"error,omitempty"`
}

// Quality tiers
const (
	TierExcellent  = "excellent"
	TierVeryGood   = "very_good"
	TierGood       = "good"
	TierAcceptable = "acceptable"
	TierFair       = "fair"
	TierPoor       = "poor"
)

// ScoreComponent is one row of the suitability breakdown
type ScoreComponent struct {
	Component    string  `json:"component"`
	Score        int     `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// SuitabilityScore is the weighted combination of the four component scores
type SuitabilityScore struct {
	OverallScore    int              `json:"overall_score"`
	ComponentScores map[string]int   `json:"component_scores"`
	ScoreBreakdown  []ScoreComponent `json:"score_breakdown"`
	QualityTier     string           `json:"quality_tier"`
}

// ProfessionalReadiness is the four-level actionability classification
type ProfessionalReadiness struct {
	Level      string `json:"level"`
	Confidence string `json:"confidence"`
	Message    string `json:"message"`
}

// SuccessRate is the estimated chance of a good generation
type SuccessRate struct {
	Percentage int    `json:"percentage"`
	Confidence string `json:"confidence"`
}

// Preprocessing priorities and recommendation priorities
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// PreprocessingStep is a corrective transform recommended before generation
type PreprocessingStep struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Reason   string `json:"reason"`
}

// Recommendation is an actionable suggestion for the user
type Recommendation struct {
	Category   string `json:"category"`
	Priority   string `json:"priority"`
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion"`
	Impact     string `json:"impact"`
}

// Assessment is the immutable result of one assessment
type Assessment struct {
	AnalyzerVersion       string                `json:"analyzer_version"`
	ContentHash           string                `json:"content_hash"`
	PerceptualHash        string                `json:"perceptual_hash,omitempty"`
	Metadata              ImageMetadata         `json:"metadata"`
	TechnicalQuality      QualityAssessment     `json:"technical_quality"`
	FaceAnalysis          FaceAnalysis          `json:"face_analysis"`
	BackgroundAnalysis    BackgroundAnalysis    `json:"background_analysis"`
	LightingAnalysis      LightingAnalysis      `json:"lighting_analysis"`
	Suitability           SuitabilityScore      `json:"suitability"`
	ProfessionalReadiness ProfessionalReadiness `json:"professional_readiness"`
	EstimatedSuccessRate  SuccessRate           `json:"estimated_success_rate"`
	RequiredPreprocessing []PreprocessingStep   `json:"required_preprocessing"`
	Recommendations       []Recommendation      `json:"recommendations"`
	ProcessingTimeMs      int64                 `json:"processing_time_ms"`
}

// ValidationResult is the outcome of the fast upload pre-check
type ValidationResult struct {
	Valid    bool          `json:"valid"`
	Errors   []string      `json:"errors"`
	Warnings []string      `json:"warnings"`
	Metadata ImageMetadata `json:"metadata"`
}
