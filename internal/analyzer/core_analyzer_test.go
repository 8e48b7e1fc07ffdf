package analyzer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math/rand"
	"reflect"
	"sync"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/anime-shed/photo-suitability/pkg/models"
)

// createTestImage creates a simple test image for testing purposes
func createTestImage(width, height int, fillColor color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fillColor)
		}
	}
	return img
}

// createGradientImage creates a gradient test image
func createGradientImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			// Create a gradient from black to white
			intensity := uint8((x + y) * 255 / (width + height))
			img.Set(x, y, color.RGBA{intensity, intensity, intensity, 255})
		}
	}
	return img
}

// createNoiseImage creates a reproducible image of uniform random pixels
func createNoiseImage(width, height int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 255
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatalf("Failed to encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func newTestEngine(t *testing.T) Engine {
	t.Helper()
	engine, err := NewEngine(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}

func TestNewEngine(t *testing.T) {
	engine := newTestEngine(t)
	if engine == nil {
		t.Fatal("Expected non-nil engine")
	}
	if engine.Config().Version != AnalyzerVersion {
		t.Errorf("Expected version %s, got %s", AnalyzerVersion, engine.Config().Version)
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Suitability.Face = 0.5

	if _, err := NewEngine(cfg); err == nil {
		t.Error("Expected error for suitability weights that do not sum to 1")
	}
}

func TestEngine_ConfigIsCopied(t *testing.T) {
	engine := newTestEngine(t)

	cfg := engine.Config()
	cfg.Validation.AcceptedFormats[0] = "bmp"

	if engine.Config().Validation.AcceptedFormats[0] != "jpeg" {
		t.Error("Mutating the returned config must not affect the engine")
	}
}

func TestEngine_Stats(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 3
	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	if _, err := engine.Assess(encodePNG(t, createGradientImage(32, 32))); err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	engine.Close()

	stats := engine.Stats()
	if stats.Workers != 3 {
		t.Errorf("Expected 3 workers, got %d", stats.Workers)
	}
	if stats.TotalJobs != 5 || stats.CompletedJobs != 5 {
		t.Errorf("Expected 5 analyzer tasks for one assessment, got %+v", stats)
	}
}

func TestAssess_FlatGrayImage(t *testing.T) {
	engine := newTestEngine(t)
	data := encodeJPEG(t, createTestImage(1024, 1024, color.RGBA{128, 128, 128, 255}), 90)

	a, err := engine.Assess(data)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}

	tq := a.TechnicalQuality
	if tq.ResolutionScore != 90 && tq.ResolutionScore != 100 {
		t.Errorf("Expected resolution score 90 or 100, got %d", tq.ResolutionScore)
	}
	if tq.SharpnessScore > 10 {
		t.Errorf("Expected near-zero sharpness for a flat image, got %d", tq.SharpnessScore)
	}
	if a.LightingAnalysis.ContrastScore > 30 {
		t.Errorf("Expected low contrast for a flat image, got %d", a.LightingAnalysis.ContrastScore)
	}
	if a.BackgroundAnalysis.BackgroundType != models.BackgroundPlain {
		t.Errorf("Expected plain background, got %s", a.BackgroundAnalysis.BackgroundType)
	}
	if a.Suitability.QualityTier == models.TierExcellent {
		t.Error("A flat test image must not be rated excellent")
	}
	if a.Metadata.Format != "jpeg" {
		t.Errorf("Expected jpeg format, got %s", a.Metadata.Format)
	}
	if len(a.ContentHash) != 64 {
		t.Errorf("Expected sha256 hex content hash, got %q", a.ContentHash)
	}
	if a.PerceptualHash == "" {
		t.Error("Expected perceptual hash to be set")
	}
	if a.ProcessingTimeMs < 0 {
		t.Errorf("Expected non-negative processing time, got %d", a.ProcessingTimeMs)
	}
}

func TestAssess_Deterministic(t *testing.T) {
	engine := newTestEngine(t)
	img := createNoiseImage(300, 400, 7)
	data := encodePNG(t, img)

	first, err := engine.Assess(data)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	second, err := engine.Assess(data)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}

	if first.Suitability.OverallScore != second.Suitability.OverallScore {
		t.Errorf("Overall score differs: %d vs %d", first.Suitability.OverallScore, second.Suitability.OverallScore)
	}
	if first.Suitability.QualityTier != second.Suitability.QualityTier {
		t.Errorf("Quality tier differs: %s vs %s", first.Suitability.QualityTier, second.Suitability.QualityTier)
	}

	first.ProcessingTimeMs, second.ProcessingTimeMs = 0, 0
	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical assessments for identical input bytes")
	}
}

func TestAssess_DeterministicAcrossWorkerCounts(t *testing.T) {
	data := encodePNG(t, createNoiseImage(256, 256, 3))

	var results []*models.Assessment
	for _, workers := range []int{1, 3, 8} {
		cfg := DefaultConfig()
		cfg.Workers = workers
		engine, err := NewEngine(cfg)
		if err != nil {
			t.Fatalf("Failed to create engine: %v", err)
		}
		a, err := engine.Assess(data)
		engine.Close()
		if err != nil {
			t.Fatalf("Assess failed: %v", err)
		}
		a.ProcessingTimeMs = 0
		results = append(results, a)
	}

	for i := 1; i < len(results); i++ {
		if !reflect.DeepEqual(results[0], results[i]) {
			t.Errorf("Assessment with worker set %d differs from the first", i)
		}
	}
}

func TestAssess_ConcurrentCalls(t *testing.T) {
	engine := newTestEngine(t)
	data := encodePNG(t, createGradientImage(200, 200))

	want, err := engine.Assess(data)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := engine.Assess(data)
			if err != nil {
				t.Errorf("Assess failed: %v", err)
				return
			}
			if got.Suitability.OverallScore != want.Suitability.OverallScore {
				t.Errorf("Expected overall %d, got %d", want.Suitability.OverallScore, got.Suitability.OverallScore)
			}
		}()
	}
	wg.Wait()
}

func checkRange(t *testing.T, name string, v int) {
	t.Helper()
	if v < 0 || v > 100 {
		t.Errorf("%s out of range: %d", name, v)
	}
}

func TestAssess_ScoresInRange(t *testing.T) {
	engine := newTestEngine(t)

	inputs := map[string][]byte{
		"gray":     encodePNG(t, createTestImage(500, 500, color.RGBA{128, 128, 128, 255})),
		"black":    encodePNG(t, createTestImage(420, 420, color.RGBA{0, 0, 0, 255})),
		"white":    encodeJPEG(t, createTestImage(420, 420, color.RGBA{255, 255, 255, 255}), 95),
		"gradient": encodePNG(t, createGradientImage(640, 480)),
		"noise":    encodeJPEG(t, createNoiseImage(512, 512, 11), 75),
		"red":      encodePNG(t, createTestImage(400, 400, color.RGBA{255, 0, 0, 255})),
		"tiny":     encodePNG(t, createTestImage(2, 2, color.RGBA{90, 90, 90, 255})),
	}

	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			a, err := engine.Assess(data)
			if err != nil {
				t.Fatalf("Assess failed: %v", err)
			}

			tq := a.TechnicalQuality
			checkRange(t, "resolution_score", tq.ResolutionScore)
			checkRange(t, "sharpness_score", tq.SharpnessScore)
			checkRange(t, "noise_score", tq.NoiseScore)
			checkRange(t, "compression_score", tq.CompressionScore)
			checkRange(t, "color_accuracy_score", tq.ColorAccuracyScore)
			checkRange(t, "overall_technical_quality", tq.OverallTechnicalQuality)
			checkRange(t, "clarity_score", a.FaceAnalysis.ClarityScore)
			checkRange(t, "face suitability", a.FaceAnalysis.SuitabilityScore)
			checkRange(t, "complexity_score", a.BackgroundAnalysis.ComplexityScore)
			checkRange(t, "professional_suitability", a.BackgroundAnalysis.ProfessionalSuitability)
			checkRange(t, "brightness_score", a.LightingAnalysis.BrightnessScore)
			checkRange(t, "lighting_evenness", a.LightingAnalysis.LightingEvenness)
			checkRange(t, "professional_lighting_score", a.LightingAnalysis.ProfessionalLightingScore)
			checkRange(t, "overall_score", a.Suitability.OverallScore)

			lo, hi := 100, 0
			for _, s := range a.Suitability.ComponentScores {
				if s < lo {
					lo = s
				}
				if s > hi {
					hi = s
				}
			}
			if a.Suitability.OverallScore < lo || a.Suitability.OverallScore > hi {
				t.Errorf("Overall %d outside component range [%d,%d]", a.Suitability.OverallScore, lo, hi)
			}
		})
	}
}

func TestAssess_MonotonicDegradation(t *testing.T) {
	engine := newTestEngine(t)

	baseline := createNoiseImage(1024, 1024, 42)
	baselineData := encodePNG(t, baseline)

	small := imaging.Resize(baseline, 512, 512, imaging.Lanczos)
	degradedData := encodeJPEG(t, small, 10)

	base, err := engine.Assess(baselineData)
	if err != nil {
		t.Fatalf("Assess baseline failed: %v", err)
	}
	degraded, err := engine.Assess(degradedData)
	if err != nil {
		t.Fatalf("Assess degraded failed: %v", err)
	}

	if degraded.TechnicalQuality.ResolutionScore > base.TechnicalQuality.ResolutionScore {
		t.Errorf("Resolution score increased after degradation: %d > %d",
			degraded.TechnicalQuality.ResolutionScore, base.TechnicalQuality.ResolutionScore)
	}
	if degraded.TechnicalQuality.CompressionScore > base.TechnicalQuality.CompressionScore {
		t.Errorf("Compression score increased after degradation: %d > %d",
			degraded.TechnicalQuality.CompressionScore, base.TechnicalQuality.CompressionScore)
	}
}

func TestAssess_SmallImageFallsBack(t *testing.T) {
	engine := newTestEngine(t)
	data := encodePNG(t, createTestImage(2, 2, color.RGBA{100, 120, 140, 255}))

	a, err := engine.Assess(data)
	if err != nil {
		t.Fatalf("Region failures must not abort the assessment: %v", err)
	}

	if a.FaceAnalysis.Detected {
		t.Error("Expected no face region on a 2x2 image")
	}
	if a.FaceAnalysis.SuitabilityScore != 0 || a.FaceAnalysis.Error == "" {
		t.Errorf("Expected zero face suitability with an error, got %d %q",
			a.FaceAnalysis.SuitabilityScore, a.FaceAnalysis.Error)
	}
	if a.BackgroundAnalysis.BackgroundType != models.BackgroundUnknown {
		t.Errorf("Expected unknown background, got %s", a.BackgroundAnalysis.BackgroundType)
	}
	if a.BackgroundAnalysis.ProfessionalSuitability != 50 {
		t.Errorf("Expected default background score 50, got %d", a.BackgroundAnalysis.ProfessionalSuitability)
	}
	if a.LightingAnalysis.LightingEvenness != 60 || a.LightingAnalysis.Error == "" {
		t.Errorf("Expected default evenness 60 with an error, got %d %q",
			a.LightingAnalysis.LightingEvenness, a.LightingAnalysis.Error)
	}
	if a.TechnicalQuality.SharpnessScore != 50 || a.TechnicalQuality.Error == "" {
		t.Errorf("Expected default sharpness 50 with an error, got %d %q",
			a.TechnicalQuality.SharpnessScore, a.TechnicalQuality.Error)
	}
}

func TestAssess_CorruptInput(t *testing.T) {
	engine := newTestEngine(t)
	valid := encodeJPEG(t, createGradientImage(64, 64), 90)

	inputs := map[string][]byte{
		"empty":       nil,
		"text":        []byte("this is not an image"),
		"truncated":   valid[:len(valid)/3],
		"huge header": pngHeaderOnly(t, 40000, 40000),
		"zero height": pngHeaderOnly(t, 10, 0),
	}

	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			a, err := engine.Assess(data)
			if a != nil {
				t.Error("Expected nil assessment on decode failure")
			}
			var decodeErr *ImageDecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("Expected ImageDecodeError, got %T: %v", err, err)
			}

			if _, err := engine.Validate(data); !errors.As(err, &decodeErr) {
				t.Errorf("Expected Validate to fail with ImageDecodeError, got %v", err)
			}
		})
	}
}

func TestAssess_PixelLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPixels = 64 * 64
	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	defer engine.Close()

	if _, err := engine.Assess(encodePNG(t, createGradientImage(64, 64))); err != nil {
		t.Errorf("Expected image at the limit to pass, got %v", err)
	}

	_, err = engine.Assess(encodePNG(t, createGradientImage(65, 64)))
	var decodeErr *ImageDecodeError
	if !errors.As(err, &decodeErr) || !errors.Is(err, ErrPixelLimit) {
		t.Errorf("Expected pixel limit decode error, got %v", err)
	}

	if _, err := engine.Validate(pngHeaderOnly(t, 40000, 40000)); !errors.Is(err, ErrPixelLimit) {
		t.Errorf("Expected Validate to reject the declared size, got %v", err)
	}
}

// pngHeaderOnly returns a PNG signature and IHDR chunk declaring the given
// size with no pixel data
func pngHeaderOnly(t *testing.T, width, height uint32) []byte {
	t.Helper()
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // RGBA

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestValidate_Gate(t *testing.T) {
	engine := newTestEngine(t)

	oversized := encodePNG(t, createTestImage(1024, 1024, color.RGBA{128, 128, 128, 255}))
	oversized = append(oversized, make([]byte, 16*1024*1024-len(oversized))...)

	tests := []struct {
		name         string
		data         []byte
		wantValid    bool
		wantErrors   bool
		wantWarnings bool
	}{
		{
			name:       "below minimum resolution",
			data:       encodePNG(t, createTestImage(399, 399, color.RGBA{128, 128, 128, 255})),
			wantValid:  false,
			wantErrors: true,
		},
		{
			name:       "over size limit",
			data:       oversized,
			wantValid:  false,
			wantErrors: true,
		},
		{
			name:         "tall portrait",
			data:         encodePNG(t, createTestImage(600, 1600, color.RGBA{128, 128, 128, 255})),
			wantValid:    true,
			wantWarnings: true,
		},
		{
			name:      "recommended square",
			data:      encodeJPEG(t, createGradientImage(1024, 1024), 90),
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := engine.Validate(tt.data)
			if err != nil {
				t.Fatalf("Validate failed: %v", err)
			}
			if res.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v (errors %v)", res.Valid, tt.wantValid, res.Errors)
			}
			if (len(res.Errors) > 0) != tt.wantErrors {
				t.Errorf("Errors = %v, wantErrors %v", res.Errors, tt.wantErrors)
			}
			if (len(res.Warnings) > 0) != tt.wantWarnings {
				t.Errorf("Warnings = %v, wantWarnings %v", res.Warnings, tt.wantWarnings)
			}
			if res.Metadata.Width == 0 || res.Metadata.Height == 0 {
				t.Error("Expected metadata to be populated")
			}
		})
	}
}

func TestValidate_UnsupportedFormat(t *testing.T) {
	engine := newTestEngine(t)

	// gif decodes but is not an accepted upload format
	var buf bytes.Buffer
	img := image.NewPaletted(image.Rect(0, 0, 500, 500), color.Palette{color.Black, color.White})
	if err := gif.Encode(&buf, img, nil); err != nil {
		t.Fatalf("Failed to encode gif: %v", err)
	}

	res, err := engine.Validate(buf.Bytes())
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if res.Valid {
		t.Error("Expected gif upload to be rejected")
	}
	if res.Metadata.Format != "gif" {
		t.Errorf("Expected gif format, got %s", res.Metadata.Format)
	}
}
