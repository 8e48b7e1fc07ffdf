package analyzer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected default config to be valid, got %v", err)
	}
	if cfg.Version != AnalyzerVersion {
		t.Errorf("Expected version %s, got %s", AnalyzerVersion, cfg.Version)
	}
	if cfg.Standards.MinWidth != 400 || cfg.Standards.RecommendedWidth != 1024 || cfg.Standards.OptimalWidth != 2048 {
		t.Errorf("Unexpected standards %+v", cfg.Standards)
	}
	if cfg.Suitability.Face != 0.35 {
		t.Errorf("Expected face weight 0.35, got %f", cfg.Suitability.Face)
	}
	if cfg.Validation.MaxFileSizeBytes != 15*1024*1024 {
		t.Errorf("Expected 15MB limit, got %d", cfg.Validation.MaxFileSizeBytes)
	}
	if cfg.ClipFraction != 0 {
		t.Errorf("Expected per-sample clipping by default, got fraction %f", cfg.ClipFraction)
	}
	if cfg.MaxPixels != DefaultMaxPixels {
		t.Errorf("Expected max pixels %d, got %d", DefaultMaxPixels, cfg.MaxPixels)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "technical weights",
			mutate:  func(c *Config) { c.Technical.Sharpness = 0.5 },
			wantErr: "technical_weights",
		},
		{
			name:    "lighting weights",
			mutate:  func(c *Config) { c.Lighting.Evenness = 0 },
			wantErr: "lighting_weights",
		},
		{
			name:    "unordered standards",
			mutate:  func(c *Config) { c.Standards.RecommendedWidth = 300 },
			wantErr: "quality standards",
		},
		{
			name:    "size ratios",
			mutate:  func(c *Config) { c.Heuristics.OptimalSizeRatio = 0.9 },
			wantErr: "face size ratios",
		},
		{
			name:    "confidence",
			mutate:  func(c *Config) { c.Heuristics.Confidence = 1.5 },
			wantErr: "face confidence",
		},
		{
			name:    "no formats",
			mutate:  func(c *Config) { c.Validation.AcceptedFormats = nil },
			wantErr: "accepted_formats",
		},
		{
			name:    "clip fraction",
			mutate:  func(c *Config) { c.ClipFraction = 1 },
			wantErr: "clip_fraction",
		},
		{
			name:    "negative clip fraction",
			mutate:  func(c *Config) { c.ClipFraction = -0.1 },
			wantErr: "clip_fraction",
		},
		{
			name:    "max pixels",
			mutate:  func(c *Config) { c.MaxPixels = 0 },
			wantErr: "max_pixels",
		},
		{
			name:   "clip fraction profile",
			mutate: func(c *Config) { c.ClipFraction = 0.01 },
		},
		{
			name:   "within tolerance",
			mutate: func(c *Config) { c.Suitability.Face = 0.3505 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	profile := `
standards:
  min_width: 512
  min_height: 512
  recommended_width: 1024
  recommended_height: 1024
  optimal_width: 2048
  optimal_height: 2048
suitability_weights:
  technical: 0.30
  face: 0.30
  background: 0.25
  lighting: 0.15
`
	if err := os.WriteFile(path, []byte(profile), 0o600); err != nil {
		t.Fatalf("Failed to write profile: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Standards.MinWidth != 512 {
		t.Errorf("Expected overlaid min width 512, got %d", cfg.Standards.MinWidth)
	}
	if cfg.Suitability.Technical != 0.30 {
		t.Errorf("Expected overlaid technical weight 0.30, got %f", cfg.Suitability.Technical)
	}
	// Untouched sections keep their defaults
	if cfg.Technical.Sharpness != 0.30 || cfg.Heuristics.AppearanceScore != 78 {
		t.Errorf("Expected defaults for untouched sections, got %+v %+v", cfg.Technical, cfg.Heuristics)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing profile")
	}

	badYAML := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(badYAML, []byte("standards: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(badYAML); err == nil {
		t.Error("Expected parse error")
	}

	badWeights := filepath.Join(dir, "weights.yaml")
	if err := os.WriteFile(badWeights, []byte("face_weights:\n  clarity: 0.9\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(badWeights); err == nil || !strings.Contains(err.Error(), "face_weights") {
		t.Errorf("Expected face_weights error, got %v", err)
	}
}
