package factory

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/anime-shed/photo-suitability/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{MaxRequestBodySize: 1024}
}

func TestStorageFactory_CreateStorage(t *testing.T) {
	cfg := testConfig()
	cfg.MinIO = config.MinIOConfig{Endpoint: "localhost:9000", Bucket: "photos"}
	f := NewStorageFactory(cfg)

	tests := []struct {
		name          string
		storageType   StorageType
		wantErr       bool
		notConfigured bool
	}{
		{"http", HTTPStorage, false, false},
		{"minio", MinIOStorage, false, false},
		{"azure without credentials", AzureStorage, true, true},
		{"unknown", StorageType("ftp"), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher, err := f.CreateStorage(tt.storageType)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error")
				}
				if errors.Is(err, ErrStorageNotConfigured) != tt.notConfigured {
					t.Errorf("Unexpected error kind: %v", err)
				}
				return
			}
			if err != nil || fetcher == nil {
				t.Errorf("Expected fetcher, got %v", err)
			}
		})
	}
}

func TestAnalyzerFactory_CreateEngine(t *testing.T) {
	f := NewAnalyzerFactory()

	engine, err := f.CreateEngine("", 2)
	if err != nil {
		t.Fatalf("CreateEngine failed: %v", err)
	}
	defer engine.Close()
	if engine.Config().Workers != 2 {
		t.Errorf("Expected 2 workers, got %d", engine.Config().Workers)
	}

	profile := filepath.Join(t.TempDir(), "strict.yaml")
	if err := os.WriteFile(profile, []byte("standards:\n  min_width: 600\n  min_height: 600\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	strict, err := f.CreateEngine(profile, 1)
	if err != nil {
		t.Fatalf("CreateEngine with profile failed: %v", err)
	}
	defer strict.Close()
	if strict.Config().Standards.MinWidth != 600 {
		t.Errorf("Expected profile to apply, got %+v", strict.Config().Standards)
	}

	if _, err := f.CreateEngine(filepath.Join(t.TempDir(), "missing.yaml"), 1); err == nil {
		t.Error("Expected error for missing profile")
	}
}
