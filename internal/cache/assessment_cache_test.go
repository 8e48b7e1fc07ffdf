package cache

import (
	"context"
	"testing"

	"github.com/anime-shed/photo-suitability/pkg/models"
)

func TestKey(t *testing.T) {
	tests := []struct {
		version string
		hash    string
		want    string
	}{
		{"suitability-v1.0.0", "abc123", "assessment:suitability-v1.0.0:abc123"},
		{"v2", "ff", "assessment:v2:ff"},
	}

	for _, tt := range tests {
		if got := Key(tt.version, tt.hash); got != tt.want {
			t.Errorf("Key(%q, %q) = %q, want %q", tt.version, tt.hash, got, tt.want)
		}
	}

	if Key("v1", "abc") == Key("v2", "abc") {
		t.Error("Expected different analyzer versions to produce different keys")
	}
}

func TestNoopCache(t *testing.T) {
	var c AssessmentCache = NoopCache{}
	ctx := context.Background()

	if err := c.Set(ctx, &models.Assessment{ContentHash: "abc"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := c.Get(ctx, "v1", "abc")
	if err != nil || got != nil {
		t.Errorf("Expected a miss, got %v, %v", got, err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestRedisCache_SetRejectsMissingHash(t *testing.T) {
	// No connection is attempted before the hash check
	c := NewRedisCache("127.0.0.1:0", "", 0, 0)
	defer c.Close()

	if err := c.Set(context.Background(), &models.Assessment{}); err == nil {
		t.Error("Expected error for assessment without content hash")
	}
	if err := c.Set(context.Background(), nil); err == nil {
		t.Error("Expected error for nil assessment")
	}
}
