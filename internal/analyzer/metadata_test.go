package analyzer

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/disintegration/imaging"
)

func TestExtractMetadata(t *testing.T) {
	translucent := image.NewNRGBA(image.Rect(0, 0, 200, 100))
	for i := 0; i < len(translucent.Pix); i += 4 {
		translucent.Pix[i], translucent.Pix[i+1], translucent.Pix[i+2], translucent.Pix[i+3] = 10, 20, 30, 128
	}

	gray := image.NewGray(image.Rect(0, 0, 64, 48))
	for i := range gray.Pix {
		gray.Pix[i] = 90
	}

	tests := []struct {
		name           string
		data           []byte
		wantFormat     string
		wantWidth      int
		wantHeight     int
		wantChannels   int
		wantAlpha      bool
		wantColorSpace string
		wantStats      int
	}{
		{
			name:           "png with alpha",
			data:           encodePNG(t, translucent),
			wantFormat:     "png",
			wantWidth:      200,
			wantHeight:     100,
			wantChannels:   4,
			wantAlpha:      true,
			wantColorSpace: "srgb",
			wantStats:      4,
		},
		{
			name:           "grayscale png",
			data:           encodePNG(t, gray),
			wantFormat:     "png",
			wantWidth:      64,
			wantHeight:     48,
			wantChannels:   1,
			wantColorSpace: "b-w",
			wantStats:      3,
		},
		{
			name:           "color jpeg",
			data:           encodeJPEG(t, createGradientImage(120, 80), 85),
			wantFormat:     "jpeg",
			wantWidth:      120,
			wantHeight:     80,
			wantChannels:   3,
			wantColorSpace: "srgb",
			wantStats:      3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md, err := ExtractMetadata(tt.data)
			if err != nil {
				t.Fatalf("ExtractMetadata failed: %v", err)
			}

			if md.Format != tt.wantFormat {
				t.Errorf("Format = %s, want %s", md.Format, tt.wantFormat)
			}
			if md.Width != tt.wantWidth || md.Height != tt.wantHeight {
				t.Errorf("Size = %dx%d, want %dx%d", md.Width, md.Height, tt.wantWidth, tt.wantHeight)
			}
			if md.Channels != tt.wantChannels {
				t.Errorf("Channels = %d, want %d", md.Channels, tt.wantChannels)
			}
			if md.HasAlpha != tt.wantAlpha {
				t.Errorf("HasAlpha = %v, want %v", md.HasAlpha, tt.wantAlpha)
			}
			if md.ColorSpace != tt.wantColorSpace {
				t.Errorf("ColorSpace = %s, want %s", md.ColorSpace, tt.wantColorSpace)
			}
			if len(md.ChannelStats) != tt.wantStats {
				t.Errorf("len(ChannelStats) = %d, want %d", len(md.ChannelStats), tt.wantStats)
			}
			if md.Orientation != 1 {
				t.Errorf("Orientation = %d, want 1 without EXIF", md.Orientation)
			}
			if md.BitDepth != 8 {
				t.Errorf("BitDepth = %d, want 8", md.BitDepth)
			}

			if md.SizeBytes != int64(len(tt.data)) {
				t.Errorf("SizeBytes = %d, want %d", md.SizeBytes, len(tt.data))
			}
			wantMB := float64(len(tt.data)) / 1024 / 1024
			if math.Abs(md.FileSizeMB-wantMB) > 1e-12 {
				t.Errorf("FileSizeMB = %f, want %f", md.FileSizeMB, wantMB)
			}
			if md.PixelDensity != tt.wantWidth*tt.wantHeight {
				t.Errorf("PixelDensity = %d, want %d", md.PixelDensity, tt.wantWidth*tt.wantHeight)
			}
			wantAspect := float64(tt.wantWidth) / float64(tt.wantHeight)
			if md.AspectRatio != wantAspect {
				t.Errorf("AspectRatio = %f, want %f", md.AspectRatio, wantAspect)
			}
		})
	}
}

func TestExtractMetadata_ChannelStats(t *testing.T) {
	data := encodePNG(t, createTestImage(50, 50, color.RGBA{200, 100, 50, 255}))

	md, err := ExtractMetadata(data)
	if err != nil {
		t.Fatalf("ExtractMetadata failed: %v", err)
	}

	want := []float64{200, 100, 50}
	for c, s := range md.ChannelStats {
		if s.Mean != want[c] || s.Std != 0 || s.Min != want[c] || s.Max != want[c] {
			t.Errorf("Channel %d stats %+v, want constant %v", c, s, want[c])
		}
	}
}

func TestExtractMetadata_DecodeError(t *testing.T) {
	inputs := [][]byte{
		nil,
		{},
		[]byte("GIF89a"),
		{0xFF, 0xD8, 0xFF},
	}

	for _, data := range inputs {
		_, err := ExtractMetadata(data)
		var decodeErr *ImageDecodeError
		if !errors.As(err, &decodeErr) {
			t.Errorf("Expected ImageDecodeError for %v, got %v", data, err)
		}
	}
}

func TestPerceptualHash(t *testing.T) {
	a := perceptualHash(newRaster(createGradientImage(64, 64)))
	b := perceptualHash(newRaster(createGradientImage(64, 64)))
	if a == "" {
		t.Fatal("Expected non-empty hash")
	}
	if a != b {
		t.Errorf("Expected identical hashes for identical images, got %s and %s", a, b)
	}
}

func TestPerceptualHash_ScaleInvariant(t *testing.T) {
	large := createGradientImage(1024, 1024)
	small := imaging.Resize(large, 128, 0, imaging.Lanczos)

	a := perceptualHash(newRaster(large))
	b := perceptualHash(newRaster(small))
	if a != b {
		t.Errorf("Expected downscaled gradient to keep its hash, got %s and %s", a, b)
	}
}
