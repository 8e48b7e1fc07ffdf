package analyzer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/bep/imagemeta"
	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/anime-shed/photo-suitability/pkg/models"
)

const (
	bytesPerMB = 1024 * 1024

	// hashThumbSide bounds the raster edge handed to the perceptual hasher
	hashThumbSide = 256
)

// raster is the decoded pixel data shared read-only by all analyzers.
// Both images have bounds starting at (0,0).
type raster struct {
	rgba *image.NRGBA
	gray *image.Gray
}

func (r *raster) width() int  { return r.rgba.Bounds().Dx() }
func (r *raster) height() int { return r.rgba.Bounds().Dy() }

// ErrPixelLimit is wrapped by ImageDecodeError when the header declares more
// pixels than the engine will allocate
var ErrPixelLimit = errors.New("image exceeds pixel limit")

// decodeImage decodes any registered raster format (jpeg, png, gif, webp).
// The header is read first so that a declared size above maxPixels is
// rejected before the decoder allocates the raster.
func decodeImage(data []byte, maxPixels int64) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", &ImageDecodeError{Cause: errors.New("empty buffer")}
	}

	hdr, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", &ImageDecodeError{Cause: err}
	}
	if hdr.Width <= 0 || hdr.Height <= 0 {
		return nil, "", &ImageDecodeError{Cause: errors.New("image has no pixels")}
	}
	if maxPixels > 0 && int64(hdr.Width)*int64(hdr.Height) > maxPixels {
		return nil, "", &ImageDecodeError{
			Cause: fmt.Errorf("%w: %dx%d is above %d pixels", ErrPixelLimit, hdr.Width, hdr.Height, maxPixels),
		}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", &ImageDecodeError{Cause: err}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", &ImageDecodeError{Cause: errors.New("image has no pixels")}
	}
	return img, format, nil
}

func newRaster(img image.Image) *raster {
	rgba := imaging.Clone(img)
	gray := image.NewGray(rgba.Bounds())
	draw.Draw(gray, gray.Bounds(), rgba, image.Point{}, draw.Src)
	return &raster{rgba: rgba, gray: gray}
}

// pixelLayout reports channels, alpha presence, color space and bit depth of the decoded image
func pixelLayout(img image.Image) (channels int, hasAlpha bool, colorSpace string, bitDepth int) {
	opaque := true
	if o, ok := img.(interface{ Opaque() bool }); ok {
		opaque = o.Opaque()
	}

	switch img.(type) {
	case *image.Gray:
		return 1, false, "b-w", 8
	case *image.Gray16:
		return 1, false, "b-w", 16
	case *image.CMYK:
		return 4, false, "cmyk", 8
	case *image.NRGBA64, *image.RGBA64:
		if !opaque {
			return 4, true, "srgb", 16
		}
		return 3, false, "srgb", 16
	case *image.NRGBA, *image.RGBA, *image.Paletted:
		if !opaque {
			return 4, true, "srgb", 8
		}
		return 3, false, "srgb", 8
	default:
		return 3, false, "srgb", 8
	}
}

// buildMetadata assembles ImageMetadata from the decoded raster and the raw bytes
func buildMetadata(data []byte, img image.Image, format string, r *raster, mc MetricsCalculator) models.ImageMetadata {
	width, height := r.width(), r.height()
	channels, hasAlpha, colorSpace, bitDepth := pixelLayout(img)

	orientation, exifColorSpace := readEXIF(data)
	if exifColorSpace != "" {
		colorSpace = exifColorSpace
	}

	return models.ImageMetadata{
		Width:        width,
		Height:       height,
		Format:       format,
		SizeBytes:    int64(len(data)),
		FileSizeMB:   float64(len(data)) / bytesPerMB,
		AspectRatio:  float64(width) / float64(height),
		PixelDensity: width * height,
		Channels:     channels,
		HasAlpha:     hasAlpha,
		ColorSpace:   colorSpace,
		BitDepth:     bitDepth,
		Orientation:  orientation,
		ChannelStats: mc.ChannelStats(r.rgba, r.rgba.Bounds(), hasAlpha),
	}
}

// ExtractMetadata decodes data and returns its metadata, applying the
// default pixel limit
func ExtractMetadata(data []byte) (models.ImageMetadata, error) {
	img, format, err := decodeImage(data, DefaultMaxPixels)
	if err != nil {
		return models.ImageMetadata{}, err
	}
	r := newRaster(img)
	return buildMetadata(data, img, format, r, NewMetricsCalculator(0)), nil
}

// readEXIF returns the EXIF orientation (1 when absent) and a color space
// name when the EXIF ColorSpace tag is present. Missing or broken EXIF data
// is not an error.
func readEXIF(data []byte) (orientation int, colorSpace string) {
	orientation = 1
	if len(data) == 0 {
		return orientation, ""
	}

	_, _ = imagemeta.Decode(imagemeta.Options{
		R:       bytes.NewReader(data),
		Sources: imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return ti.Tag == "Orientation" || ti.Tag == "ColorSpace"
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			v, ok := tagInt(ti.Value)
			if !ok {
				return nil
			}
			switch ti.Tag {
			case "Orientation":
				if v >= 1 && v <= 8 {
					orientation = v
				}
			case "ColorSpace":
				switch v {
				case 1:
					colorSpace = "srgb"
				case 0xFFFF:
					colorSpace = "uncalibrated"
				}
			}
			return nil
		},
	})
	return orientation, colorSpace
}

func tagInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case []uint16:
		if len(n) > 0 {
			return int(n[0]), true
		}
	}
	return 0, false
}

// perceptualHash returns the difference hash of the raster, or "" if hashing fails
func perceptualHash(r *raster) string {
	var src image.Image = r.rgba
	if w, h := r.width(), r.height(); w > hashThumbSide || h > hashThumbSide {
		tw, th := hashThumbSide, hashThumbSide
		if w >= h {
			th = max(1, h*hashThumbSide/w)
		} else {
			tw = max(1, w*hashThumbSide/h)
		}
		thumb := image.NewNRGBA(image.Rect(0, 0, tw, th))
		xdraw.ApproxBiLinear.Scale(thumb, thumb.Bounds(), r.rgba, r.rgba.Bounds(), xdraw.Src, nil)
		src = thumb
	}
	hash, err := goimagehash.DifferenceHash(src)
	if err != nil {
		return ""
	}
	return hash.ToString()
}
