package analyzer

import (
	"image"
	"math"
	"runtime"
	"sync"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat"

	"github.com/anime-shed/photo-suitability/pkg/models"
)

// Laplacian kernels used by the sharpness and face clarity measures
var (
	sharpnessKernel = [9]float64{0, -1, 0, -1, 4, -1, 0, -1, 0}
	clarityKernel   = [9]float64{-1, -1, -1, -1, 8, -1, -1, -1, -1}
)

// metricsCalculator implements MetricsCalculator. Pixel sums are accumulated in
// integers per strip so results do not depend on the number of workers.
type metricsCalculator struct {
	workers   int
	slicePool sync.Pool
}

// NewMetricsCalculator creates a new metrics calculator using Gonum
func NewMetricsCalculator(workers int) MetricsCalculator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &metricsCalculator{
		workers: workers,
		slicePool: sync.Pool{
			New: func() interface{} {
				return make([]float64, 0, 1024)
			},
		},
	}
}

// forEachStrip splits [minY, maxY) into horizontal strips processed concurrently.
// fn receives the strip index so callers can store partial results without locking.
func (mc *metricsCalculator) forEachStrip(minY, maxY int, fn func(strip, startY, endY int)) {
	height := maxY - minY
	numWorkers := mc.workers
	if height < numWorkers {
		numWorkers = height
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	rowsPerWorker := (height + numWorkers - 1) / numWorkers // ceil division

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		startY := minY + i*rowsPerWorker
		endY := startY + rowsPerWorker
		if i == numWorkers-1 || endY > maxY {
			endY = maxY
		}
		if startY >= endY {
			continue
		}
		wg.Add(1)
		go func(strip, startY, endY int) {
			defer wg.Done()
			fn(strip, startY, endY)
		}(i, startY, endY)
	}
	wg.Wait()
}

type channelAccumulator struct {
	sum, sumSq [4]uint64
	min, max   [4]uint8
	count      uint64
}

func newChannelAccumulator() channelAccumulator {
	acc := channelAccumulator{}
	for c := 0; c < 4; c++ {
		acc.min[c] = 255
	}
	return acc
}

func (a *channelAccumulator) merge(o channelAccumulator) {
	if o.count == 0 {
		return
	}
	for c := 0; c < 4; c++ {
		a.sum[c] += o.sum[c]
		a.sumSq[c] += o.sumSq[c]
		if o.min[c] < a.min[c] {
			a.min[c] = o.min[c]
		}
		if o.max[c] > a.max[c] {
			a.max[c] = o.max[c]
		}
	}
	a.count += o.count
}

// ChannelStats computes mean/std/min/max of R, G, B (and A when withAlpha) inside rect
func (mc *metricsCalculator) ChannelStats(img *image.NRGBA, rect image.Rectangle, withAlpha bool) []models.ChannelStats {
	rect = rect.Intersect(img.Bounds())
	channels := 3
	if withAlpha {
		channels = 4
	}
	if rect.Empty() {
		return make([]models.ChannelStats, channels)
	}

	partials := make([]channelAccumulator, mc.workers)
	mc.forEachStrip(rect.Min.Y, rect.Max.Y, func(strip, startY, endY int) {
		acc := newChannelAccumulator()
		for y := startY; y < endY; y++ {
			row := img.Pix[img.PixOffset(rect.Min.X, y):img.PixOffset(rect.Max.X-1, y)+4]
			for i := 0; i+3 < len(row); i += 4 {
				for c := 0; c < 4; c++ {
					v := row[i+c]
					acc.sum[c] += uint64(v)
					acc.sumSq[c] += uint64(v) * uint64(v)
					if v < acc.min[c] {
						acc.min[c] = v
					}
					if v > acc.max[c] {
						acc.max[c] = v
					}
				}
				acc.count++
			}
		}
		partials[strip] = acc
	})

	total := newChannelAccumulator()
	for _, p := range partials {
		total.merge(p)
	}

	stats := make([]models.ChannelStats, channels)
	n := float64(total.count)
	for c := 0; c < channels; c++ {
		mean := float64(total.sum[c]) / n
		variance := float64(total.sumSq[c])/n - mean*mean
		if variance < 0 {
			variance = 0
		}
		stats[c] = models.ChannelStats{
			Mean: mean,
			Std:  math.Sqrt(variance),
			Min:  float64(total.min[c]),
			Max:  float64(total.max[c]),
		}
	}
	return stats
}

// LaplacianVariance convolves gray with the sharpness kernel and returns the
// variance of the response map
func (mc *metricsCalculator) LaplacianVariance(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	data := mc.slicePool.Get().([]float64)
	defer func() { mc.slicePool.Put(data[:0]) }()
	if cap(data) < (width-2)*(height-2) {
		data = make([]float64, 0, (width-2)*(height-2))
	}

	k := sharpnessKernel
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			var response float64
			i := 0
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					if k[i] != 0 {
						response += k[i] * float64(gray.GrayAt(x+kx, y+ky).Y)
					}
					i++
				}
			}
			data = append(data, response)
		}
	}

	if len(data) == 0 {
		return 0
	}
	return stat.PopVariance(data, nil)
}

// ResponseVariance convolves img with a 3x3 kernel (clamped to 0-255 like a
// regular image filter) and returns the variance of the first channel
func (mc *metricsCalculator) ResponseVariance(img image.Image, kernel [9]float64) float64 {
	response := imaging.Convolve3x3(img, kernel, nil)
	b := response.Bounds()
	if b.Empty() {
		return 0
	}

	data := mc.slicePool.Get().([]float64)
	defer func() { mc.slicePool.Put(data[:0]) }()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			data = append(data, float64(response.Pix[response.PixOffset(x, y)]))
		}
	}
	return stat.PopVariance(data, nil)
}

// MedianDeviation compares img to its 3x3 median-filtered version and returns
// the average absolute difference per RGB sample
func (mc *metricsCalculator) MedianDeviation(img *image.NRGBA) float64 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return 0
	}

	partials := make([]uint64, mc.workers)
	mc.forEachStrip(bounds.Min.Y, bounds.Max.Y, func(strip, startY, endY int) {
		var window [9]uint8
		var diff uint64
		for y := startY; y < endY; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				center := img.PixOffset(x, y)
				for c := 0; c < 3; c++ {
					n := 0
					for dy := -1; dy <= 1; dy++ {
						yy := clampInt(y+dy, bounds.Min.Y, bounds.Max.Y-1)
						for dx := -1; dx <= 1; dx++ {
							xx := clampInt(x+dx, bounds.Min.X, bounds.Max.X-1)
							window[n] = img.Pix[img.PixOffset(xx, yy)+c]
							n++
						}
					}
					median := median9(window)
					v := img.Pix[center+c]
					if v > median {
						diff += uint64(v - median)
					} else {
						diff += uint64(median - v)
					}
				}
			}
		}
		partials[strip] = diff
	})

	var total uint64
	for _, p := range partials {
		total += p
	}
	return float64(total) / float64(width*height*3)
}

// ClippingCounts returns how many RGB channels have more than clipFraction of
// their samples at or above 250 (over) and at or below 5 (under). With a zero
// fraction a channel clips as soon as its max reaches 250 or its min reaches 5.
func (mc *metricsCalculator) ClippingCounts(img *image.NRGBA, clipFraction float64) (over, under int) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return 0, 0
	}

	type clipCounts struct {
		high, low [3]uint64
	}
	partials := make([]clipCounts, mc.workers)
	mc.forEachStrip(bounds.Min.Y, bounds.Max.Y, func(strip, startY, endY int) {
		var cc clipCounts
		for y := startY; y < endY; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				off := img.PixOffset(x, y)
				for c := 0; c < 3; c++ {
					v := img.Pix[off+c]
					if v >= 250 {
						cc.high[c]++
					} else if v <= 5 {
						cc.low[c]++
					}
				}
			}
		}
		partials[strip] = cc
	})

	var total clipCounts
	for _, p := range partials {
		for c := 0; c < 3; c++ {
			total.high[c] += p.high[c]
			total.low[c] += p.low[c]
		}
	}

	pixels := float64(bounds.Dx() * bounds.Dy())
	for c := 0; c < 3; c++ {
		if float64(total.high[c])/pixels > clipFraction {
			over++
		}
		if float64(total.low[c])/pixels > clipFraction {
			under++
		}
	}
	return over, under
}

// GridBrightness partitions gray into rows x cols cells and returns each cell's mean
func (mc *metricsCalculator) GridBrightness(gray *image.Gray, rows, cols int) []float64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	means := make([]float64, 0, rows*cols)
	for r := 0; r < rows; r++ {
		y0 := bounds.Min.Y + r*height/rows
		y1 := bounds.Min.Y + (r+1)*height/rows
		for c := 0; c < cols; c++ {
			x0 := bounds.Min.X + c*width/cols
			x1 := bounds.Min.X + (c+1)*width/cols
			var sum uint64
			for y := y0; y < y1; y++ {
				row := gray.Pix[gray.PixOffset(x0, y):gray.PixOffset(x1, y)]
				for _, v := range row {
					sum += uint64(v)
				}
			}
			n := (x1 - x0) * (y1 - y0)
			if n == 0 {
				means = append(means, 0)
				continue
			}
			means = append(means, float64(sum)/float64(n))
		}
	}
	return means
}

// median9 returns the median of nine samples using an insertion sort
func median9(w [9]uint8) uint8 {
	for i := 1; i < len(w); i++ {
		v := w[i]
		j := i - 1
		for j >= 0 && w[j] > v {
			w[j+1] = w[j]
			j--
		}
		w[j+1] = v
	}
	return w[4]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
