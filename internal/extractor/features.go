// features.go: the deterministic feature blocks
//
// The blocks below are fixed and non-configurable. Their order, sample
// positions and normalization constants are part of the cross-host
// determinism contract: any change invalidates every stored catalog
// embedding. All accumulation is float64 in fixed iteration order with
// float32 storage, and nothing here iterates a map or spawns a goroutine.
package extractor

import (
	"image"
	"math"
)

const (
	colorHistBins    = 8
	lumaHistBins     = 14
	gridCells        = 4 // 4x4 spatial grid
	gradientSamples  = 32
	textureSamples   = 32
	frequencySamples = 48
)

// ComputeFeatures produces the raw 256-dimension vector for a canonical RGBA
// image and L2-normalizes it.
func ComputeFeatures(img *image.RGBA) []float32 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	features := make([]float32, 0, Dim)

	features = appendColorHistogram(features, img, w, h)
	features = appendLuminanceStats(features, img, w, h)
	features = appendSpatialGrid(features, img, w, h)
	features = appendHorizontalGradients(features, img, w, h)
	features = appendLocalTexture(features, img, w, h)
	features = appendFrequencySamples(features, img, w, h)

	// Pad with zeros or truncate to exactly Dim values.
	for len(features) < Dim {
		features = append(features, 0)
	}
	features = features[:Dim]

	return Normalize(features)
}

func pixelAt(img *image.RGBA, x, y int) (r, g, b float64) {
	i := img.PixOffset(x, y)
	return float64(img.Pix[i]), float64(img.Pix[i+1]), float64(img.Pix[i+2])
}

func lumaOf(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

// Block 1: per-channel color histogram, 8 bins per channel, normalized by
// pixel count. 24 values.
func appendColorHistogram(features []float32, img *image.RGBA, w, h int) []float32 {
	var histR, histG, histB [colorHistBins]float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			histR[img.Pix[i]>>5]++
			histG[img.Pix[i+1]>>5]++
			histB[img.Pix[i+2]>>5]++
		}
	}
	n := float64(w * h)
	for _, hist := range [][colorHistBins]float64{histR, histG, histB} {
		for bin := 0; bin < colorHistBins; bin++ {
			features = append(features, float32(hist[bin]/n))
		}
	}
	return features
}

// Block 2: global luminance mean and standard deviation plus a 14-bin
// luminance histogram. 16 values.
func appendLuminanceStats(features []float32, img *image.RGBA, w, h int) []float32 {
	n := float64(w * h)
	var sum, sqSum float64
	var hist [lumaHistBins]float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			luma := lumaOf(pixelAt(img, x, y))
			sum += luma
			sqSum += luma * luma
			bin := int(luma * lumaHistBins / 256)
			if bin >= lumaHistBins {
				bin = lumaHistBins - 1
			}
			hist[bin]++
		}
	}
	mean := sum / n
	variance := sqSum/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	features = append(features, float32(mean/255), float32(math.Sqrt(variance)/255))
	for bin := 0; bin < lumaHistBins; bin++ {
		features = append(features, float32(hist[bin]/n))
	}
	return features
}

// Block 3: 4x4 spatial grid of mean R, G, B and luminance per cell, each
// divided by 255. 64 values.
func appendSpatialGrid(features []float32, img *image.RGBA, w, h int) []float32 {
	for gy := 0; gy < gridCells; gy++ {
		for gx := 0; gx < gridCells; gx++ {
			x0, x1 := gx*w/gridCells, (gx+1)*w/gridCells
			y0, y1 := gy*h/gridCells, (gy+1)*h/gridCells
			var sumR, sumG, sumB, sumL float64
			count := float64((x1 - x0) * (y1 - y0))
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					r, g, b := pixelAt(img, x, y)
					sumR += r
					sumG += g
					sumB += b
					sumL += lumaOf(r, g, b)
				}
			}
			features = append(features,
				float32(sumR/count/255),
				float32(sumG/count/255),
				float32(sumB/count/255),
				float32(sumL/count/255))
		}
	}
	return features
}

// Block 4: 32 horizontal-gradient samples. For evenly spaced scanlines, the
// absolute luminance difference between two points 10px apart, normalized
// by 255. 32 values.
func appendHorizontalGradients(features []float32, img *image.RGBA, w, h int) []float32 {
	const span = 10
	for i := 0; i < gradientSamples; i++ {
		y := (i*h + h/2) / gradientSamples
		if y >= h {
			y = h - 1
		}
		x0 := (w - span) / 2
		if x0 < 0 {
			features = append(features, 0)
			continue
		}
		l0 := lumaOf(pixelAt(img, x0, y))
		l1 := lumaOf(pixelAt(img, x0+span, y))
		features = append(features, float32(math.Abs(l1-l0)/255))
	}
	return features
}

// Block 5: 32 local-texture samples. For an 8x4 grid of fixed-size windows,
// the square root of the local luminance variance, divided by 128. 32 values.
func appendLocalTexture(features []float32, img *image.RGBA, w, h int) []float32 {
	window := w / 20
	if window < 5 {
		window = 5
	}
	const cols, rows = 8, 4
	for gy := 0; gy < rows; gy++ {
		for gx := 0; gx < cols; gx++ {
			x0 := gx * (w - window) / (cols - 1)
			y0 := gy * (h - window) / (rows - 1)
			if x0 < 0 || y0 < 0 || x0+window > w || y0+window > h {
				features = append(features, 0)
				continue
			}
			var sum, sqSum float64
			count := float64(window * window)
			for y := y0; y < y0+window; y++ {
				for x := x0; x < x0+window; x++ {
					luma := lumaOf(pixelAt(img, x, y))
					sum += luma
					sqSum += luma * luma
				}
			}
			mean := sum / count
			variance := sqSum/count - mean*mean
			if variance < 0 {
				variance = 0
			}
			features = append(features, float32(math.Sqrt(variance)/128))
		}
	}
	return features
}

// Block 6: 48 short-range finite-difference samples approximating
// high-frequency content, rescaled into [0,1] via (d1+d2+d3+384)/768.
// 48 values.
func appendFrequencySamples(features []float32, img *image.RGBA, w, h int) []float32 {
	const cols, rows = 8, 6
	for gy := 0; gy < rows; gy++ {
		for gx := 0; gx < cols; gx++ {
			x := gx * (w - 4) / (cols - 1)
			y := gy * (h - 1) / (rows - 1)
			if x < 0 || y < 0 || x+3 >= w || y >= h {
				features = append(features, 0.5)
				continue
			}
			l0 := lumaOf(pixelAt(img, x, y))
			l1 := lumaOf(pixelAt(img, x+1, y))
			l2 := lumaOf(pixelAt(img, x+2, y))
			l3 := lumaOf(pixelAt(img, x+3, y))
			d1 := l1 - l0
			d2 := l2 - l1
			d3 := l3 - l2
			sum := d1 + d2 + d3
			if sum > 384 {
				sum = 384
			} else if sum < -384 {
				sum = -384
			}
			features = append(features, float32((sum+384)/768))
		}
	}
	return features
}
