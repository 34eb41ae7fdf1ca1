// region.go: text band extraction and binarization
package ocr

import (
	"bytes"
	"image"
	"image/png"
)

// The printed name/identifier band sits in a fixed fraction of the canonical
// card directly below the art region.
const (
	bandTop    = 0.59
	bandBottom = 0.72
	bandLeft   = 0.05
	bandRight  = 0.95
)

// textBand crops the name/identifier band from a canonical card image.
func textBand(canonical *image.RGBA) *image.RGBA {
	w, h := canonical.Rect.Dx(), canonical.Rect.Dy()
	rect := image.Rect(
		int(float64(w)*bandLeft),
		int(float64(h)*bandTop),
		int(float64(w)*bandRight),
		int(float64(h)*bandBottom),
	)
	band := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := 0; y < rect.Dy(); y++ {
		srcOff := canonical.PixOffset(rect.Min.X, rect.Min.Y+y)
		dstOff := band.PixOffset(0, y)
		copy(band.Pix[dstOff:dstOff+rect.Dx()*4], canonical.Pix[srcOff:srcOff+rect.Dx()*4])
	}
	return band
}

// binarize converts an RGBA band to a black-and-white image using an
// Otsu-computed threshold, which separates print from card background far
// better than a fixed cut under varying light.
func binarize(band *image.RGBA) *image.Gray {
	w, h := band.Rect.Dx(), band.Rect.Dy()
	gray := image.NewGray(image.Rect(0, 0, w, h))

	var hist [256]int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := band.PixOffset(x, y)
			luma := (299*int(band.Pix[i]) + 587*int(band.Pix[i+1]) + 114*int(band.Pix[i+2])) / 1000
			gray.Pix[y*w+x] = uint8(luma)
			hist[luma]++
		}
	}

	threshold := otsuThreshold(hist[:], w*h)
	for i, v := range gray.Pix {
		if int(v) > threshold {
			gray.Pix[i] = 255
		} else {
			gray.Pix[i] = 0
		}
	}
	return gray
}

// otsuThreshold finds the threshold maximizing between-class variance.
func otsuThreshold(hist []int, total int) int {
	var sum float64
	for v, count := range hist {
		sum += float64(v) * float64(count)
	}

	var sumB, wB float64
	var maxVariance float64
	threshold := 127
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		variance := wB * wF * (mB - mF) * (mB - mF)
		if variance > maxVariance {
			maxVariance = variance
			threshold = t
		}
	}
	return threshold
}

// rotate180 flips an image upside down for the second orientation attempt.
func rotate180(src *image.Gray) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Pix[(h-1-y)*w+(w-1-x)] = src.Pix[y*w+x]
		}
	}
	return dst
}

// encodePNG serializes the binarized band for the engine.
func encodePNG(img *image.Gray) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
