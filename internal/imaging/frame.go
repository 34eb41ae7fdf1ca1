// Package imaging implements image decoding, card geometry detection and
// canonical normalization for the matching pipeline.
package imaging

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"time"

	// Register the codecs for every supported input format. Compressed inputs
	// always go through a real decoder, never through byte sampling.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/tphakala/cardmatch-go/internal/errors"
)

// Frame is a single RGBA capture from a frame source.
type Frame struct {
	Image     *image.RGBA
	Timestamp time.Time
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.Image.Rect.Dx() }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.Image.Rect.Dy() }

// NewFrame wraps an RGBA image into a Frame stamped with the current time.
func NewFrame(img *image.RGBA) *Frame {
	return &Frame{Image: img, Timestamp: time.Now()}
}

// ToRGBA converts any decoded image into *image.RGBA with a zero-based origin.
func ToRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Rect, src, bounds.Min, draw.Src)
	return dst
}

// LoadFrame decodes an image file into a Frame. Unsupported or corrupt files
// fail this single operation with a typed error; callers treat it as a lost
// frame, not a fatal condition.
func LoadFrame(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open image %s: %w", path, err)).
			Component("imaging").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to decode image %s: %w", path, err)).
			Component("imaging").
			Category(errors.CategoryImageDecode).
			Context("path", path).
			Build()
	}

	frame := NewFrame(ToRGBA(img))
	getLogger().Debug("decoded image",
		"path", path,
		"format", format,
		"width", frame.Width(),
		"height", frame.Height())
	return frame, nil
}

// lumaAt returns the luminance of the pixel at (x, y) in [0, 255].
// Uses the standard BT.601 weights; this exact formula is part of the
// cross-host determinism contract and must not change.
func lumaAt(img *image.RGBA, x, y int) float64 {
	i := img.PixOffset(x, y)
	r := float64(img.Pix[i])
	g := float64(img.Pix[i+1])
	b := float64(img.Pix[i+2])
	return 0.299*r + 0.587*g + 0.114*b
}

// grayPlane computes the full luminance plane of an image, row-major.
func grayPlane(img *image.RGBA) []float64 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	plane := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			plane[y*w+x] = lumaAt(img, x, y)
		}
	}
	return plane
}
