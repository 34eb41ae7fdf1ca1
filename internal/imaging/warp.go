// warp.go: perspective transform of a detected quad onto the canonical card
package imaging

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// homography is a 3x3 projective transform in row-major order.
type homography [9]float64

// apply maps a point through the homography.
func (h homography) apply(x, y float64) (float64, float64) {
	w := h[6]*x + h[7]*y + h[8]
	if w == 0 {
		return 0, 0
	}
	return (h[0]*x + h[1]*y + h[2]) / w, (h[3]*x + h[4]*y + h[5]) / w
}

// computeHomography solves the projective transform mapping the four source
// points onto the four destination points. Returns false if the system is
// degenerate.
func computeHomography(src, dst [4]Point) (homography, bool) {
	// Build the 8x9 system A*h = 0 with h[8] fixed to 1, reduced to an 8x8
	// linear system solved by Gaussian elimination with partial pivoting.
	var a [8][9]float64
	for i := 0; i < 4; i++ {
		sx, sy := src[i].X, src[i].Y
		dx, dy := dst[i].X, dst[i].Y
		a[2*i] = [9]float64{sx, sy, 1, 0, 0, 0, -dx * sx, -dx * sy, dx}
		a[2*i+1] = [9]float64{0, 0, 0, sx, sy, 1, -dy * sx, -dy * sy, dy}
	}

	for col := 0; col < 8; col++ {
		pivot := col
		for row := col + 1; row < 8; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return homography{}, false
		}
		a[col], a[pivot] = a[pivot], a[col]

		for row := 0; row < 8; row++ {
			if row == col {
				continue
			}
			factor := a[row][col] / a[col][col]
			for k := col; k < 9; k++ {
				a[row][k] -= factor * a[col][k]
			}
		}
	}

	var h homography
	for i := 0; i < 8; i++ {
		h[i] = a[i][8] / a[i][i]
	}
	h[8] = 1
	return h, true
}

// warpQuad perspective-warps the quad region of src onto a width x height
// canonical rectangle using inverse mapping with bilinear sampling.
func warpQuad(src *image.RGBA, quad Quad, width, height int) (*image.RGBA, bool) {
	dstCorners := [4]Point{
		{0, 0},
		{float64(width - 1), 0},
		{float64(width - 1), float64(height - 1)},
		{0, float64(height - 1)},
	}
	srcCorners := [4]Point{quad.TopLeft, quad.TopRight, quad.BottomRight, quad.BottomLeft}

	// Inverse mapping: canonical coordinates back into the source frame.
	inv, ok := computeHomography(dstCorners, srcCorners)
	if !ok {
		return nil, false
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sx, sy := inv.apply(float64(x), float64(y))
			r, g, b, a := sampleBilinear(src, sx, sy)
			i := dst.PixOffset(x, y)
			dst.Pix[i] = r
			dst.Pix[i+1] = g
			dst.Pix[i+2] = b
			dst.Pix[i+3] = a
		}
	}
	return dst, true
}

// sampleBilinear samples src at a fractional position, clamping to the
// image bounds.
func sampleBilinear(src *image.RGBA, x, y float64) (r, g, b, a uint8) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	x = math.Min(math.Max(x, 0), float64(w-1))
	y = math.Min(math.Max(y, 0), float64(h-1))

	x0, y0 := int(x), int(y)
	x1, y1 := x0+1, y0+1
	if x1 >= w {
		x1 = w - 1
	}
	if y1 >= h {
		y1 = h - 1
	}
	fx, fy := x-float64(x0), y-float64(y0)

	blend := func(c00, c10, c01, c11 uint8) uint8 {
		top := float64(c00)*(1-fx) + float64(c10)*fx
		bottom := float64(c01)*(1-fx) + float64(c11)*fx
		v := top*(1-fy) + bottom*fy
		return uint8(math.Round(math.Min(math.Max(v, 0), 255)))
	}

	i00 := src.PixOffset(x0, y0)
	i10 := src.PixOffset(x1, y0)
	i01 := src.PixOffset(x0, y1)
	i11 := src.PixOffset(x1, y1)

	r = blend(src.Pix[i00], src.Pix[i10], src.Pix[i01], src.Pix[i11])
	g = blend(src.Pix[i00+1], src.Pix[i10+1], src.Pix[i01+1], src.Pix[i11+1])
	b = blend(src.Pix[i00+2], src.Pix[i10+2], src.Pix[i01+2], src.Pix[i11+2])
	a = blend(src.Pix[i00+3], src.Pix[i10+3], src.Pix[i01+3], src.Pix[i11+3])
	return r, g, b, a
}

// centerCrop extracts a centered region covering the given fraction of the
// frame, preserving the canonical card aspect ratio.
func centerCrop(src *image.RGBA, fraction float64) *image.RGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()

	cropH := float64(h) * fraction
	cropW := cropH * cardAspect
	if cropW > float64(w)*fraction {
		cropW = float64(w) * fraction
		cropH = cropW / cardAspect
		if cropH > float64(h) {
			cropH = float64(h)
		}
	}

	x0 := (w - int(cropW)) / 2
	y0 := (h - int(cropH)) / 2
	rect := image.Rect(x0, y0, x0+int(cropW), y0+int(cropH))

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	xdraw.Copy(dst, image.Point{}, src, rect, xdraw.Src, nil)
	return dst
}

// resizeRGBA scales src to width x height with bilinear resampling. The x/image
// scaler is pure Go and produces identical pixels on every host.
func resizeRGBA(src *image.RGBA, width, height int) *image.RGBA {
	if src.Rect.Dx() == width && src.Rect.Dy() == height {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.BiLinear.Scale(dst, dst.Rect, src, src.Rect, xdraw.Src, nil)
	return dst
}
