// normalize.go: canonical card normalization with center-crop fallback
package imaging

import (
	"image"

	"github.com/tphakala/cardmatch-go/internal/conf"
)

// fallbackCoverage is the assumed fraction of the frame the card occupies
// when no quadrilateral is detected.
const fallbackCoverage = 0.75

// CanonicalResult is the output of card normalization. Image is always a
// valid canonical-sized card, even when detection fell back to a center crop.
type CanonicalResult struct {
	Image      *image.RGBA
	Quad       *Quad   // nil when the fallback path was taken
	Confidence float64 // geometry detection confidence in [0,1]
	Fallback   bool
	Message    string // advisory message for degraded results
}

// Normalizer warps detected cards onto a fixed canonical rectangle.
type Normalizer struct {
	width     int
	height    int
	edgeInset float64
}

// NewNormalizer creates a Normalizer from matcher settings.
func NewNormalizer(settings *conf.MatcherSettings) *Normalizer {
	return &Normalizer{
		width:     settings.CanonicalWidth,
		height:    settings.CanonicalHeight,
		edgeInset: settings.EdgeInset,
	}
}

// Normalize detects the card quad in a frame and warps it onto the canonical
// rectangle. Detection failure is not an error: the result degrades to a
// centered crop with a nil quad and zero confidence.
func (n *Normalizer) Normalize(frame *Frame) *CanonicalResult {
	quad, confidence := detectQuad(frame.Image)
	if quad != nil {
		warped, ok := warpQuad(frame.Image, quad.inset(n.edgeInset), n.width, n.height)
		if ok {
			return &CanonicalResult{
				Image:      warped,
				Quad:       quad,
				Confidence: confidence,
			}
		}
		getLogger().Debug("degenerate quad, falling back to center crop",
			"frame_width", frame.Width(),
			"frame_height", frame.Height())
	}

	cropped := centerCrop(frame.Image, fallbackCoverage)
	return &CanonicalResult{
		Image:      resizeRGBA(cropped, n.width, n.height),
		Quad:       nil,
		Confidence: 0,
		Fallback:   true,
		Message:    "no card geometry detected, using center crop",
	}
}

// ArtCrop extracts the fixed art region of a canonical card and resizes it to
// a size x size square for embedding computation. The offsets are fixed
// fractions of the canonical rectangle, not a learned detector.
func ArtCrop(canonical *image.RGBA, region *conf.ArtRegionSettings, size int) *image.RGBA {
	w, h := canonical.Rect.Dx(), canonical.Rect.Dy()
	rect := image.Rect(
		int(float64(w)*region.Left),
		int(float64(h)*region.Top),
		int(float64(w)*region.Right),
		int(float64(h)*region.Bottom),
	)

	crop := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := 0; y < rect.Dy(); y++ {
		srcOff := canonical.PixOffset(rect.Min.X, rect.Min.Y+y)
		dstOff := crop.PixOffset(0, y)
		copy(crop.Pix[dstOff:dstOff+rect.Dx()*4], canonical.Pix[srcOff:srcOff+rect.Dx()*4])
	}
	return resizeRGBA(crop, size, size)
}
