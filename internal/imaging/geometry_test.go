package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/cardmatch-go/internal/conf"
)

func testMatcherSettings() *conf.MatcherSettings {
	return &conf.MatcherSettings{
		CanonicalWidth:  500,
		CanonicalHeight: 700,
		EdgeInset:       0.05,
		EmbedSize:       224,
		ArtRegion: conf.ArtRegionSettings{
			Left: 0.07, Right: 0.93, Top: 0.12, Bottom: 0.59,
		},
		TopK: 5,
	}
}

func fillRect(img *image.RGBA, rect image.Rectangle, c color.RGBA) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// cardFrame draws a bright card-shaped rectangle on a dark background.
func cardFrame(frameW, frameH int, card image.Rectangle) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, frameW, frameH))
	fillRect(img, img.Rect, color.RGBA{R: 20, G: 20, B: 25, A: 255})
	fillRect(img, card, color.RGBA{R: 230, G: 225, B: 210, A: 255})
	return img
}

func TestOrderQuad(t *testing.T) {
	t.Parallel()

	tl := Point{X: 10, Y: 10}
	tr := Point{X: 110, Y: 12}
	br := Point{X: 112, Y: 150}
	bl := Point{X: 8, Y: 148}

	// All input permutations must produce the same ordering.
	permutations := [][4]Point{
		{tl, tr, br, bl},
		{br, tl, bl, tr},
		{bl, br, tr, tl},
		{tr, bl, tl, br},
	}
	for _, pts := range permutations {
		q := orderQuad(pts)
		assert.Equal(t, tl, q.TopLeft)
		assert.Equal(t, tr, q.TopRight)
		assert.Equal(t, br, q.BottomRight)
		assert.Equal(t, bl, q.BottomLeft)
	}
}

func TestQuadInset(t *testing.T) {
	t.Parallel()

	q := Quad{
		TopLeft:     Point{X: 0, Y: 0},
		TopRight:    Point{X: 100, Y: 0},
		BottomRight: Point{X: 100, Y: 100},
		BottomLeft:  Point{X: 0, Y: 100},
	}

	in := q.inset(0.1)
	assert.InDelta(t, 5, in.TopLeft.X, 1e-9)
	assert.InDelta(t, 5, in.TopLeft.Y, 1e-9)
	assert.InDelta(t, 95, in.BottomRight.X, 1e-9)
	assert.InDelta(t, 95, in.BottomRight.Y, 1e-9)

	// Full quad area shrinks by (1-f)^2.
	assert.InDelta(t, q.area()*0.81, in.area(), 1e-6)
}

func TestDetectQuadFindsCard(t *testing.T) {
	t.Parallel()

	// A 200x280 card centered in a 400x400 frame: correct aspect, ~35% area.
	frame := cardFrame(400, 400, image.Rect(100, 60, 300, 340))

	quad, confidence := detectQuad(frame)
	require.NotNil(t, quad)
	assert.Greater(t, confidence, 0.0)

	// Corners land within a few pixels of the drawn rectangle.
	assert.InDelta(t, 100, quad.TopLeft.X, 6)
	assert.InDelta(t, 60, quad.TopLeft.Y, 6)
	assert.InDelta(t, 300, quad.BottomRight.X, 6)
	assert.InDelta(t, 340, quad.BottomRight.Y, 6)
}

func TestDetectQuadRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		frame *image.RGBA
	}{
		{
			name:  "featureless frame",
			frame: cardFrame(400, 400, image.Rect(0, 0, 0, 0)),
		},
		{
			name:  "tiny frame",
			frame: cardFrame(16, 16, image.Rect(2, 2, 14, 14)),
		},
		{
			name: "wrong aspect ratio",
			// A wide banner, nowhere near the card aspect.
			frame: cardFrame(400, 400, image.Rect(40, 150, 360, 250)),
		},
		{
			name: "too small a region",
			// Correct aspect but under the minimum area fraction.
			frame: cardFrame(400, 400, image.Rect(180, 174, 220, 230)),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			quad, confidence := detectQuad(tt.frame)
			assert.Nil(t, quad)
			assert.Zero(t, confidence)
		})
	}
}

func TestNormalizeWarpsDetectedCard(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(testMatcherSettings())
	frame := &Frame{Image: cardFrame(400, 400, image.Rect(100, 60, 300, 340))}

	result := n.Normalize(frame)
	require.NotNil(t, result)
	assert.False(t, result.Fallback)
	require.NotNil(t, result.Quad)
	assert.Equal(t, 500, result.Image.Rect.Dx())
	assert.Equal(t, 700, result.Image.Rect.Dy())

	// The canonical center must sample the bright card, not the background.
	r, _, _, _ := result.Image.At(250, 350).RGBA()
	assert.Greater(t, r>>8, uint32(128))
}

func TestNormalizeFallsBackToCenterCrop(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(testMatcherSettings())
	frame := &Frame{Image: cardFrame(400, 400, image.Rect(0, 0, 0, 0))}

	result := n.Normalize(frame)
	require.NotNil(t, result)
	assert.True(t, result.Fallback)
	assert.Nil(t, result.Quad)
	assert.Zero(t, result.Confidence)
	assert.NotEmpty(t, result.Message)

	// Output is always canonical-sized.
	assert.Equal(t, 500, result.Image.Rect.Dx())
	assert.Equal(t, 700, result.Image.Rect.Dy())
}

func TestArtCrop(t *testing.T) {
	t.Parallel()

	canonical := image.NewRGBA(image.Rect(0, 0, 500, 700))
	fillRect(canonical, canonical.Rect, color.RGBA{R: 10, G: 10, B: 10, A: 255})
	// Paint the art region green.
	fillRect(canonical, image.Rect(35, 84, 465, 413), color.RGBA{G: 200, A: 255})

	art := ArtCrop(canonical, &testMatcherSettings().ArtRegion, 224)
	require.Equal(t, 224, art.Rect.Dx())
	require.Equal(t, 224, art.Rect.Dy())

	_, g, _, _ := art.At(112, 112).RGBA()
	assert.Greater(t, g>>8, uint32(128))
}

func TestAssessQuality(t *testing.T) {
	t.Parallel()

	settings := &conf.QualitySettings{
		Enabled:       true,
		MinBrightness: 0.15,
		MaxBrightness: 0.90,
		MinSharpness:  25.0,
	}

	t.Run("dark frame flagged", func(t *testing.T) {
		t.Parallel()
		img := image.NewRGBA(image.Rect(0, 0, 64, 64))
		fillRect(img, img.Rect, color.RGBA{R: 5, G: 5, B: 5, A: 255})
		q := AssessQuality(img, settings)
		assert.False(t, q.OK())
		assert.Contains(t, q.Issues, IssueTooDark)
	})

	t.Run("bright frame flagged", func(t *testing.T) {
		t.Parallel()
		img := image.NewRGBA(image.Rect(0, 0, 64, 64))
		fillRect(img, img.Rect, color.RGBA{R: 250, G: 250, B: 250, A: 255})
		q := AssessQuality(img, settings)
		assert.Contains(t, q.Issues, IssueTooBright)
	})

	t.Run("uniform frame is blurry", func(t *testing.T) {
		t.Parallel()
		img := image.NewRGBA(image.Rect(0, 0, 64, 64))
		fillRect(img, img.Rect, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		q := AssessQuality(img, settings)
		assert.Contains(t, q.Issues, IssueTooBlurry)
	})

	t.Run("textured mid-brightness frame passes", func(t *testing.T) {
		t.Parallel()
		img := image.NewRGBA(image.Rect(0, 0, 64, 64))
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				v := uint8(64 + ((x/4 + y/4)%2)*120)
				img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
			}
		}
		q := AssessQuality(img, settings)
		assert.True(t, q.OK(), "issues: %v", q.Issues)
	})
}
