package ocr

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/cardmatch-go/internal/conf"
)

// fakeEngine returns canned results per pass and counts invocations.
type fakeEngine struct {
	identifier Result
	name       Result
	err        error
	calls      int
}

func (e *fakeEngine) Recognize(_ context.Context, _ []byte, opts Options) (Result, error) {
	e.calls++
	if e.err != nil {
		return Result{}, e.err
	}
	if opts.SingleLine {
		return e.identifier, nil
	}
	return e.name, nil
}

func testOCRSettings() *conf.OCRSettings {
	return &conf.OCRSettings{
		Enabled:     true,
		Language:    "eng",
		TopN:        3,
		CacheTTL:    10,
		MinimumConf: 30,
	}
}

func canonicalTestImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 100, 140))
	for y := 0; y < 140; y++ {
		for x := 0; x < 100; x++ {
			v := uint8((x + y) % 256)
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestReaderIdentifierPass(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{
		identifier: Result{Text: "SV-042\n", Confidence: 85},
	}
	reader := NewReader(engine, testOCRSettings())

	reading := reader.Read(context.Background(), canonicalTestImage())
	require.False(t, reading.Empty())
	assert.Equal(t, "SV-042", reading.Identifier)
	assert.Equal(t, "SV-042", reading.Text)
	assert.InDelta(t, 85, reading.Confidence, 1e-9)
}

func TestReaderFallsBackToNamePass(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{
		identifier: Result{Text: "no match here", Confidence: 20},
		name:       Result{Text: "Storm  Crow", Confidence: 72},
	}
	reader := NewReader(engine, testOCRSettings())

	reading := reader.Read(context.Background(), canonicalTestImage())
	require.False(t, reading.Empty())
	assert.Empty(t, reading.Identifier)
	assert.Equal(t, "Storm Crow", reading.Text)
}

func TestReaderMinimumConfidenceGate(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{
		identifier: Result{Text: "xx", Confidence: 10},
		name:       Result{Text: "noise", Confidence: 10},
	}
	reader := NewReader(engine, testOCRSettings())

	reading := reader.Read(context.Background(), canonicalTestImage())
	assert.True(t, reading.Empty())
}

func TestReaderCachesByBand(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{
		identifier: Result{Text: "SV-042", Confidence: 85},
	}
	reader := NewReader(engine, testOCRSettings())
	img := canonicalTestImage()

	first := reader.Read(context.Background(), img)
	callsAfterFirst := engine.calls
	require.Positive(t, callsAfterFirst)

	second := reader.Read(context.Background(), img)
	assert.Equal(t, first, second)
	assert.Equal(t, callsAfterFirst, engine.calls, "second read must hit the cache")
}

func TestReaderDisabled(t *testing.T) {
	t.Parallel()

	t.Run("nil engine", func(t *testing.T) {
		t.Parallel()
		reader := NewReader(nil, testOCRSettings())
		assert.True(t, reader.Read(context.Background(), canonicalTestImage()).Empty())
	})

	t.Run("disabled settings", func(t *testing.T) {
		t.Parallel()
		settings := testOCRSettings()
		settings.Enabled = false
		engine := &fakeEngine{identifier: Result{Text: "SV-042", Confidence: 85}}
		reader := NewReader(engine, settings)
		assert.True(t, reader.Read(context.Background(), canonicalTestImage()).Empty())
		assert.Zero(t, engine.calls)
	})
}

func TestReaderEngineFailureDegrades(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{err: assert.AnError}
	reader := NewReader(engine, testOCRSettings())

	reading := reader.Read(context.Background(), canonicalTestImage())
	assert.True(t, reading.Empty())
	assert.True(t, reading.Failed)
}
