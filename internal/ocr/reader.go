// reader.go: orientation-tolerant card text reading
package ocr

import (
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"regexp"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/tphakala/cardmatch-go/internal/conf"
)

// identifierPattern matches the structured collector identifier printed on
// cards: 2-4 letters, hyphen, 3 digits.
var identifierPattern = regexp.MustCompile(`[A-Z]{2,4}-[0-9]{3}`)

// character sets for the two reading modes
const (
	identifierWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-"
	nameWhitelist       = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-' "
)

// Reading is the best-effort text result for one canonical image.
type Reading struct {
	Text       string  // raw recognized text, trimmed
	Identifier string  // structured identifier if one was found
	Confidence float64 // engine confidence in [0,100]
	Rotated    bool    // true when the 180° orientation won
	Failed     bool    // engine error, as opposed to merely low confidence
}

// Empty reports whether the reading carries no usable signal.
func (r Reading) Empty() bool {
	return r.Text == "" || r.Confidence <= 0
}

// Reader extracts and recognizes the card text band. Reads are cached by a
// hash of the band pixels for a short TTL, since consecutive frames of a
// steady card produce identical bands after binarization.
type Reader struct {
	engine   Engine
	settings *conf.OCRSettings
	cache    *gocache.Cache
}

// NewReader creates a Reader around an engine. A nil engine is allowed and
// produces empty readings, keeping OCR strictly optional.
func NewReader(engine Engine, settings *conf.OCRSettings) *Reader {
	ttl := time.Duration(settings.CacheTTL) * time.Second
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Reader{
		engine:   engine,
		settings: settings,
		cache:    gocache.New(ttl, 2*ttl),
	}
}

// Read recognizes the text band of a canonical card image. It attempts the
// normal orientation and the 180°-rotated variant, keeping whichever yields
// the higher-confidence structured-identifier match. All failures degrade to
// an empty reading.
func (r *Reader) Read(ctx context.Context, canonical *image.RGBA) Reading {
	if r.engine == nil || !r.settings.Enabled {
		return Reading{}
	}

	band := binarize(textBand(canonical))

	key := bandKey(band)
	if cached, ok := r.cache.Get(key); ok {
		return cached.(Reading)
	}

	normal := r.readOrientation(ctx, band, false)
	flipped := r.readOrientation(ctx, rotate180(band), true)

	best := normal
	if betterReading(flipped, normal) {
		best = flipped
	}
	if best.Confidence < r.settings.MinimumConf {
		best = Reading{Failed: best.Failed}
	}

	r.cache.Set(key, best, gocache.DefaultExpiration)
	return best
}

// readOrientation runs the identifier pass and, when no identifier is found,
// a free-text name pass on one orientation.
func (r *Reader) readOrientation(ctx context.Context, band *image.Gray, rotated bool) Reading {
	png, err := encodePNG(band)
	if err != nil {
		getLogger().Debug("failed to encode OCR band", "error", err)
		return Reading{Failed: true}
	}

	idResult, err := r.engine.Recognize(ctx, png, Options{
		Whitelist:  identifierWhitelist,
		SingleLine: true,
	})
	if err != nil {
		getLogger().Debug("identifier recognition failed", "rotated", rotated, "error", err)
	} else if id := identifierPattern.FindString(idResult.Text); id != "" {
		return Reading{
			Text:       trimText(idResult.Text),
			Identifier: id,
			Confidence: idResult.Confidence,
			Rotated:    rotated,
		}
	}

	nameResult, err := r.engine.Recognize(ctx, png, Options{Whitelist: nameWhitelist})
	if err != nil {
		getLogger().Debug("name recognition failed", "rotated", rotated, "error", err)
		return Reading{Failed: true}
	}
	return Reading{
		Text:       trimText(nameResult.Text),
		Confidence: nameResult.Confidence,
		Rotated:    rotated,
	}
}

// betterReading prefers structured identifiers, then higher confidence.
func betterReading(a, b Reading) bool {
	if (a.Identifier != "") != (b.Identifier != "") {
		return a.Identifier != ""
	}
	return a.Confidence > b.Confidence
}

func bandKey(band *image.Gray) string {
	h := fnv.New64a()
	h.Write(band.Pix)
	return fmt.Sprintf("%x", h.Sum64())
}
