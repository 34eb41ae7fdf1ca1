// loop.go: periodic scan loop with single-flight ticks
package scanner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tphakala/cardmatch-go/internal/conf"
	"github.com/tphakala/cardmatch-go/internal/errors"
	"github.com/tphakala/cardmatch-go/internal/extractor"
	"github.com/tphakala/cardmatch-go/internal/fusion"
	"github.com/tphakala/cardmatch-go/internal/imaging"
	"github.com/tphakala/cardmatch-go/internal/index"
	"github.com/tphakala/cardmatch-go/internal/observability"
	"github.com/tphakala/cardmatch-go/internal/ocr"
)

// ScanOutcome is the result of one manual or periodic frame scan.
type ScanOutcome struct {
	Fusion  *fusion.Result
	Quality imaging.Quality
	Reading ocr.Reading
	Canon   *imaging.CanonicalResult
}

// Loop drives the periodic scan cycle. Only one scan is ever in flight: a
// tick that arrives while the previous scan is still running is skipped, not
// queued, so a slow host never builds a backlog.
type Loop struct {
	settings   *conf.Settings
	source     FrameSource
	normalizer *imaging.Normalizer
	encoder    extractor.Encoder
	idx        *index.Index
	reader     *ocr.Reader
	fuser      *fusion.Fuser
	processor  *Processor
	metrics    *observability.Metrics

	scanning atomic.Bool
	paused   atomic.Bool
	wg       sync.WaitGroup
}

// NewLoop assembles the scan pipeline.
func NewLoop(settings *conf.Settings, source FrameSource, encoder extractor.Encoder,
	idx *index.Index, reader *ocr.Reader, processor *Processor,
	metrics *observability.Metrics) *Loop {
	return &Loop{
		settings:   settings,
		source:     source,
		normalizer: imaging.NewNormalizer(&settings.Matcher),
		encoder:    encoder,
		idx:        idx,
		reader:     reader,
		fuser:      fusion.New(&settings.Fusion),
		processor:  processor,
		metrics:    metrics,
	}
}

// Processor returns the confirmation processor driving this loop.
func (l *Loop) Processor() *Processor {
	return l.processor
}

// Run ticks until the context is canceled. It blocks; callers usually run it
// in a goroutine and cancel the context to close the capture session.
func (l *Loop) Run(ctx context.Context) {
	interval := time.Duration(l.settings.Realtime.Interval) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	getLogger().Info("scan loop started",
		"interval_ms", l.settings.Realtime.Interval,
		"window_s", l.settings.Realtime.Window,
		"catalog_size", l.idx.Size())

	for {
		select {
		case <-ctx.Done():
			l.wg.Wait()
			getLogger().Info("scan loop stopped")
			return
		case <-ticker.C:
			if l.paused.Load() {
				continue
			}
			if !l.scanning.CompareAndSwap(false, true) {
				if l.metrics != nil {
					l.metrics.SkippedTicks.Inc()
				}
				continue
			}
			l.wg.Add(1)
			go func() {
				defer l.wg.Done()
				defer l.scanning.Store(false)
				l.tick(ctx)
			}()
		}
	}
}

// tick runs one periodic scan and feeds the result to the processor. A scan
// finishing after cancellation is discarded without observation.
//
// The frame timeout is enforced here, not inside the pipeline: embedding and
// text recognition cannot be interrupted once started, so a slow frame is
// abandoned from the outside. The guard is released, the tick counts as
// failed and the stray call winds down on its own; its late result lands in
// the buffered channel and is dropped.
func (l *Loop) tick(ctx context.Context) {
	start := time.Now()

	scanCtx, cancel := context.WithTimeout(ctx, l.frameTimeout())
	defer cancel()

	type scanResult struct {
		outcome *ScanOutcome
		err     error
	}
	done := make(chan scanResult, 1)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		outcome, err := l.scanOnce(scanCtx)
		done <- scanResult{outcome, err}
	}()

	var outcome *ScanOutcome
	var err error
	select {
	case res := <-done:
		outcome, err = res.outcome, res.err
	case <-scanCtx.Done():
		if ctx.Err() != nil {
			// loop shutdown, not a slow frame
			return
		}
		getLogger().Warn("frame scan exceeded timeout, abandoning",
			"timeout", l.frameTimeout())
		err = errors.New(scanCtx.Err()).
			Component("scanner").
			Category(errors.CategoryTimeout).
			Build()
	}

	if l.metrics != nil {
		l.metrics.ScanDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if err == ErrNoFrame {
			if l.metrics != nil {
				l.metrics.ScansTotal.WithLabelValues("idle").Inc()
			}
			return
		}
		if ctx.Err() == nil {
			getLogger().Debug("scan tick failed", "error", err)
		}
		if l.metrics != nil {
			l.metrics.ScansTotal.WithLabelValues("error").Inc()
		}
		return
	}
	if ctx.Err() != nil {
		// completed after cancellation, discard
		return
	}

	if l.metrics != nil {
		l.metrics.ScansTotal.WithLabelValues("ok").Inc()
	}
	l.processor.Observe(outcome.Fusion, outcome.Quality)
}

// ScanManual performs one immediate scan, bypassing temporal accumulation
// and the quality gate. The periodic loop is paused for its duration, and
// the result is always surfaced to the caller for explicit confirmation,
// never auto-committed.
func (l *Loop) ScanManual(ctx context.Context) (*ScanOutcome, error) {
	l.paused.Store(true)
	defer l.paused.Store(false)

	if !l.scanning.CompareAndSwap(false, true) {
		return nil, errors.Newf("a scan is already in flight").
			Component("scanner").
			Category(errors.CategoryScanLoop).
			Build()
	}
	defer l.scanning.Store(false)

	ctx, cancel := context.WithTimeout(ctx, l.frameTimeout())
	defer cancel()
	return l.scanOnce(ctx)
}

// frameTimeout returns the per-frame processing bound.
func (l *Loop) frameTimeout() time.Duration {
	timeout := secondsToDuration(l.settings.Realtime.FrameTimeout)
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return timeout
}

// scanOnce runs the full pipeline for one frame: capture, normalize, embed,
// search, read text, fuse. The caller bounds ctx with the frame timeout.
func (l *Loop) scanOnce(ctx context.Context) (*ScanOutcome, error) {
	frame, err := l.source.CaptureFrame(ctx)
	if err != nil {
		return nil, errors.New(err).
			Component("scanner").
			Category(errors.CategoryFrameSource).
			Build()
	}
	if frame == nil {
		return nil, ErrNoFrame
	}

	canon := l.normalizer.Normalize(frame)
	if canon.Fallback && l.metrics != nil {
		l.metrics.GeometryFallbacks.Inc()
	}

	quality := imaging.AssessQuality(canon.Image, &l.settings.Realtime.Quality)

	art := imaging.ArtCrop(canon.Image, &l.settings.Matcher.ArtRegion, l.settings.Matcher.EmbedSize)
	embedStart := time.Now()
	embedding, err := l.encoder.Embed(ctx, art)
	if err != nil {
		return nil, err
	}
	if l.metrics != nil {
		l.metrics.EmbedDuration.Observe(time.Since(embedStart).Seconds())
	}

	visual := l.idx.Search(embedding, l.settings.Matcher.TopK)

	var reading ocr.Reading
	var textMatches []ocr.TextMatch
	if l.reader != nil {
		reading = l.reader.Read(ctx, canon.Image)
		if reading.Failed && l.metrics != nil {
			l.metrics.OCRErrors.Inc()
		}
		if !reading.Empty() {
			textMatches = ocr.TopMatches(reading, l.idx.Entries(), l.settings.OCR.TopN)
		}
	}

	fused := l.fuser.Fuse(embedding, visual, textMatches, l.idx)

	return &ScanOutcome{
		Fusion:  fused,
		Quality: quality,
		Reading: reading,
		Canon:   canon,
	}, nil
}
