// Package ocr extracts printed card text as an optional matching signal.
// The engine is pluggable; recognition failure or an unavailable engine
// degrades to an empty zero-confidence reading, never an error that stops
// the scan loop.
package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/tphakala/cardmatch-go/internal/errors"
)

// Result is one raw engine reading. Confidence is in [0,100].
type Result struct {
	Text       string
	Confidence float64
}

// Options restrict the engine for a specific reading mode.
type Options struct {
	Whitelist  string // allowed characters, empty for the engine default
	SingleLine bool   // single-line page segmentation for identifier search
}

// Engine recognizes text from a PNG-encoded binarized image.
type Engine interface {
	Recognize(ctx context.Context, png []byte, opts Options) (Result, error)
}

// TesseractEngine runs recognition through the tesseract library. A fresh
// client is created per call; gosseract clients are not safe for concurrent
// reuse and creation is cheap next to recognition itself.
type TesseractEngine struct {
	language     string
	tessdataPath string
}

// NewTesseractEngine creates an engine for the given language.
func NewTesseractEngine(language, tessdataPath string) *TesseractEngine {
	if language == "" {
		language = "eng"
	}
	return &TesseractEngine{language: language, tessdataPath: tessdataPath}
}

// Recognize runs one tesseract pass over the image.
func (e *TesseractEngine) Recognize(ctx context.Context, png []byte, opts Options) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, errors.New(err).
			Component("ocr").
			Category(errors.CategoryCancellation).
			Build()
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.language); err != nil {
		return Result{}, errors.New(fmt.Errorf("failed to set OCR language: %w", err)).
			Component("ocr").
			Category(errors.CategoryOCR).
			Context("language", e.language).
			Build()
	}
	if e.tessdataPath != "" {
		if err := client.SetTessdataPrefix(e.tessdataPath); err != nil {
			return Result{}, errors.New(fmt.Errorf("failed to set tessdata prefix: %w", err)).
				Component("ocr").
				Category(errors.CategoryOCR).
				Build()
		}
	}
	if opts.Whitelist != "" {
		if err := client.SetWhitelist(opts.Whitelist); err != nil {
			return Result{}, errors.New(fmt.Errorf("failed to set OCR whitelist: %w", err)).
				Component("ocr").
				Category(errors.CategoryOCR).
				Build()
		}
	}
	psm := gosseract.PSM_SINGLE_BLOCK
	if opts.SingleLine {
		psm = gosseract.PSM_SINGLE_LINE
	}
	if err := client.SetPageSegMode(psm); err != nil {
		return Result{}, errors.New(fmt.Errorf("failed to set page segmentation mode: %w", err)).
			Component("ocr").
			Category(errors.CategoryOCR).
			Build()
	}

	if err := client.SetImageFromBytes(png); err != nil {
		return Result{}, errors.New(fmt.Errorf("failed to set OCR image: %w", err)).
			Component("ocr").
			Category(errors.CategoryOCR).
			Build()
	}

	text, err := client.Text()
	if err != nil {
		return Result{}, errors.New(fmt.Errorf("recognition failed: %w", err)).
			Component("ocr").
			Category(errors.CategoryOCR).
			Build()
	}

	confidence := 0.0
	if boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE); err == nil && len(boxes) > 0 {
		for _, box := range boxes {
			confidence += box.Confidence
		}
		confidence /= float64(len(boxes))
	} else if text != "" {
		// engine produced text but no line metadata, assume middling confidence
		confidence = 50
	}

	return Result{Text: text, Confidence: confidence}, nil
}
