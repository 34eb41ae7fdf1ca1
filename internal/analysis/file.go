// file.go: one-shot identification of an image file
package analysis

import (
	"context"
	"fmt"

	"github.com/tphakala/cardmatch-go/internal/conf"
	"github.com/tphakala/cardmatch-go/internal/imaging"
	"github.com/tphakala/cardmatch-go/internal/scanner"
)

// FileAnalysis identifies the card in a single image file and prints the
// ranked candidates. It uses the manual scan path: no temporal accumulation,
// no quality gating, result always surfaced for the user to judge.
func FileAnalysis(ctx context.Context, settings *conf.Settings, path string) error {
	frame, err := imaging.LoadFrame(path)
	if err != nil {
		return err
	}

	idx, closeCatalog, err := loadIndex(ctx, settings, nil)
	if err != nil {
		return err
	}
	defer func() { _ = closeCatalog() }()

	encoder, err := buildEncoder(settings)
	if err != nil {
		return err
	}

	source := scanner.FrameSourceFunc(func(context.Context) (*imaging.Frame, error) {
		return frame, nil
	})
	processor := scanner.NewProcessor(&settings.Realtime, nil)
	loop := scanner.NewLoop(settings, source, encoder, idx, buildReader(settings), processor, nil)

	outcome, err := loop.ScanManual(ctx)
	if err != nil {
		return err
	}

	printOutcome(path, outcome)
	return nil
}

func printOutcome(path string, outcome *scanner.ScanOutcome) {
	if outcome.Canon.Fallback {
		fmt.Printf("%s: %s\n", path, outcome.Canon.Message)
	}
	if issues := outcome.Quality.Issues; len(issues) > 0 {
		fmt.Printf("%s: quality issues: %v\n", path, issues)
	}
	if !outcome.Reading.Empty() {
		fmt.Printf("Text: %q (confidence %.0f)\n", outcome.Reading.Text, outcome.Reading.Confidence)
	}

	if len(outcome.Fusion.Candidates) == 0 {
		fmt.Println("No confident match.")
		return
	}
	for i, c := range outcome.Fusion.Candidates {
		fmt.Printf("%d. %s [%s] combined %.3f (visual %.3f, ocr %.3f) %s\n",
			i+1, c.Entry.DisplayName, c.Entry.SetLabel,
			c.CombinedScore, c.VisualScore, c.OCRScore, c.ConfidenceBand)
	}
	if outcome.Fusion.Ambiguous {
		fmt.Println("Top candidates are too close to call; manual disambiguation required.")
	} else if outcome.Fusion.NeedsConfirmation {
		fmt.Println("Match requires confirmation.")
	}
}
