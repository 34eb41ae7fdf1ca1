package benchmark

import (
	"context"
	"fmt"
	"image"
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"github.com/tphakala/cardmatch-go/internal/conf"
	"github.com/tphakala/cardmatch-go/internal/extractor"
)

var durationSeconds int

// Command creates the benchmark command that measures embedding throughput
// on this host. The result tells whether the host can keep up with the
// configured scan interval.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Run embedding throughput benchmark",
		RunE: func(cmd *cobra.Command, args []string) error {
			if durationSeconds < 1 || durationSeconds > 300 {
				return fmt.Errorf("duration must be between 1 and 300 seconds, got %d", durationSeconds)
			}
			return runBenchmark(cmd.Context(), settings, time.Duration(durationSeconds)*time.Second)
		},
	}

	cmd.Flags().IntVarP(&durationSeconds, "duration", "t", 10, "benchmark duration in seconds (1-300)")

	return cmd
}

func runBenchmark(ctx context.Context, settings *conf.Settings, duration time.Duration) error {
	fmt.Println("Testing deterministic extractor:")
	if err := runEncoderBenchmark(ctx, extractor.NewDeterministic(), settings.Matcher.EmbedSize, duration); err != nil {
		return err
	}

	if !settings.Matcher.Model.Enabled {
		return nil
	}

	// Run the model with and without the XNNPACK delegate so the operator
	// can decide whether to enable it on this hardware.
	fmt.Println("\nTesting TFLite model with XNNPACK delegate:")
	settings.Matcher.Model.UseXNNPACK = true
	if err := runModelBenchmark(ctx, settings, duration); err != nil {
		fmt.Printf("XNNPACK benchmark failed: %v\n", err)
	}

	fmt.Println("\nTesting TFLite model with standard CPU inference:")
	settings.Matcher.Model.UseXNNPACK = false
	return runModelBenchmark(ctx, settings, duration)
}

func runModelBenchmark(ctx context.Context, settings *conf.Settings, duration time.Duration) error {
	// A private instance per run so the XNNPACK toggle takes effect.
	model, err := extractor.NewModel(&settings.Matcher.Model)
	if err != nil {
		return fmt.Errorf("failed to initialize model: %w", err)
	}
	defer model.Close()
	return runEncoderBenchmark(ctx, model, settings.Matcher.EmbedSize, duration)
}

func runEncoderBenchmark(ctx context.Context, enc extractor.Encoder, size int, duration time.Duration) error {
	art := noiseImage(size)

	start := time.Now()
	var embeds int
	var total time.Duration

	for time.Since(start) < duration {
		embedStart := time.Now()
		if _, err := enc.Embed(ctx, art); err != nil {
			return fmt.Errorf("embedding failed: %w", err)
		}
		total += time.Since(embedStart)
		embeds++

		if embeds%50 == 0 {
			avg := total / time.Duration(embeds)
			fmt.Printf("\rEmbeddings: %d, average time: %.2fms", embeds, float64(avg.Microseconds())/1000)
		}
	}
	fmt.Println()

	avg := total / time.Duration(embeds)
	fmt.Printf("Encoder %s: %d embeddings, %.2fms average, %.1f embeddings/sec\n",
		enc.ID(), embeds, float64(avg.Microseconds())/1000,
		float64(embeds)/duration.Seconds())
	return nil
}

// noiseImage builds a reproducible pseudo-random art crop so runs are
// comparable between hosts.
func noiseImage(size int) *image.RGBA {
	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := range img.Pix {
		img.Pix[i] = byte(rng.Intn(256))
	}
	return img
}
