// compare.go: embedding determinism and separation harness
package analysis

import (
	"context"
	"fmt"

	"github.com/tphakala/cardmatch-go/internal/conf"
	"github.com/tphakala/cardmatch-go/internal/extractor"
	"github.com/tphakala/cardmatch-go/internal/imaging"
)

// CompareImages embeds two image files through the full normalize-and-crop
// pipeline and reports their norms and similarity. Running this on two hosts
// against the same files validates the cross-host determinism contract.
func CompareImages(ctx context.Context, settings *conf.Settings, path1, path2 string) (*extractor.Comparison, error) {
	encoder, err := buildEncoder(settings)
	if err != nil {
		return nil, err
	}
	normalizer := imaging.NewNormalizer(&settings.Matcher)

	frame1, err := imaging.LoadFrame(path1)
	if err != nil {
		return nil, err
	}
	frame2, err := imaging.LoadFrame(path2)
	if err != nil {
		return nil, err
	}

	art1 := imaging.ArtCrop(normalizer.Normalize(frame1).Image, &settings.Matcher.ArtRegion, settings.Matcher.EmbedSize)
	art2 := imaging.ArtCrop(normalizer.Normalize(frame2).Image, &settings.Matcher.ArtRegion, settings.Matcher.EmbedSize)

	comparison, err := extractor.Compare(ctx, encoder, art1, art2)
	if err != nil {
		return nil, err
	}

	fmt.Printf("norm1=%.6f norm2=%.6f dot=%.6f cosine=%.6f\n",
		comparison.Norm1, comparison.Norm2,
		comparison.DotProduct, comparison.CosineSimilarity)
	return comparison, nil
}
