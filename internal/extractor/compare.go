// compare.go: determinism and separation validation harness
package extractor

import (
	"context"
	"image"
)

// Comparison holds the embedding comparison of two images. It is the
// contract used to validate determinism and separation properties between
// hosts: both norms should be 1, and cosine equals the dot product for
// normalized vectors.
type Comparison struct {
	Norm1            float64
	Norm2            float64
	DotProduct       float64
	CosineSimilarity float64
}

// Compare embeds both images with the given encoder and reports their norms
// and similarity.
func Compare(ctx context.Context, enc Encoder, img1, img2 *image.RGBA) (*Comparison, error) {
	v1, err := enc.Embed(ctx, img1)
	if err != nil {
		return nil, err
	}
	v2, err := enc.Embed(ctx, img2)
	if err != nil {
		return nil, err
	}
	return &Comparison{
		Norm1:            Norm(v1),
		Norm2:            Norm(v2),
		DotProduct:       Dot(v1, v2),
		CosineSimilarity: Cosine(v1, v2),
	}, nil
}
