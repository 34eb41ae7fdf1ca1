// Package extractor computes fixed-length visual embeddings from canonical
// card images. The deterministic encoder is the reference implementation:
// the catalog sync job and the live scan path must both use it so that
// embeddings computed on different hosts match component for component.
package extractor

import (
	"context"
	"image"
	"math"
)

// Dim is the fixed embedding length.
const Dim = 256

// Encoder produces an L2-normalized embedding for a canonical image.
type Encoder interface {
	Embed(ctx context.Context, img *image.RGBA) ([]float32, error)
	ID() string
}

// Deterministic is the handcrafted statistical encoder. It is stateless and
// safe for concurrent use.
type Deterministic struct{}

// NewDeterministic returns the reference encoder.
func NewDeterministic() *Deterministic {
	return &Deterministic{}
}

// ID identifies the encoder for cache keys and diagnostics.
func (d *Deterministic) ID() string {
	return "deterministic-v1"
}

// Embed computes the 256-dimension feature vector. The context is accepted
// for interface symmetry with the model backend; the computation itself is
// fast and not cancellable mid-way.
func (d *Deterministic) Embed(_ context.Context, img *image.RGBA) ([]float32, error) {
	return ComputeFeatures(img), nil
}

// Normalize L2-normalizes a vector in place and returns it. A zero vector is
// returned unchanged rather than dividing by zero.
func Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

// Norm returns the Euclidean norm of a vector.
func Norm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Dot returns the dot product of two vectors. Mismatched lengths score zero;
// the fixed-length contract makes that a defensive case only.
func Dot(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Cosine returns the cosine similarity of two vectors of any norm.
func Cosine(a, b []float32) float64 {
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return Dot(a, b) / (na * nb)
}
