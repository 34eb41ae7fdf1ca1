// quality.go: advisory frame quality checks
package imaging

import (
	"image"

	"github.com/tphakala/cardmatch-go/internal/conf"
)

// Quality issue identifiers surfaced to callers.
const (
	IssueTooDark   = "too-dark"
	IssueTooBright = "too-bright"
	IssueTooBlurry = "too-blurry"
)

// Quality is an advisory assessment of a canonical image. Issues never block
// embedding computation; callers decide whether to gate on them.
type Quality struct {
	Brightness float64 // mean luminance in [0,1]
	Sharpness  float64 // Laplacian variance
	Issues     []string
}

// OK reports whether no quality issues were flagged.
func (q Quality) OK() bool {
	return len(q.Issues) == 0
}

// AssessQuality computes brightness and sharpness estimates on a canonical
// image and flags values outside the configured bounds.
func AssessQuality(img *image.RGBA, settings *conf.QualitySettings) Quality {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	gray := grayPlane(img)

	var sum float64
	for _, v := range gray {
		sum += v
	}
	brightness := sum / float64(len(gray)) / 255.0

	// Variance of the 4-neighbor Laplacian, the usual blur estimate.
	var lapSum, lapSqSum float64
	count := 0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			lap := gray[(y-1)*w+x] + gray[(y+1)*w+x] + gray[y*w+x-1] + gray[y*w+x+1] - 4*gray[y*w+x]
			lapSum += lap
			lapSqSum += lap * lap
			count++
		}
	}
	var sharpness float64
	if count > 0 {
		mean := lapSum / float64(count)
		sharpness = lapSqSum/float64(count) - mean*mean
	}

	q := Quality{Brightness: brightness, Sharpness: sharpness}
	if settings == nil {
		return q
	}
	if brightness < settings.MinBrightness {
		q.Issues = append(q.Issues, IssueTooDark)
	}
	if brightness > settings.MaxBrightness {
		q.Issues = append(q.Issues, IssueTooBright)
	}
	if sharpness < settings.MinSharpness {
		q.Issues = append(q.Issues, IssueTooBlurry)
	}
	return q
}
