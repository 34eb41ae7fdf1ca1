// validate.go: validation of user supplied settings
package conf

import (
	"errors"
	"fmt"
)

// ValidateSettings checks settings for values that would break the matching
// pipeline. It collects all problems instead of stopping at the first one.
func ValidateSettings(settings *Settings) error {
	var errs []error

	if settings.Matcher.CanonicalWidth <= 0 || settings.Matcher.CanonicalHeight <= 0 {
		errs = append(errs, fmt.Errorf("matcher: canonical dimensions must be positive, got %dx%d",
			settings.Matcher.CanonicalWidth, settings.Matcher.CanonicalHeight))
	}
	if settings.Matcher.EdgeInset < 0 || settings.Matcher.EdgeInset >= 0.5 {
		errs = append(errs, fmt.Errorf("matcher: edgeinset must be in [0, 0.5), got %v", settings.Matcher.EdgeInset))
	}
	if settings.Matcher.EmbedSize <= 0 {
		errs = append(errs, fmt.Errorf("matcher: embedsize must be positive, got %d", settings.Matcher.EmbedSize))
	}
	if settings.Matcher.TopK <= 0 {
		errs = append(errs, fmt.Errorf("matcher: topk must be positive, got %d", settings.Matcher.TopK))
	}

	ar := settings.Matcher.ArtRegion
	if ar.Left < 0 || ar.Right > 1 || ar.Left >= ar.Right {
		errs = append(errs, fmt.Errorf("matcher: artregion horizontal bounds invalid: left=%v right=%v", ar.Left, ar.Right))
	}
	if ar.Top < 0 || ar.Bottom > 1 || ar.Top >= ar.Bottom {
		errs = append(errs, fmt.Errorf("matcher: artregion vertical bounds invalid: top=%v bottom=%v", ar.Top, ar.Bottom))
	}

	if settings.Matcher.Model.Enabled && settings.Matcher.Model.ModelPath == "" {
		errs = append(errs, errors.New("matcher: model backend enabled but modelpath is empty"))
	}

	if w := settings.Fusion.VisualWeight + settings.Fusion.OCRWeight; w <= 0 {
		errs = append(errs, fmt.Errorf("fusion: weights must sum to a positive value, got %v", w))
	}
	if settings.Fusion.Excellent < settings.Fusion.Good || settings.Fusion.Good < settings.Fusion.Fair {
		errs = append(errs, errors.New("fusion: confidence band thresholds must be non-increasing from excellent to fair"))
	}

	if settings.Realtime.Interval <= 0 {
		errs = append(errs, fmt.Errorf("realtime: interval must be positive, got %d", settings.Realtime.Interval))
	}
	if settings.Realtime.Window <= 0 {
		errs = append(errs, fmt.Errorf("realtime: window must be positive, got %v", settings.Realtime.Window))
	}
	if settings.Realtime.MinDetections < 1 {
		errs = append(errs, fmt.Errorf("realtime: mindetections must be at least 1, got %d", settings.Realtime.MinDetections))
	}
	if settings.Realtime.MinConfidence < 0 || settings.Realtime.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("realtime: minconfidence must be in [0,1], got %v", settings.Realtime.MinConfidence))
	}
	if settings.Realtime.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("realtime: cooldown must not be negative, got %v", settings.Realtime.Cooldown))
	}

	return errors.Join(errs...)
}
