// source.go: frame source collaborator contract
package scanner

import (
	"context"
	"errors"

	"github.com/tphakala/cardmatch-go/internal/imaging"
)

// ErrNoFrame signals that the source had no new frame for this tick. The
// loop treats it as an idle tick rather than a failure.
var ErrNoFrame = errors.New("no frame available")

// FrameSource supplies frames on demand. The engine does not manage the
// camera lifecycle; closing the source is the owner's responsibility.
type FrameSource interface {
	CaptureFrame(ctx context.Context) (*imaging.Frame, error)
}

// FrameSourceFunc adapts a function to the FrameSource interface.
type FrameSourceFunc func(ctx context.Context) (*imaging.Frame, error)

// CaptureFrame calls the wrapped function.
func (f FrameSourceFunc) CaptureFrame(ctx context.Context) (*imaging.Frame, error) {
	return f(ctx)
}
