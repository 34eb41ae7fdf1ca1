// dirsource.go: frame source backed by a watched directory
package scanner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tphakala/cardmatch-go/internal/errors"
	"github.com/tphakala/cardmatch-go/internal/imaging"
)

// DirectorySource captures the newest image file from a watched directory.
// Capture hardware that drops frames as files (gphoto2 hooks, scanner
// daemons, ip camera snapshot scripts) integrates through this source
// without any code in the engine knowing about the device.
type DirectorySource struct {
	dir      string
	lastPath string
	lastMod  time.Time
}

// NewDirectorySource watches dir for image files.
func NewDirectorySource(dir string) *DirectorySource {
	return &DirectorySource{dir: dir}
}

var frameExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".bmp": true, ".webp": true, ".gif": true,
}

// CaptureFrame loads the most recently modified image file in the watched
// directory. A directory with no new file since the previous capture yields
// a nil frame, which the scan loop treats as a tick with nothing to do.
func (s *DirectorySource) CaptureFrame(ctx context.Context) (*imaging.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.New(err).
			Component("scanner").
			Category(errors.CategoryFrameSource).
			Context("directory", s.dir).
			Build()
	}

	var newestPath string
	var newestMod time.Time
	for _, entry := range dirEntries {
		if entry.IsDir() || !frameExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(newestMod) {
			newestMod = info.ModTime()
			newestPath = filepath.Join(s.dir, entry.Name())
		}
	}

	if newestPath == "" {
		return nil, nil
	}
	if newestPath == s.lastPath && newestMod.Equal(s.lastMod) {
		return nil, nil
	}

	frame, err := imaging.LoadFrame(newestPath)
	if err != nil {
		// Partially written file, the next tick will retry it.
		return nil, nil
	}
	s.lastPath = newestPath
	s.lastMod = newestMod
	frame.Timestamp = newestMod
	return frame, nil
}
