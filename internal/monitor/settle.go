package monitor

import (
	"io/fs"
	"path/filepath"
	"time"

	"github.com/tidyarr/tidyarr/internal/scan"
)

// MaxTreeMtime returns the newest modification time of any file or
// directory under dir, skipping the scanner's excluded subdirectories.
// A tree that vanishes mid-walk reports "now", which keeps the settle
// check conservative.
func MaxTreeMtime(dir string, now time.Time) time.Time {
	latest := time.Time{}
	vanished := false
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			vanished = true
			return filepath.SkipAll
		}
		if d.IsDir() && path != dir && scan.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		info, err := d.Info()
		if err != nil {
			vanished = true
			return filepath.SkipAll
		}
		if mt := info.ModTime(); mt.After(latest) {
			latest = mt
		}
		return nil
	})
	if vanished {
		return now
	}
	return latest
}

// Settled reports whether nothing under dir changed within the settle
// window: a debounce guard against acting on a directory still being
// written.
func Settled(dir string, window time.Duration, now time.Time) bool {
	if window <= 0 {
		return true
	}
	return now.Sub(MaxTreeMtime(dir, now)) >= window
}
