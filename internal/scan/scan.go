// Package scan enumerates candidate media files in a source directory,
// producing a deterministic, sorted listing with stable integer ids.
package scan

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// VideoExts lists recognized video container extensions.
var VideoExts = map[string]bool{
	".mkv": true, ".mp4": true, ".avi": true, ".m4v": true,
	".mov": true, ".ts": true, ".m2ts": true, ".webm": true,
}

// SubtitleExts lists recognized subtitle extensions.
var SubtitleExts = map[string]bool{
	".ass": true, ".ssa": true, ".srt": true, ".sub": true,
	".vtt": true, ".idx": true, ".sup": true,
}

// SkipDirNames are subdirectories excluded from scanning and from
// settle-window mtime checks. Compared case-insensitively.
var SkipDirNames = map[string]bool{
	"sample": true, "samples": true,
	"trailer": true, "trailers": true,
	"bonus": true, "extra": true, "extras": true,
	"sp": true, "sps": true,
	"cd": true, "cds": true,
	"music": true, "musics": true,
	"scan": true, "scans": true,
	"menu": true, "menus": true,
	"preview": true, "previews": true,
	"映像特典": true,
}

// SkipDir reports whether a directory name is excluded from scans.
func SkipDir(name string) bool {
	return SkipDirNames[strings.ToLower(name)]
}

// Candidate is one discovered file. ID is stable for the lifetime of
// the scan result (and any plan built from it), nothing longer.
type Candidate struct {
	ID        int64
	RelPath   string
	Ext       string
	SizeBytes int64
}

// Result holds the classified scan output, each list sorted by
// relative path.
type Result struct {
	SourceDir string
	Videos    []Candidate
	Subtitles []Candidate
}

// Scan walks sourceDir and classifies files by extension. Ids are
// sequential: videos first, then subtitles, both in path order.
func Scan(sourceDir string) (*Result, error) {
	type item struct {
		relPath string
		ext     string
		size    int64
	}
	var videos, subtitles []item

	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != sourceDir && SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == "" {
			return nil
		}
		isVideo := VideoExts[ext]
		isSubtitle := SubtitleExts[ext]
		if !isVideo && !isSubtitle {
			return nil
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		it := item{relPath: filepath.ToSlash(rel), ext: ext, size: info.Size()}
		if isVideo {
			videos = append(videos, it)
		} else {
			subtitles = append(subtitles, it)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", sourceDir, err)
	}

	sort.Slice(videos, func(i, j int) bool { return videos[i].relPath < videos[j].relPath })
	sort.Slice(subtitles, func(i, j int) bool { return subtitles[i].relPath < subtitles[j].relPath })

	result := &Result{SourceDir: sourceDir}
	id := int64(1)
	for _, it := range videos {
		result.Videos = append(result.Videos, Candidate{ID: id, RelPath: it.relPath, Ext: it.ext, SizeBytes: it.size})
		id++
	}
	for _, it := range subtitles {
		result.Subtitles = append(result.Subtitles, Candidate{ID: id, RelPath: it.relPath, Ext: it.ext, SizeBytes: it.size})
		id++
	}
	return result, nil
}
