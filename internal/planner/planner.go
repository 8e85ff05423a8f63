// Package planner builds rename plans for discovered source
// directories. The monitor consumes the Planner interface; the local
// implementation derives series identity from directory-name catalog
// tags and episode numbers from filenames.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidyarr/tidyarr/internal/namer"
	"github.com/tidyarr/tidyarr/internal/plan"
	"github.com/tidyarr/tidyarr/internal/scan"
	"github.com/tidyarr/tidyarr/internal/subtitle"
)

//go:generate mockgen -source=planner.go -destination=mocks/planner.go -package=mocks

// Planner builds a rename plan for a source directory targeting an
// output root.
type Planner interface {
	BuildPlan(ctx context.Context, sourceDir, outputRoot string) (*plan.Plan, error)
}

// minPairScore is the weakest stem similarity still accepted when
// pairing a subtitle with a video.
const minPairScore = 0.3

// Local is a Planner that needs no external catalog: the series id
// comes from a {tmdb-N} tag in the directory name (or a configured
// fallback) and episode numbers are parsed from filenames.
type Local struct {
	// CatalogID is used when the directory name carries no tag. Zero
	// means a tag is required.
	CatalogID int64
	// Title overrides the series title; empty derives it from the
	// directory name.
	Title string
	// Year, when known, appears in the series folder name.
	Year *int
	// AllowExistingDest tolerates destinations that already exist.
	AllowExistingDest bool

	Log *slog.Logger
}

func (l *Local) logger() *slog.Logger {
	if l.Log != nil {
		return l.Log
	}
	return slog.Default()
}

// BuildPlan scans sourceDir and lays every video and its paired
// subtitles out under outputRoot in canonical series/season/episode
// form.
func (l *Local) BuildPlan(ctx context.Context, sourceDir, outputRoot string) (*plan.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := scan.Scan(sourceDir)
	if err != nil {
		return nil, err
	}
	if len(result.Videos) == 0 {
		return nil, fmt.Errorf("%w: no video files in %s", plan.ErrValidation, sourceDir)
	}

	dirName := filepath.Base(sourceDir)
	catalogID, err := l.resolveCatalogID(dirName)
	if err != nil {
		return nil, err
	}
	title := l.Title
	if title == "" {
		title = namer.CleanDirTitle(dirName)
	}

	seriesFolder := namer.SeriesRootFolder(title, l.Year, catalogID)
	usedDests := make(map[string]struct{})
	var moves []plan.Move

	type placed struct {
		candidate scan.Candidate
		episode   namer.Episode
	}
	var videos []placed
	for _, v := range result.Videos {
		stem := strings.TrimSuffix(filepath.Base(v.RelPath), v.Ext)
		ep, ok := namer.ParseEpisode(stem)
		if !ok {
			return nil, fmt.Errorf("%w: cannot determine episode for %s", plan.ErrValidation, v.RelPath)
		}
		videos = append(videos, placed{candidate: v, episode: ep})

		base := namer.EpisodeBase(title, ep.Season, ep.Start, ep.End)
		dst := filepath.Join(outputRoot, seriesFolder, namer.SeasonFolder(ep.Season), base+v.Ext)
		if err := l.claimDest(dst, outputRoot, usedDests); err != nil {
			return nil, err
		}
		moves = append(moves, plan.Move{
			Src:   filepath.Join(sourceDir, filepath.FromSlash(v.RelPath)),
			Dst:   dst,
			Kind:  plan.KindVideo,
			SrcID: v.ID,
		})
	}

	for _, s := range result.Subtitles {
		subStem := strings.TrimSuffix(filepath.Base(s.RelPath), s.Ext)
		best := -1
		bestScore := 0.0
		for i, v := range videos {
			videoStem := strings.TrimSuffix(filepath.Base(v.candidate.RelPath), v.candidate.Ext)
			score := namer.StemSimilarity(subStem, videoStem)
			if ep, ok := namer.ParseEpisode(subStem); ok && ep.Season == v.episode.Season && ep.Start == v.episode.Start {
				score += 0.5
			}
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 || bestScore < minPairScore {
			l.logger().Warn("no matching video for subtitle, skipping", "subtitle", s.RelPath)
			continue
		}

		v := videos[best]
		srcPath := filepath.Join(sourceDir, filepath.FromSlash(s.RelPath))
		variant := subtitle.Detect(srcPath)
		base := namer.EpisodeBase(title, v.episode.Season, v.episode.Start, v.episode.End)
		dst := filepath.Join(outputRoot, seriesFolder, namer.SeasonFolder(v.episode.Season),
			base+variant.DotSuffix()+s.Ext)
		dst = disambiguate(dst, s.Ext, usedDests)
		if err := l.claimDest(dst, outputRoot, usedDests); err != nil {
			return nil, err
		}
		moves = append(moves, plan.Move{Src: srcPath, Dst: dst, Kind: plan.KindSubtitle, SrcID: s.ID})
	}

	// Deterministic plan order: kind, then destination.
	sort.SliceStable(moves, func(i, j int) bool {
		if moves[i].Kind != moves[j].Kind {
			return moves[i].Kind < moves[j].Kind
		}
		return moves[i].Dst < moves[j].Dst
	})

	p := &plan.Plan{
		CatalogID:  catalogID,
		Title:      title,
		Year:       l.Year,
		SourceDir:  sourceDir,
		OutputRoot: outputRoot,
		Moves:      moves,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	l.logger().Info("plan built",
		"source_dir", sourceDir,
		"catalog_id", catalogID,
		"moves", len(moves))
	return p, nil
}

func (l *Local) resolveCatalogID(dirName string) (int64, error) {
	id, ok, err := namer.ExtractCatalogTag(dirName)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", plan.ErrValidation, err)
	}
	if ok {
		if l.CatalogID != 0 && l.CatalogID != id {
			return 0, fmt.Errorf("%w: catalog tag %d conflicts with configured id %d", plan.ErrValidation, id, l.CatalogID)
		}
		return id, nil
	}
	if l.CatalogID != 0 {
		return l.CatalogID, nil
	}
	return 0, fmt.Errorf("%w: no catalog tag in %q and no catalog id configured", plan.ErrValidation, dirName)
}

func (l *Local) claimDest(dst, outputRoot string, used map[string]struct{}) error {
	if _, dup := used[dst]; dup {
		return fmt.Errorf("%w: destination collision at %s", plan.ErrValidation, dst)
	}
	if !l.AllowExistingDest {
		if exists(dst) {
			return fmt.Errorf("%w: destination already exists: %s", plan.ErrValidation, dst)
		}
	}
	used[dst] = struct{}{}
	return nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// disambiguate inserts a numeric tag before the extension until the
// destination is unique within the plan.
func disambiguate(dst, ext string, used map[string]struct{}) string {
	if _, taken := used[dst]; !taken {
		return dst
	}
	stem := strings.TrimSuffix(dst, ext)
	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s.%d%s", stem, counter, ext)
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}
