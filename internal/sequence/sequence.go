// Package sequence resolves capture timestamps for heterogeneous image
// sources and produces the chronologically ordered list of frames the rest
// of the pipeline consumes.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"facelapse/internal/config"
	"facelapse/internal/fsutil"
)

// ErrNoImages is returned when discovery finds nothing to process. This is
// a fatal precondition for the run.
var ErrNoImages = errors.New("no images found in input directory")

// Source is one input image with its resolved capture time. Path points at
// the processed JPEG copy consumed by downstream stages; Index is the
// position in the final chronological order.
type Source struct {
	OriginalPath string
	Path         string
	Taken        time.Time
	Index        int
}

// Stats summarizes what discovery and conversion did.
type Stats struct {
	Found     int
	Converted int
	Skipped   int
}

// Sequencer discovers input images, converts HEIC containers to JPEG, and
// orders everything by capture time.
type Sequencer struct {
	cfg *config.Config
	log *slog.Logger
}

// New returns a Sequencer using the provided configuration.
func New(cfg *config.Config, log *slog.Logger) *Sequencer {
	return &Sequencer{cfg: cfg, log: log}
}

// Resolve produces the chronologically ordered source list. Sources are
// converted to JPEG exactly once: with skip_existing enabled an existing
// converted copy is reused byte for byte, so re-runs are idempotent.
func (s *Sequencer) Resolve(ctx context.Context) ([]Source, Stats, error) {
	var stats Stats

	files, err := fsutil.ListImages(s.cfg.Paths.InputDir)
	if err != nil {
		return nil, stats, fmt.Errorf("discover images: %w", err)
	}
	if len(files) == 0 {
		return nil, stats, fmt.Errorf("%w: %s", ErrNoImages, s.cfg.Paths.InputDir)
	}
	stats.Found = len(files)

	if err := os.MkdirAll(s.cfg.Paths.ProcessedDir, 0o755); err != nil {
		return nil, stats, fmt.Errorf("create processed directory: %w", err)
	}

	conv := newConverter()
	defer conv.close()

	var sources []Source
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		// Capture time comes from the original file, before any
		// conversion touches it.
		taken := s.timestampFor(conv, file)

		outPath := s.processedPath(file)
		if s.cfg.Processing.SkipExisting && fsutil.FirstExisting(outPath) != "" {
			s.log.Debug("skipping conversion, processed copy exists", "source", filepath.Base(file))
			stats.Skipped++
			sources = append(sources, Source{OriginalPath: file, Path: outPath, Taken: taken})
			continue
		}

		if err := conv.toJPEG(file, outPath, s.cfg.Processing.JPEGQuality); err != nil {
			// Unreadable individual file: drop and continue.
			s.log.Warn("conversion failed, dropping source", "source", filepath.Base(file), "error", err)
			continue
		}
		stats.Converted++
		sources = append(sources, Source{OriginalPath: file, Path: outPath, Taken: taken})
	}

	if len(sources) == 0 {
		return nil, stats, fmt.Errorf("no sources survived conversion in %s", s.cfg.Paths.InputDir)
	}

	OrderChronologically(sources)

	first := sources[0].Taken.Format("2006-01-02")
	last := sources[len(sources)-1].Taken.Format("2006-01-02")
	s.log.Info("sources ordered", "count", len(sources), "from", first, "to", last)

	return sources, stats, nil
}

// OrderChronologically sorts sources by capture time ascending and assigns
// sequence indices. The sort is stable: sources with equal timestamps keep
// their discovery order, since capture order within the same second is
// usually file-creation order.
func OrderChronologically(sources []Source) {
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Taken.Before(sources[j].Taken)
	})
	for i := range sources {
		sources[i].Index = i
	}
}

// timestampFor resolves the capture time for one source. EXIF metadata is
// tried first (DateTimeOriginal, then DateTime); file modification time is
// the fallback and never fails.
func (s *Sequencer) timestampFor(conv *converter, path string) time.Time {
	if fsutil.IsHEIC(path) {
		if t, ok := conv.exifTimestamp(path); ok {
			return t
		}
	} else if t, ok := exifTimestamp(path); ok {
		return t
	}
	return fileTimestamp(path)
}

// processedPath maps a source to its converted copy. Every processed name
// carries a .jpg extension; ImageMagick picks the written container from
// the file name, so the name must match the format the converter promises.
func (s *Sequencer) processedPath(file string) string {
	name := filepath.Base(file)
	name = strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
	return filepath.Join(s.cfg.Paths.ProcessedDir, name)
}

// fileTimestamp returns the source's last-modification time. An unreadable
// file gets the zero time; it will surface as a per-frame decode failure
// downstream.
func fileTimestamp(path string) time.Time {
	st, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return st.ModTime()
}
