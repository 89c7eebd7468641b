// Package pipeline orchestrates the run: chronological resolution, fanned
// out per-frame processing, and sequential encoding of the surviving
// frames.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"facelapse/internal/config"
	"facelapse/internal/gifenc"
	"facelapse/internal/logging"
	"facelapse/internal/sequence"
	"facelapse/internal/storage"
)

// ErrNoFrames is returned when every source was dropped and the encoder
// has nothing to write. Fatal for the run.
var ErrNoFrames = errors.New("no frames survived alignment")

// SourceResolver produces the chronologically ordered source list.
type SourceResolver interface {
	Resolve(ctx context.Context) ([]sequence.Source, sequence.Stats, error)
}

// FrameProcessor turns one source into an aligned, normalized frame or a
// classified per-frame failure. Implementations must be safe for
// concurrent use; frames carry no cross-frame state.
type FrameProcessor interface {
	Process(ctx context.Context, src sequence.Source) FrameResult
}

// Summary captures what a run did.
type Summary struct {
	RunID         string
	OutputPath    string
	Stats         sequence.Stats
	FramesEncoded int
	Dropped       int
	Duration      time.Duration
}

// Runner executes the full pipeline. Per-frame failures are recorded and
// skipped; failures that leave a downstream stage with zero input are
// fatal for the run.
type Runner struct {
	cfg       *config.Config
	log       *slog.Logger
	store     *storage.Store
	resolver  SourceResolver
	processor FrameProcessor
}

// NewRunner wires a Runner from its collaborators. store may be nil.
func NewRunner(cfg *config.Config, log *slog.Logger, store *storage.Store, resolver SourceResolver, processor FrameProcessor) *Runner {
	return &Runner{cfg: cfg, log: log, store: store, resolver: resolver, processor: processor}
}

// Run executes the pipeline once and returns its summary. The returned
// error is non-nil only for fatal failures; an output animation exists iff
// the error is nil.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	outputPath := filepath.Join(r.cfg.Paths.OutputDir, r.cfg.Output.Name)

	sources, stats, err := r.resolver.Resolve(ctx)
	if err != nil {
		return Summary{RunID: runID}, err
	}

	logging.LogRunStart(r.log, runID, r.cfg.Paths.InputDir, outputPath, stats.Found)
	_ = r.store.RecordRunStart(storage.RunRecord{
		ID:          runID,
		InputDir:    r.cfg.Paths.InputDir,
		OutputPath:  outputPath,
		ImagesFound: stats.Found,
	})

	results := r.processAll(ctx, sources)
	if err := ctx.Err(); err != nil {
		r.finishRun(runID, "canceled", stats, 0, err)
		return Summary{RunID: runID}, err
	}

	frames, dropped := r.collect(runID, results)
	if len(frames) == 0 {
		err := fmt.Errorf("%w: 0 of %d images aligned", ErrNoFrames, len(sources))
		r.finishRun(runID, "failed", stats, 0, err)
		logging.LogRunError(r.log, runID, time.Since(start), err)
		return Summary{RunID: runID}, err
	}
	r.log.Info("faces aligned", "aligned", len(frames), "total", len(sources))

	if r.cfg.Output.SaveFrames {
		if err := r.saveFrames(frames); err != nil {
			r.log.Warn("could not save inspection frames", "error", err)
		}
	}

	if err := os.MkdirAll(r.cfg.Paths.OutputDir, 0o755); err != nil {
		r.finishRun(runID, "failed", stats, 0, err)
		return Summary{RunID: runID}, fmt.Errorf("create output directory: %w", err)
	}
	if err := gifenc.EncodeFile(outputPath, frames, r.cfg.Output.FPS, r.cfg.Output.Loop); err != nil {
		r.finishRun(runID, "failed", stats, 0, err)
		logging.LogRunError(r.log, runID, time.Since(start), err)
		return Summary{RunID: runID}, fmt.Errorf("encode animation: %w", err)
	}

	r.finishRun(runID, "completed", stats, len(frames), nil)
	duration := time.Since(start)
	logging.LogRunComplete(r.log, runID, duration, len(frames), outputPath)

	return Summary{
		RunID:         runID,
		OutputPath:    outputPath,
		Stats:         stats,
		FramesEncoded: len(frames),
		Dropped:       dropped,
		Duration:      duration,
	}, nil
}

// processAll fans the per-frame work out across a bounded worker pool.
// Results land in a slice indexed by sequence position, so the encoder
// consumes frames in chronological order no matter which worker finished
// first.
func (r *Runner) processAll(ctx context.Context, sources []sequence.Source) []FrameResult {
	workers := r.cfg.Processing.ParallelJobs
	if workers < 1 {
		workers = 1
	}
	if workers > len(sources) {
		workers = len(sources)
	}

	jobs := make(chan sequence.Source)
	results := make([]FrameResult, len(sources))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range jobs {
				if ctx.Err() != nil {
					continue
				}
				results[src.Index] = r.processor.Process(ctx, src)
			}
		}()
	}

	for _, src := range sources {
		jobs <- src
	}
	close(jobs)
	wg.Wait()

	return results
}

// collect separates surviving frames from drops, logging and recording
// each drop with its source identity and failure kind.
func (r *Runner) collect(runID string, results []FrameResult) ([]image.Image, int) {
	var frames []image.Image
	dropped := 0
	for _, res := range results {
		_ = r.store.RecordFrameOutcome(storage.FrameOutcomeRecord{
			RunID:         runID,
			SequenceIndex: res.Source.Index,
			SourcePath:    res.Source.OriginalPath,
			TakenAt:       res.Source.Taken,
			Outcome:       string(res.Outcome),
			Detail:        res.Detail,
		})
		if res.Dropped() {
			dropped++
			logging.LogFrameDropped(r.log, runID, res.Source.OriginalPath, string(res.Outcome))
			continue
		}
		frames = append(frames, res.Image)
	}
	return frames, dropped
}

// saveFrames writes the processed frames as numbered JPEGs for inspection.
func (r *Runner) saveFrames(frames []image.Image) error {
	dir := filepath.Join(r.cfg.Paths.OutputDir, "frames")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, frame := range frames {
		path := filepath.Join(dir, fmt.Sprintf("frame_%04d.jpg", i+1))
		if err := writeJPEG(path, frame, r.cfg.Processing.JPEGQuality); err != nil {
			return err
		}
	}
	r.log.Info("saved inspection frames", "count", len(frames), "dir", dir)
	return nil
}

func (r *Runner) finishRun(runID, status string, stats sequence.Stats, encoded int, err error) {
	rec := storage.RunRecord{
		ID:              runID,
		Status:          status,
		ImagesConverted: stats.Converted,
		ImagesSkipped:   stats.Skipped,
		FramesEncoded:   encoded,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	_ = r.store.RecordRunResult(rec)
}
