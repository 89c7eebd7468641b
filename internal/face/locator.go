// Package face finds the dominant face in an image and its 68-point
// landmark set.
package face

import (
	"errors"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"facelapse/internal/align"
	"facelapse/internal/config"
)

// ErrModelMissing reports an absent detector or landmark model artifact.
// This is a fatal precondition, surfaced before any processing begins.
var ErrModelMissing = errors.New("face model artifact not found")

// ErrNoFace reports that detection found no face region in the image.
var ErrNoFace = errors.New("no face detected")

// ErrLandmarks reports that landmark fitting failed on the selected region.
var ErrLandmarks = errors.New("landmark extraction failed")

// Detection is the selected face region with its landmark set. The
// landmark slice always holds exactly align.LandmarkCount points.
type Detection struct {
	Region    image.Rectangle
	Landmarks []align.Point
}

// Locator wraps the cascade detector and the LBF landmark predictor. Both
// models are loaded eagerly at construction so a missing artifact fails
// the run at startup instead of mid-pipeline.
//
// Locate is pure with respect to its inputs: the same image against the
// same models yields the same result.
type Locator struct {
	cascade  gocv.CascadeClassifier
	facemark *facemarkLBF
}

// NewLocator loads the detector and landmark models from the configured
// paths.
func NewLocator(cfg config.Detection) (*Locator, error) {
	for _, path := range []string{cfg.CascadePath, cfg.LandmarkModelPath} {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrModelMissing, path)
		}
	}

	cascade := gocv.NewCascadeClassifier()
	if !cascade.Load(cfg.CascadePath) {
		cascade.Close()
		return nil, fmt.Errorf("%w: cannot parse cascade %s", ErrModelMissing, cfg.CascadePath)
	}

	facemark, ok := newFacemarkLBF(cfg.LandmarkModelPath)
	if !ok {
		cascade.Close()
		return nil, fmt.Errorf("%w: cannot parse landmark model %s", ErrModelMissing, cfg.LandmarkModelPath)
	}

	return &Locator{cascade: cascade, facemark: facemark}, nil
}

// Close releases the underlying model resources.
func (l *Locator) Close() error {
	l.facemark.close()
	return l.cascade.Close()
}

// Locate runs detection on a grayscale image and fits landmarks on the
// selected region. Zero faces yields ErrNoFace; with multiple faces the
// largest bounding box wins, first found on ties.
func (l *Locator) Locate(gray gocv.Mat) (Detection, error) {
	rects := l.cascade.DetectMultiScale(gray)
	if len(rects) == 0 {
		return Detection{}, ErrNoFace
	}
	best := largestRegion(rects)

	pts, ok := l.facemark.fit(gray, best)
	if !ok || len(pts) != align.LandmarkCount {
		return Detection{}, fmt.Errorf("%w: region %v", ErrLandmarks, best)
	}
	return Detection{Region: best, Landmarks: pts}, nil
}

// largestRegion picks the rectangle with the greatest area. Ties resolve
// to the earliest entry, which keeps selection deterministic.
func largestRegion(rects []image.Rectangle) image.Rectangle {
	best := rects[0]
	bestArea := best.Dx() * best.Dy()
	for _, r := range rects[1:] {
		if area := r.Dx() * r.Dy(); area > bestArea {
			best = r
			bestArea = area
		}
	}
	return best
}
