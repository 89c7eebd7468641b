package pipeline

import (
	"context"
	"errors"

	"gocv.io/x/gocv"

	"facelapse/internal/align"
	"facelapse/internal/config"
	"facelapse/internal/face"
	"facelapse/internal/normalize"
	"facelapse/internal/sequence"
)

// frameProcessor is the production FrameProcessor: decode, locate, align,
// normalize. Each call works on its own Mats; the shared locator models
// are read-only after construction.
type frameProcessor struct {
	locator    *face.Locator
	params     align.Params
	normalizer *normalize.Normalizer
}

// NewFrameProcessor builds the production per-frame processor around an
// already-validated Locator.
func NewFrameProcessor(cfg *config.Config, locator *face.Locator) FrameProcessor {
	return &frameProcessor{
		locator:    locator,
		params:     align.ParamsFromConfig(cfg),
		normalizer: normalize.New(cfg.Normalize),
	}
}

func (p *frameProcessor) Process(ctx context.Context, src sequence.Source) FrameResult {
	res := FrameResult{Source: src}

	img := gocv.IMRead(src.Path, gocv.IMReadColor)
	if img.Empty() {
		res.Outcome = OutcomeDecodeFailed
		res.Detail = "could not decode " + src.Path
		return res
	}
	defer img.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	det, err := p.locator.Locate(gray)
	if err != nil {
		switch {
		case errors.Is(err, face.ErrNoFace):
			res.Outcome = OutcomeNoFace
		case errors.Is(err, face.ErrLandmarks):
			res.Outcome = OutcomeLandmarks
		default:
			res.Outcome = OutcomeLandmarks
		}
		res.Detail = err.Error()
		return res
	}

	left, right, err := align.EyeAnchors(det.Landmarks)
	if err != nil {
		res.Outcome = OutcomeLandmarks
		res.Detail = err.Error()
		return res
	}

	transform, err := align.Derive(left, right, p.params)
	if err != nil {
		res.Outcome = OutcomeDegenerate
		res.Detail = err.Error()
		return res
	}

	warped, err := align.Warp(img, transform, p.params)
	if err != nil {
		res.Outcome = OutcomeDegenerate
		res.Detail = err.Error()
		return res
	}
	defer warped.Close()

	normalized := p.normalizer.Apply(warped)
	defer normalized.Close()

	frame, err := normalized.ToImage()
	if err != nil {
		res.Outcome = OutcomeDecodeFailed
		res.Detail = "convert frame: " + err.Error()
		return res
	}

	res.Outcome = OutcomeAligned
	res.Image = frame
	return res
}
