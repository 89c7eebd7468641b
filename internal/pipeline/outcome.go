package pipeline

import (
	"image"

	"facelapse/internal/sequence"
)

// Outcome classifies what happened to one source frame. Callers branch on
// the kind rather than on the absence of a value.
type Outcome string

const (
	OutcomeAligned      Outcome = "aligned"
	OutcomeDecodeFailed Outcome = "decode_failed"
	OutcomeNoFace       Outcome = "no_face"
	OutcomeLandmarks    Outcome = "landmarks_failed"
	OutcomeDegenerate   Outcome = "degenerate_geometry"
)

// FrameResult is the fate of one source after detection, alignment and
// normalization. Image is non-nil only when Outcome is OutcomeAligned.
type FrameResult struct {
	Source  sequence.Source
	Outcome Outcome
	Detail  string
	Image   image.Image
}

// Dropped reports whether the frame was lost to a recoverable per-frame
// failure.
func (r FrameResult) Dropped() bool {
	return r.Outcome != OutcomeAligned
}
