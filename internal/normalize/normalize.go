// Package normalize applies per-frame local contrast normalization so
// exposure differences between frames do not flicker in the output.
package normalize

import (
	"image"

	"gocv.io/x/gocv"

	"facelapse/internal/config"
)

// Normalizer equalizes local contrast with a clip limit that bounds how
// far any tile histogram is stretched, preventing noise amplification in
// flat regions. Normalization is stateless across frames; no temporal
// smoothing is performed.
type Normalizer struct {
	clipLimit float64
	tileGrid  int
}

// New builds a Normalizer from configuration.
func New(cfg config.Normalize) *Normalizer {
	return &Normalizer{clipLimit: cfg.ClipLimit, tileGrid: cfg.TileGrid}
}

// Apply equalizes one frame and returns a new Mat owned by the caller.
// Color frames are converted to Lab, equalized on the luminance channel
// only with chrominance untouched, and converted back. Grayscale frames
// are equalized directly.
//
// Apply is safe for concurrent use; each call holds its own CLAHE state.
func (n *Normalizer) Apply(src gocv.Mat) gocv.Mat {
	clahe := gocv.NewCLAHEWithParams(n.clipLimit, image.Pt(n.tileGrid, n.tileGrid))
	defer clahe.Close()

	if src.Channels() == 1 {
		dst := gocv.NewMat()
		clahe.Apply(src, &dst)
		return dst
	}

	lab := gocv.NewMat()
	defer lab.Close()
	gocv.CvtColor(src, &lab, gocv.ColorBGRToLab)

	channels := gocv.Split(lab)
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()

	clahe.Apply(channels[0], &channels[0])
	gocv.Merge(channels, &lab)

	dst := gocv.NewMat()
	gocv.CvtColor(lab, &dst, gocv.ColorLabToBGR)
	return dst
}
