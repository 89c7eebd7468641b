package align

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Warp applies the transform to the full-resolution color image, producing
// a canvas of exactly the configured output size. Pixels that map outside
// the source are filled with constant black, never wrapped or mirrored.
//
// The returned Mat is owned by the caller.
func Warp(src gocv.Mat, t Transform, p Params) (gocv.Mat, error) {
	if src.Empty() {
		return gocv.Mat{}, fmt.Errorf("warp: empty source image")
	}

	m := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F)
	defer m.Close()
	for row := 0; row < 2; row++ {
		for col := 0; col < 3; col++ {
			m.SetDoubleAt(row, col, t.M[row][col])
		}
	}

	dst := gocv.NewMat()
	gocv.WarpAffineWithParams(src, &dst, m, image.Pt(p.Width, p.Height),
		gocv.InterpolationLinear, gocv.BorderConstant, color.RGBA{})
	return dst, nil
}
