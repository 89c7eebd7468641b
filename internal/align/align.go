// Package align derives and applies the similarity transform that maps a
// detected face onto canonical eye positions in a fixed-size canvas.
package align

import (
	"errors"
	"fmt"
	"math"

	"facelapse/internal/config"
)

// LandmarkCount is the size of the fixed-semantic landmark set. Indices
// follow the standard 68-point facial scheme: 36-41 trace the left eye
// contour, 42-47 the right.
const LandmarkCount = 68

const (
	leftEyeStart  = 36
	leftEyeEnd    = 42
	rightEyeStart = 42
	rightEyeEnd   = 48
)

// minEyeDistance guards the scale division. Anchors closer than this are
// collapsed landmarks, not a face.
const minEyeDistance = 1e-6

// ErrDegenerateGeometry reports landmark geometry no finite similarity
// transform can be derived from.
var ErrDegenerateGeometry = errors.New("degenerate landmark geometry")

// Point is a 2D point in image pixel coordinates.
type Point struct {
	X float64
	Y float64
}

// Params fixes the output canvas and the target eye positions as ratios of
// canvas size.
type Params struct {
	Width          int
	Height         int
	EyeXRatioLeft  float64
	EyeXRatioRight float64
	EyeYRatio      float64
}

// ParamsFromConfig builds alignment parameters from the run configuration.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		Width:          cfg.Output.Width,
		Height:         cfg.Output.Height,
		EyeXRatioLeft:  cfg.Alignment.EyeXRatioLeft,
		EyeXRatioRight: cfg.Alignment.EyeXRatioRight,
		EyeYRatio:      cfg.Alignment.EyeYRatio,
	}
}

// TargetLeft returns the left-eye target position on the canvas.
func (p Params) TargetLeft() Point {
	return Point{X: float64(p.Width) * p.EyeXRatioLeft, Y: float64(p.Height) * p.EyeYRatio}
}

// TargetRight returns the right-eye target position on the canvas.
func (p Params) TargetRight() Point {
	return Point{X: float64(p.Width) * p.EyeXRatioRight, Y: float64(p.Height) * p.EyeYRatio}
}

// EyeAnchors reduces a 68-point landmark set to the two eye centroids.
func EyeAnchors(landmarks []Point) (left, right Point, err error) {
	if len(landmarks) != LandmarkCount {
		return Point{}, Point{}, fmt.Errorf("landmark set has %d points, want %d", len(landmarks), LandmarkCount)
	}
	left = centroid(landmarks[leftEyeStart:leftEyeEnd])
	right = centroid(landmarks[rightEyeStart:rightEyeEnd])
	return left, right, nil
}

func centroid(pts []Point) Point {
	var c Point
	for _, p := range pts {
		c.X += p.X
		c.Y += p.Y
	}
	n := float64(len(pts))
	c.X /= n
	c.Y /= n
	return c
}

// Transform is a 2x3 affine matrix mapping source pixel coordinates onto
// the output canvas: x' = M[0][0]x + M[0][1]y + M[0][2], likewise for y'.
type Transform struct {
	M [2][3]float64
}

// Apply maps a source point through the transform.
func (t Transform) Apply(p Point) Point {
	return Point{
		X: t.M[0][0]*p.X + t.M[0][1]*p.Y + t.M[0][2],
		Y: t.M[1][0]*p.X + t.M[1][1]*p.Y + t.M[1][2],
	}
}

// Derive builds the similarity transform taking the eye anchors to their
// target canvas positions. Rotation and uniform scale happen about the eye
// midpoint; the translation is then fixed up so the transformed left-eye
// anchor lands exactly on the left target, x and y independently.
func Derive(left, right Point, p Params) (Transform, error) {
	dx := right.X - left.X
	dy := right.Y - left.Y
	dist := math.Hypot(dx, dy)
	if math.IsNaN(dist) || dist < minEyeDistance {
		return Transform{}, fmt.Errorf("%w: inter-eye distance %g", ErrDegenerateGeometry, dist)
	}

	angle := math.Atan2(dy, dx) * 180 / math.Pi

	targetLeft := p.TargetLeft()
	targetRight := p.TargetRight()
	scale := (targetRight.X - targetLeft.X) / dist
	if math.IsInf(scale, 0) || math.IsNaN(scale) {
		return Transform{}, fmt.Errorf("%w: scale is not finite", ErrDegenerateGeometry)
	}

	center := Point{X: left.X + dx/2, Y: left.Y + dy/2}
	t := rotationMatrix2D(center, angle, scale)

	// The rotation fixes the midpoint, not the eyes. Shift so the
	// transformed left anchor hits its target exactly.
	moved := t.Apply(left)
	t.M[0][2] += targetLeft.X - moved.X
	t.M[1][2] += targetLeft.Y - moved.Y

	return t, nil
}

// rotationMatrix2D mirrors OpenCV's getRotationMatrix2D: rotation by angle
// degrees (positive = counter-clockwise in image coordinates) and uniform
// scale about center.
func rotationMatrix2D(center Point, angleDeg, scale float64) Transform {
	theta := angleDeg * math.Pi / 180
	alpha := scale * math.Cos(theta)
	beta := scale * math.Sin(theta)
	return Transform{M: [2][3]float64{
		{alpha, beta, (1-alpha)*center.X - beta*center.Y},
		{-beta, alpha, beta*center.X + (1-alpha)*center.Y},
	}}
}
