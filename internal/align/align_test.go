package align

import (
	"errors"
	"math"
	"testing"
)

const tolerance = 1e-9

func testParams() Params {
	return Params{
		Width:          1024,
		Height:         1024,
		EyeXRatioLeft:  0.35,
		EyeXRatioRight: 0.65,
		EyeYRatio:      0.35,
	}
}

// syntheticLandmarks builds a 68-point set whose eye centroids are exactly
// the given anchors. Non-eye indices carry filler geometry.
func syntheticLandmarks(left, right Point) []Point {
	pts := make([]Point, LandmarkCount)
	for i := range pts {
		pts[i] = Point{X: float64(i), Y: float64(i) * 2}
	}
	// Spread the eye contour around the anchor so the centroid, not any
	// single point, is what matters.
	offsets := []Point{{-2, 0}, {-1, -1}, {1, -1}, {2, 0}, {1, 1}, {-1, 1}}
	for i, off := range offsets {
		pts[leftEyeStart+i] = Point{X: left.X + off.X, Y: left.Y + off.Y}
		pts[rightEyeStart+i] = Point{X: right.X + off.X, Y: right.Y + off.Y}
	}
	return pts
}

func TestEyeAnchorsCentroids(t *testing.T) {
	left := Point{X: 310.5, Y: 420.25}
	right := Point{X: 470, Y: 435}
	pts := syntheticLandmarks(left, right)

	gotL, gotR, err := EyeAnchors(pts)
	if err != nil {
		t.Fatalf("EyeAnchors: %v", err)
	}
	if math.Abs(gotL.X-left.X) > tolerance || math.Abs(gotL.Y-left.Y) > tolerance {
		t.Fatalf("left anchor %v, want %v", gotL, left)
	}
	if math.Abs(gotR.X-right.X) > tolerance || math.Abs(gotR.Y-right.Y) > tolerance {
		t.Fatalf("right anchor %v, want %v", gotR, right)
	}
}

func TestEyeAnchorsRejectsWrongCount(t *testing.T) {
	if _, _, err := EyeAnchors(make([]Point, 67)); err == nil {
		t.Fatal("expected error for 67 points")
	}
	if _, _, err := EyeAnchors(nil); err == nil {
		t.Fatal("expected error for empty set")
	}
}

func TestDeriveHitsEyeTargets(t *testing.T) {
	p := testParams()
	cases := []struct {
		name        string
		left, right Point
	}{
		{"upright", Point{400, 500}, Point{560, 500}},
		{"rotated", Point{400, 500}, Point{512, 612}},
		{"tiny face", Point{101, 90}, Point{113, 88}},
		{"large tilted", Point{220, 1800}, Point{1450, 1100}},
		{"reversed slope", Point{300, 640}, Point{520, 560}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr, err := Derive(tc.left, tc.right, p)
			if err != nil {
				t.Fatalf("Derive: %v", err)
			}

			gotL := tr.Apply(tc.left)
			gotR := tr.Apply(tc.right)

			wantL := p.TargetLeft()
			wantR := p.TargetRight()
			if math.Abs(gotL.X-wantL.X) > 1e-6 || math.Abs(gotL.Y-wantL.Y) > 1e-6 {
				t.Fatalf("left eye landed at %v, want %v", gotL, wantL)
			}
			if math.Abs(gotR.X-wantR.X) > 1e-6 || math.Abs(gotR.Y-wantR.Y) > 1e-6 {
				t.Fatalf("right eye landed at %v, want %v", gotR, wantR)
			}

			// Inter-eye distance equals the configured target distance
			// regardless of source scale or rotation.
			dist := math.Hypot(gotR.X-gotL.X, gotR.Y-gotL.Y)
			wantDist := (p.EyeXRatioRight - p.EyeXRatioLeft) * float64(p.Width)
			if math.Abs(dist-wantDist) > 1e-6 {
				t.Fatalf("inter-eye distance %v, want %v", dist, wantDist)
			}

			// Eye midpoint sits at the configured height.
			midY := (gotL.Y + gotR.Y) / 2
			if math.Abs(midY-p.EyeYRatio*float64(p.Height)) > 1e-6 {
				t.Fatalf("eye midpoint y %v, want %v", midY, p.EyeYRatio*float64(p.Height))
			}
		})
	}
}

func TestDeriveMatrixIsFinite(t *testing.T) {
	tr, err := Derive(Point{100, 200}, Point{300, 180}, testParams())
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	for _, row := range tr.M {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("matrix contains non-finite entry: %v", tr.M)
			}
		}
	}
}

func TestDeriveRejectsCoincidentAnchors(t *testing.T) {
	anchor := Point{X: 512, Y: 400}
	_, err := Derive(anchor, anchor, testParams())
	if !errors.Is(err, ErrDegenerateGeometry) {
		t.Fatalf("want ErrDegenerateGeometry, got %v", err)
	}

	// Nearly coincident is just as degenerate.
	_, err = Derive(anchor, Point{X: anchor.X + 1e-9, Y: anchor.Y}, testParams())
	if !errors.Is(err, ErrDegenerateGeometry) {
		t.Fatalf("want ErrDegenerateGeometry for near-zero distance, got %v", err)
	}
}

func TestRotationMatrixFixesCenter(t *testing.T) {
	center := Point{X: 77, Y: -13}
	tr := rotationMatrix2D(center, 33.0, 2.5)
	got := tr.Apply(center)
	if math.Abs(got.X-center.X) > 1e-9 || math.Abs(got.Y-center.Y) > 1e-9 {
		t.Fatalf("center moved: %v -> %v", center, got)
	}
}
