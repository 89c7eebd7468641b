package face

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"facelapse/internal/align"
	"facelapse/internal/config"
)

func TestNewLocatorRequiresModelFiles(t *testing.T) {
	dir := t.TempDir()
	cascade := filepath.Join(dir, "cascade.xml")
	model := filepath.Join(dir, "lbfmodel.yaml")

	_, err := NewLocator(config.Detection{CascadePath: cascade, LandmarkModelPath: model})
	if !errors.Is(err, ErrModelMissing) {
		t.Fatalf("want ErrModelMissing for absent cascade, got %v", err)
	}

	// Cascade present, landmark model still missing.
	if err := os.WriteFile(cascade, []byte("<xml/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = NewLocator(config.Detection{CascadePath: cascade, LandmarkModelPath: model})
	if !errors.Is(err, ErrModelMissing) {
		t.Fatalf("want ErrModelMissing for absent landmark model, got %v", err)
	}
}

func TestLandmarkPointsUnpacksPairs(t *testing.T) {
	coords := []float64{1, 2, 3.5, 4.5, -1, 0}
	pts := landmarkPoints(coords)
	if len(pts) != 3 {
		t.Fatalf("expected 3 points, got %d", len(pts))
	}
	want := []align.Point{{X: 1, Y: 2}, {X: 3.5, Y: 4.5}, {X: -1, Y: 0}}
	for i, w := range want {
		if pts[i] != w {
			t.Fatalf("point %d = %v, want %v", i, pts[i], w)
		}
	}
}

func TestLargestRegionSelection(t *testing.T) {
	small := image.Rect(0, 0, 40, 40)
	big := image.Rect(100, 100, 300, 320)
	other := image.Rect(10, 10, 60, 60)

	got := largestRegion([]image.Rectangle{small, big, other})
	if got != big {
		t.Fatalf("want %v, got %v", big, got)
	}
}

func TestLargestRegionTieBreaksFirstFound(t *testing.T) {
	first := image.Rect(0, 0, 100, 100)
	second := image.Rect(500, 500, 600, 600) // same area
	got := largestRegion([]image.Rectangle{first, second})
	if got != first {
		t.Fatalf("tie should keep first found, got %v", got)
	}
}
