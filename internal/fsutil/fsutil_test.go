package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestListImagesFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	names := []string{"a.JPG", "b.heic", "c.png", "d.Jpeg", "notes.txt", "e.tif"}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := ListImages(dir)
	if err != nil {
		t.Fatalf("ListImages: %v", err)
	}
	if len(files) != 4 {
		t.Fatalf("expected 4 images, got %d: %v", len(files), files)
	}
	// Deterministic name order.
	for i := 1; i < len(files); i++ {
		if files[i-1] >= files[i] {
			t.Fatalf("result not sorted: %v", files)
		}
	}
}

func TestIsHEIC(t *testing.T) {
	if !IsHEIC("x/y/IMG_0001.HEIC") {
		t.Fatal("upper-case HEIC should match")
	}
	if IsHEIC("a.jpg") {
		t.Fatal("jpg is not HEIC")
	}
}

func TestFirstExisting(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real")
	if err := os.WriteFile(real, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	got := FirstExisting(filepath.Join(dir, "missing"), real)
	if got != real {
		t.Fatalf("expected %s, got %q", real, got)
	}
	if FirstExisting(filepath.Join(dir, "missing")) != "" {
		t.Fatal("expected empty result when nothing exists")
	}
}
