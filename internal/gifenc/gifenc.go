// Package gifenc assembles an ordered frame sequence into a looping
// animated GIF at a fixed frame rate.
package gifenc

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"os"
)

// Delay converts a frame rate to the per-frame GIF delay in hundredths of
// a second, 1000/fps milliseconds rounded to the nearest tick. The GIF
// time base cannot express delays under 10ms, and a zero delay means
// "as fast as the decoder allows", so the result never drops below 1.
func Delay(fps int) int {
	d := (100 + fps/2) / fps
	if d < 1 {
		d = 1
	}
	return d
}

// Encode writes frames as one animated GIF with the given frame rate and
// loop count (0 = loop forever). An empty sequence is an error; the
// encoder cannot proceed meaningfully with zero input.
func Encode(w io.Writer, frames []image.Image, fps, loop int) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to encode")
	}
	if fps <= 0 {
		return fmt.Errorf("fps must be positive, got %d", fps)
	}
	if loop < 0 {
		return fmt.Errorf("loop count must be >= 0, got %d", loop)
	}

	delay := Delay(fps)
	anim := &gif.GIF{LoopCount: loop}
	for _, frame := range frames {
		anim.Image = append(anim.Image, quantize(frame))
		anim.Delay = append(anim.Delay, delay)
	}
	return gif.EncodeAll(w, anim)
}

// EncodeFile encodes to a file at path, creating or truncating it.
func EncodeFile(path string, frames []image.Image, fps, loop int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, frames, fps, loop); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// quantize reduces a frame to a GIF-compatible palette with error
// diffusion dithering.
func quantize(frame image.Image) *image.Paletted {
	bounds := frame.Bounds()
	paletted := image.NewPaletted(bounds, palette.Plan9)
	draw.FloydSteinberg.Draw(paletted, bounds, frame, bounds.Min)
	return paletted
}
