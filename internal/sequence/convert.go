package sequence

import (
	"fmt"
	"time"

	"gopkg.in/gographics/imagick.v3/imagick"
)

// converter wraps the ImageMagick runtime for the duration of one Resolve
// call. It turns every source, HEIC included, into a uniform JPEG copy.
type converter struct{}

func newConverter() *converter {
	imagick.Initialize()
	return &converter{}
}

func (c *converter) close() {
	imagick.Terminate()
}

// toJPEG decodes in (any supported container) and writes a JPEG copy at
// out with the given quality. Embedded metadata travels with the copy, and
// the pixel data is auto-oriented so downstream geometry sees the image
// the way the camera did.
func (c *converter) toJPEG(in, out string, quality int) error {
	mw := imagick.NewMagickWand()
	defer mw.Destroy()

	if err := mw.ReadImage(in); err != nil {
		return fmt.Errorf("read %s: %w", in, err)
	}
	if err := mw.AutoOrientImage(); err != nil {
		return fmt.Errorf("auto-orient %s: %w", in, err)
	}
	if err := mw.SetImageFormat("JPEG"); err != nil {
		return err
	}
	if err := mw.SetImageCompressionQuality(uint(quality)); err != nil {
		return err
	}
	if err := mw.WriteImage(out); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	return nil
}

// exifTimestamp reads capture time from a container goexif cannot parse
// (HEIC). Tag priority matches exifTimestamp in exif.go.
func (c *converter) exifTimestamp(path string) (time.Time, bool) {
	mw := imagick.NewMagickWand()
	defer mw.Destroy()

	if err := mw.ReadImage(path); err != nil {
		return time.Time{}, false
	}
	for _, prop := range []string{"exif:DateTimeOriginal", "exif:DateTime"} {
		raw := mw.GetImageProperty(prop)
		if raw == "" {
			continue
		}
		if t, ok := parseExifTime(raw); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
