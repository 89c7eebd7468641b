package sequence

import (
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// exifTimeLayout is the timestamp format EXIF stores, e.g. "2023:04:05 16:02:11".
const exifTimeLayout = "2006:01:02 15:04:05"

// exifTimestamp extracts the capture time from an image's embedded EXIF
// block, preferring the original-capture tag over the generic modified tag.
// Absent or unparsable metadata returns ok=false; the caller falls back to
// the file timestamp.
func exifTimestamp(path string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, false
	}

	for _, field := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTime} {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		raw, err := tag.StringVal()
		if err != nil {
			continue
		}
		if t, ok := parseExifTime(raw); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseExifTime parses an EXIF datetime string in the camera's local time.
func parseExifTime(raw string) (time.Time, bool) {
	t, err := time.ParseInLocation(exifTimeLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
