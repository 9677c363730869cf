package probe

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"

	"cardvault/internal/runctx"
)

// NativeEXIF decodes EXIF date tags without an external process.
type NativeEXIF struct{}

var dateFields = []exif.FieldName{
	exif.DateTimeOriginal,
	exif.DateTimeDigitized,
	exif.DateTime,
}

// CaptureDate returns the first populated EXIF date tag of path in
// "YYYY:MM:DD HH:MM:SS" form.
func (NativeEXIF) CaptureDate(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return "", runctx.Wrap(runctx.ErrExternalTool, "probe", "decode exif", path, err)
	}
	for _, field := range dateFields {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		value, err := tag.StringVal()
		if err != nil {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			return value, nil
		}
	}
	return "", runctx.Wrap(runctx.ErrExternalTool, "probe", "decode exif", fmt.Sprintf("no date tags in %s", path), nil)
}
