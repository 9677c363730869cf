package capture

import (
	"path/filepath"
	"slices"
	"time"
)

// CameraFile is one media file discovered on a card.
type CameraFile struct {
	Path      string
	Name      string
	Timestamp time.Time
}

// NewCameraFile builds a record for path with its resolved capture time.
func NewCameraFile(path string, ts time.Time) CameraFile {
	return CameraFile{Path: path, Name: filepath.Base(path), Timestamp: ts}
}

// Epoch returns the capture time as whole Unix seconds.
func (f CameraFile) Epoch() int64 {
	return f.Timestamp.Unix()
}

// SortByTimestamp orders files by capture time, oldest first. Files with equal
// timestamps keep their discovery order.
func SortByTimestamp(files []CameraFile) {
	slices.SortStableFunc(files, func(a, b CameraFile) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}
