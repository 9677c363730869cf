package capture

import (
	"time"

	"golang.org/x/sys/unix"
)

// ChangeTime returns the inode change time of path.
func ChangeTime(path string) (time.Time, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return time.Time{}, err
	}
	return time.Unix(st.Ctim.Unix()), nil
}
