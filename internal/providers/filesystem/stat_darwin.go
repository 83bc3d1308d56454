//go:build darwin

package filesystem

import (
	"os"
	"syscall"
	"time"
)

// statTimes extracts access and birth times from the platform stat
// structure.
func statTimes(info os.FileInfo) (accessed, created int64, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0, false
	}
	accessed = time.Unix(stat.Atimespec.Sec, stat.Atimespec.Nsec).Unix()
	created = time.Unix(stat.Birthtimespec.Sec, stat.Birthtimespec.Nsec).Unix()
	return accessed, created, true
}
