//go:build linux

package filesystem

import (
	"os"
	"syscall"
	"time"
)

// statTimes extracts access and change times from the platform stat
// structure. Linux exposes no birth time through syscall.Stat_t, so the
// inode change time stands in for creation.
func statTimes(info os.FileInfo) (accessed, created int64, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0, false
	}
	accessed = time.Unix(stat.Atim.Sec, stat.Atim.Nsec).Unix()
	created = time.Unix(stat.Ctim.Sec, stat.Ctim.Nsec).Unix()
	return accessed, created, true
}
