//go:build !linux

package hostclock

import (
	"time"

	"github.com/rtcsync/rtcsync/errcode"
)

func setRealtime(time.Time) error {
	return errcode.New(errcode.Unsupported, "set host clock", "only supported on linux", nil)
}
