//go:build linux

package hostclock

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

func setRealtime(t time.Time) error {
	ts := unix.NsecToTimespec(t.UnixNano())
	if err := unix.ClockSettime(unix.CLOCK_REALTIME, &ts); err != nil {
		return fmt.Errorf("hostclock: clock_settime: %w", err)
	}
	return nil
}
