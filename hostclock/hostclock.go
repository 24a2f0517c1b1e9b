// Package hostclock reads and sets the host's realtime clock.
package hostclock

import (
	"sync"
	"time"
)

// Clock is the host time source the synchroniser reads from and writes to.
type Clock interface {
	Now() (time.Time, error)
	Set(t time.Time) error
}

// System is the kernel realtime clock. Setting it needs CAP_SYS_TIME.
type System struct{}

func (System) Now() (time.Time, error) {
	return time.Now(), nil
}

func (System) Set(t time.Time) error {
	return setRealtime(t)
}

// Fake is an in-memory Clock that advances only when Set or Advance is called.
type Fake struct {
	mu  sync.Mutex
	t   time.Time
	Err error // returned by Set when non-nil
}

func NewFake(t time.Time) *Fake {
	return &Fake{t: t}
}

func (f *Fake) Now() (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t, nil
}

func (f *Fake) Set(t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.t = t
	return nil
}

func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}
