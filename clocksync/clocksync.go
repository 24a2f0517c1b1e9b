// Package clocksync moves wall-clock time between the RTC and the host clock.
//
// A Syncer serialises every operation, so one instance can be shared by the
// HTTP server and the telemetry loop while the driver underneath still sees a
// single caller.
package clocksync

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rtcsync/rtcsync/ds3231"
	"github.com/rtcsync/rtcsync/errcode"
	"github.com/rtcsync/rtcsync/hostclock"
)

// RTC is the subset of *ds3231.Device the synchroniser drives.
type RTC interface {
	ReadTime() (ds3231.CalendarTime, error)
	SetTime(ds3231.CalendarTime) error
	ReadTemperature() (float64, error)
	LostPower() (bool, error)
}

type Syncer struct {
	mu   sync.Mutex
	rtc  RTC
	host hostclock.Clock
	loc  *time.Location
	log  logrus.FieldLogger
}

// New returns a Syncer keeping the RTC in wall-clock time of loc.
func New(rtc RTC, host hostclock.Clock, loc *time.Location, log logrus.FieldLogger) *Syncer {
	if loc == nil {
		loc = time.Local
	}
	return &Syncer{rtc: rtc, host: host, loc: loc, log: log}
}

// Location is the zone RTC wall-clock time is interpreted in.
func (s *Syncer) Location() *time.Location { return s.loc }

// Status is a point-in-time view of both clocks.
type Status struct {
	RTCTime      time.Time `json:"rtc_time"`
	HostTime     time.Time `json:"host_time"`
	DriftSeconds float64   `json:"drift_seconds"` // host minus RTC
	TemperatureC float64   `json:"temperature_c"`
	LostPower    bool      `json:"lost_power"`
}

// ReadRTC returns the RTC's time.
func (s *Syncer) ReadRTC() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readRTC()
}

func (s *Syncer) readRTC() (time.Time, error) {
	ct, err := s.rtc.ReadTime()
	if err != nil {
		s.fail("read rtc", err)
		return time.Time{}, err
	}
	s.log.WithField("rtc", ct.String()).Debug("rtc time read")
	return ct.In(s.loc), nil
}

// WriteRTC copies the host time into the RTC and returns the time read back.
func (s *Syncer) WriteRTC() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now, err := s.host.Now()
	if err != nil {
		s.fail("read host clock", err)
		return time.Time{}, err
	}
	if err := s.setRTC(now); err != nil {
		return time.Time{}, err
	}
	return s.readRTC()
}

// SetRTC writes t to the RTC.
func (s *Syncer) SetRTC(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setRTC(t)
}

func (s *Syncer) setRTC(t time.Time) error {
	ct := ds3231.FromTime(t.In(s.loc))
	if err := s.rtc.SetTime(ct); err != nil {
		s.fail("write rtc", err)
		return err
	}
	s.log.WithField("rtc", ct.String()).Info("rtc time written")
	return nil
}

// UpdateHost sets the host clock from the RTC and returns the time applied.
// A lost-power RTC still updates the host but is logged.
func (s *Syncer) UpdateHost() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lost, err := s.rtc.LostPower(); err != nil {
		s.fail("read status", err)
		return time.Time{}, err
	} else if lost {
		s.log.Warn("rtc oscillator stopped since last set; its time may be wrong")
	}
	t, err := s.readRTC()
	if err != nil {
		return time.Time{}, err
	}
	if err := s.host.Set(t); err != nil {
		s.fail("set host clock", err)
		return time.Time{}, fmt.Errorf("set host clock: %w", err)
	}
	s.log.WithField("time", t.Format(time.RFC3339)).Info("host clock updated from rtc")
	return t, nil
}

// Temperature returns the RTC die temperature in °C.
func (s *Syncer) Temperature() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	temp, err := s.rtc.ReadTemperature()
	if err != nil {
		s.fail("read temperature", err)
		return 0, err
	}
	return temp, nil
}

// Status reads both clocks, the temperature and the oscillator-stop flag.
func (s *Syncer) Status() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st Status
	var err error
	if st.RTCTime, err = s.readRTC(); err != nil {
		return Status{}, err
	}
	if st.HostTime, err = s.host.Now(); err != nil {
		s.fail("read host clock", err)
		return Status{}, err
	}
	st.HostTime = st.HostTime.In(s.loc).Truncate(time.Second)
	st.DriftSeconds = st.HostTime.Sub(st.RTCTime).Seconds()
	if st.TemperatureC, err = s.rtc.ReadTemperature(); err != nil {
		s.fail("read temperature", err)
		return Status{}, err
	}
	if st.LostPower, err = s.rtc.LostPower(); err != nil {
		s.fail("read status", err)
		return Status{}, err
	}
	return st, nil
}

func (s *Syncer) fail(op string, err error) {
	s.log.WithFields(logrus.Fields{
		"op":   op,
		"code": errcode.Of(err),
	}).WithError(err).Error("rtc operation failed")
}
