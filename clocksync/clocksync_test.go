package clocksync

import (
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/rtcsync/rtcsync/ds3231"
	"github.com/rtcsync/rtcsync/errcode"
	"github.com/rtcsync/rtcsync/hostclock"
)

type fakeRTC struct {
	now     ds3231.CalendarTime
	temp    float64
	lost    bool
	err     error
	setErr  error
	setCall int
}

func (f *fakeRTC) ReadTime() (ds3231.CalendarTime, error) {
	if f.err != nil {
		return ds3231.CalendarTime{}, f.err
	}
	return f.now, nil
}

func (f *fakeRTC) SetTime(ct ds3231.CalendarTime) error {
	f.setCall++
	if f.setErr != nil {
		return f.setErr
	}
	f.now = ct
	return nil
}

func (f *fakeRTC) ReadTemperature() (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.temp, nil
}

func (f *fakeRTC) LostPower() (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.lost, nil
}

var (
	rtcTime  = time.Date(2024, time.February, 29, 23, 59, 30, 0, time.UTC)
	hostTime = time.Date(2025, time.July, 4, 8, 15, 45, 250_000_000, time.UTC)
	errIO    = errcode.New(errcode.TransportIO, "read time", "seconds(0x00)", errors.New("remote I/O error"))
)

func newSyncer() (*Syncer, *fakeRTC, *hostclock.Fake, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	rtc := &fakeRTC{now: ds3231.FromTime(rtcTime), temp: 25.5}
	host := hostclock.NewFake(hostTime)
	return New(rtc, host, time.UTC, log), rtc, host, hook
}

func TestReadRTC(t *testing.T) {
	c := qt.New(t)
	s, _, _, _ := newSyncer()

	got, err := s.ReadRTC()
	c.Assert(err, qt.IsNil)
	c.Assert(got.Equal(rtcTime), qt.IsTrue)
}

func TestReadRTCFailureLogs(t *testing.T) {
	c := qt.New(t)
	s, rtc, _, hook := newSyncer()
	rtc.err = errIO

	got, err := s.ReadRTC()
	c.Assert(err, qt.ErrorIs, errcode.TransportIO)
	c.Assert(got.IsZero(), qt.IsTrue)

	entry := hook.LastEntry()
	c.Assert(entry, qt.Not(qt.IsNil))
	c.Assert(entry.Level, qt.Equals, logrus.ErrorLevel)
	c.Assert(entry.Data["op"], qt.Equals, "read rtc")
	c.Assert(entry.Data["code"], qt.Equals, errcode.TransportIO)
}

func TestWriteRTCReadsBack(t *testing.T) {
	c := qt.New(t)
	s, rtc, _, _ := newSyncer()

	got, err := s.WriteRTC()
	c.Assert(err, qt.IsNil)
	c.Assert(rtc.setCall, qt.Equals, 1)
	c.Assert(got.Equal(hostTime.Truncate(time.Second)), qt.IsTrue, qt.Commentf("got %v", got))
	c.Assert(rtc.now.Weekday, qt.Equals, int(time.Friday))
}

func TestWriteRTCInLocation(t *testing.T) {
	c := qt.New(t)
	log, _ := test.NewNullLogger()
	loc := time.FixedZone("UTC+2", 2*60*60)
	rtc := &fakeRTC{}
	s := New(rtc, hostclock.NewFake(hostTime), loc, log)

	_, err := s.WriteRTC()
	c.Assert(err, qt.IsNil)
	// wall-clock time in loc is stored, not UTC
	c.Assert(rtc.now.Hour, qt.Equals, 10)
}

func TestWriteRTCFailure(t *testing.T) {
	c := qt.New(t)
	s, rtc, _, _ := newSyncer()
	rtc.setErr = errcode.New(errcode.OutOfRange, "set time", "year", nil)

	_, err := s.WriteRTC()
	c.Assert(err, qt.ErrorIs, errcode.OutOfRange)
}

func TestUpdateHost(t *testing.T) {
	c := qt.New(t)
	s, _, host, _ := newSyncer()

	got, err := s.UpdateHost()
	c.Assert(err, qt.IsNil)
	c.Assert(got.Equal(rtcTime), qt.IsTrue)
	now, _ := host.Now()
	c.Assert(now.Equal(rtcTime), qt.IsTrue)
}

func TestUpdateHostWarnsOnLostPower(t *testing.T) {
	c := qt.New(t)
	s, rtc, _, hook := newSyncer()
	rtc.lost = true

	_, err := s.UpdateHost()
	c.Assert(err, qt.IsNil)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = true
		}
	}
	c.Assert(warned, qt.IsTrue)
}

func TestUpdateHostDoesNotSetOnReadFailure(t *testing.T) {
	c := qt.New(t)
	s, rtc, host, _ := newSyncer()
	rtc.err = errIO

	_, err := s.UpdateHost()
	c.Assert(err, qt.ErrorIs, errcode.TransportIO)
	now, _ := host.Now()
	c.Assert(now, qt.Equals, hostTime)
}

func TestUpdateHostSetFailure(t *testing.T) {
	c := qt.New(t)
	s, _, host, _ := newSyncer()
	host.Err = errors.New("operation not permitted")

	_, err := s.UpdateHost()
	c.Assert(err, qt.ErrorMatches, `set host clock: operation not permitted`)
}

func TestTemperature(t *testing.T) {
	c := qt.New(t)
	s, rtc, _, _ := newSyncer()

	temp, err := s.Temperature()
	c.Assert(err, qt.IsNil)
	c.Assert(temp, qt.Equals, 25.5)

	rtc.err = errIO
	_, err = s.Temperature()
	c.Assert(err, qt.ErrorIs, errcode.TransportIO)
}

func TestStatus(t *testing.T) {
	c := qt.New(t)
	s, rtc, _, _ := newSyncer()
	rtc.lost = true

	st, err := s.Status()
	c.Assert(err, qt.IsNil)
	c.Assert(st.RTCTime.Equal(rtcTime), qt.IsTrue)
	c.Assert(st.HostTime.Equal(hostTime.Truncate(time.Second)), qt.IsTrue)
	c.Assert(st.DriftSeconds, qt.Equals, hostTime.Truncate(time.Second).Sub(rtcTime).Seconds())
	c.Assert(st.TemperatureC, qt.Equals, 25.5)
	c.Assert(st.LostPower, qt.IsTrue)

	rtc.err = errIO
	_, err = s.Status()
	c.Assert(err, qt.ErrorIs, errcode.TransportIO)
}

func TestSetRTC(t *testing.T) {
	c := qt.New(t)
	s, rtc, _, _ := newSyncer()
	when := time.Date(2031, time.December, 31, 23, 0, 0, 0, time.UTC)

	c.Assert(s.SetRTC(when), qt.IsNil)
	c.Assert(rtc.now, qt.Equals, ds3231.FromTime(when))
}
