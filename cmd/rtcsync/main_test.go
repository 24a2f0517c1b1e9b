package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/rtcsync/rtcsync/clocksync"
	"github.com/rtcsync/rtcsync/config"
	"github.com/rtcsync/rtcsync/ds3231"
	"github.com/rtcsync/rtcsync/errcode"
	"github.com/rtcsync/rtcsync/hostclock"
	"github.com/rtcsync/rtcsync/i2cdev"
)

// regBus is a DS3231 register file.
type regBus struct {
	regs   [0x13]byte
	err    error
	closed int
}

// newRegBus holds Thu 2024-01-18 12:30:45 and 25.5 °C.
func newRegBus() *regBus {
	b := &regBus{}
	copy(b.regs[:], []byte{0x45, 0x30, 0x12, 0x05, 0x18, 0x01, 0x24})
	b.regs[0x11], b.regs[0x12] = 0x19, 0x80
	return b
}

func (b *regBus) ReadRegister(reg uint8, buf []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	return copy(buf, b.regs[reg:]), nil
}

func (b *regBus) WriteRegister(reg uint8, data []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	return copy(b.regs[reg:], data), nil
}

func (b *regBus) Close() error {
	b.closed++
	return nil
}

var hostNow = time.Date(2025, time.March, 9, 8, 7, 6, 0, time.UTC)

type run struct {
	out    bytes.Buffer
	bus    *regBus
	host   *hostclock.Fake
	opened []config.BusConfig
}

func (r *run) exec(args ...string) error {
	open := func(cfg config.BusConfig) (ds3231.Bus, io.Closer, error) {
		r.opened = append(r.opened, cfg)
		if r.bus == nil {
			return nil, nil, errcode.New(errcode.TransportOpen, "open "+cfg.Device, "no such device", nil)
		}
		return r.bus, r.bus, nil
	}
	a := newApp(&r.out, open, r.host)
	argv := append([]string{"rtcsync", "--timezone", "UTC", "--log-level", "error"}, args...)
	return a.cli().Run(argv)
}

func newRun() *run {
	return &run{bus: newRegBus(), host: hostclock.NewFake(hostNow)}
}

func TestRead(t *testing.T) {
	c := qt.New(t)
	r := newRun()
	c.Assert(r.exec("read"), qt.IsNil)
	c.Assert(r.out.String(), qt.Equals, "Time on RTC: Thu Jan 18 12:30:45 2024\n")
	c.Assert(r.bus.closed, qt.Equals, 1)
	c.Assert(r.opened[0].Device, qt.Equals, i2cdev.DefaultPath)
}

func TestPositionalDevice(t *testing.T) {
	c := qt.New(t)
	r := newRun()
	c.Assert(r.exec("--address", "0x57", "temperature", "/dev/i2c-3"), qt.IsNil)
	c.Assert(r.out.String(), qt.Equals, "Temperature: 25.50 C\n")
	c.Assert(r.opened, qt.HasLen, 1)
	c.Assert(r.opened[0].Device, qt.Equals, "/dev/i2c-3")
	c.Assert(r.opened[0].Address, qt.Equals, uint16(0x57))
}

func TestWriteReadsBack(t *testing.T) {
	c := qt.New(t)
	r := newRun()
	c.Assert(r.exec("write"), qt.IsNil)
	c.Assert(r.out.String(), qt.Equals, "Time on RTC: Sun Mar  9 08:07:06 2025\n")
	c.Assert(r.bus.regs[:7], qt.DeepEquals, []byte{0x06, 0x07, 0x08, 0x01, 0x09, 0x03, 0x25})
}

func TestUpdate(t *testing.T) {
	c := qt.New(t)
	r := newRun()
	c.Assert(r.exec("update"), qt.IsNil)
	got, _ := r.host.Now()
	c.Assert(got.Equal(time.Date(2024, time.January, 18, 12, 30, 45, 0, time.UTC)), qt.IsTrue)
	c.Assert(r.out.String(), qt.Equals, "System time set to: Thu Jan 18 12:30:45 2024\n")
}

func TestStatus(t *testing.T) {
	c := qt.New(t)
	r := newRun()
	r.bus.regs[0x0F] = 0x80
	c.Assert(r.exec("status"), qt.IsNil)
	out := r.out.String()
	c.Assert(out, qt.Contains, "Time on RTC: Thu Jan 18 12:30:45 2024\n")
	c.Assert(out, qt.Contains, "Temperature: 25.50 C\n")
	c.Assert(out, qt.Contains, "Oscillator stopped")
}

func TestFailuresPrintNothing(t *testing.T) {
	for _, cmd := range []string{"read", "write", "update", "temperature", "status"} {
		t.Run(cmd, func(t *testing.T) {
			c := qt.New(t)
			r := newRun()
			r.bus.err = errors.New("remote I/O error")
			err := r.exec(cmd)
			c.Assert(err, qt.ErrorMatches, `.*remote I/O error`)
			c.Assert(errcode.Of(err), qt.Equals, errcode.TransportIO)
			c.Assert(r.out.String(), qt.Equals, "")
			c.Assert(r.bus.closed, qt.Equals, 1)
		})
	}
}

func TestOpenFailure(t *testing.T) {
	c := qt.New(t)
	r := &run{host: hostclock.NewFake(hostNow)}
	err := r.exec("read")
	c.Assert(errcode.Of(err), qt.Equals, errcode.TransportOpen)
	c.Assert(r.out.String(), qt.Equals, "")
}

func TestBadConfigFlag(t *testing.T) {
	c := qt.New(t)
	r := newRun()
	err := r.exec("--backend", "serial", "read")
	c.Assert(err, qt.ErrorMatches, `config: unknown bus.backend "serial"`)
	c.Assert(r.opened, qt.HasLen, 0)
}

func testSession(bus ds3231.Bus, out io.Writer) *session {
	log, _ := logtest.NewNullLogger()
	cfg := &config.Config{NTP: config.NTPConfig{Server: "127.0.0.1:1", Timeout: time.Second}}
	return &session{
		sync: clocksync.New(ds3231.New(bus), hostclock.NewFake(hostNow), time.UTC, log),
		cfg:  cfg,
		log:  log,
		out:  out,
	}
}

func TestShell(t *testing.T) {
	c := qt.New(t)
	var out bytes.Buffer
	s := testSession(newRegBus(), &out)
	in := strings.NewReader("temperature\n\nbogus\nread\n'unterminated\nhelp\nexit\nread\n")

	c.Assert(runShell(context.Background(), s, in), qt.IsNil)
	got := out.String()
	c.Assert(got, qt.Contains, "Temperature: 25.50 C\n")
	c.Assert(got, qt.Contains, `unknown command "bogus", try help`)
	c.Assert(got, qt.Contains, "error: ")
	c.Assert(got, qt.Contains, "  temperature\n")
	c.Assert(strings.Count(got, "Time on RTC:"), qt.Equals, 1)
}

func TestShellKeepsGoingAfterFailure(t *testing.T) {
	c := qt.New(t)
	var out bytes.Buffer
	bus := newRegBus()
	bus.regs[0x02] = 0x52 // 12-hour mode
	s := testSession(bus, &out)

	c.Assert(runShell(context.Background(), s, strings.NewReader("read\ntemperature\n")), qt.IsNil)
	got := out.String()
	c.Assert(got, qt.Contains, "error: decode time: unsupported")
	c.Assert(got, qt.Contains, "Temperature: 25.50 C\n")
	c.Assert(got, qt.Not(qt.Contains), "Time on RTC:")
}
