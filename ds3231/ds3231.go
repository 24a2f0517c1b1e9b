// Package ds3231 implements a driver for the DS3231 Real-Time Clock (RTC), providing read-write of the current time
// and read-only access to the on-die temperature sensor. The DS3231 itself supports two alarms, a square-wave output
// and aging offset trimming; the alarm and initialization entry points exist but report errcode.Unimplemented.
//
// Time is always kept in 24-hour mode, and every time access is a single 7-byte burst starting at the seconds
// register so the chip's auto-incrementing pointer delivers a coherent snapshot.
//
// Datasheet: https://www.analog.com/media/en/technical-documentation/data-sheets/DS3231.pdf
package ds3231

import (
	"fmt"
	"time"

	"github.com/rtcsync/rtcsync/errcode"
)

// Device is a DS3231 reached through a Bus. It is not safe for concurrent use.
type Device struct {
	bus Bus
	cfg Config
}

// Config holds the driver options that Configure applies.
type Config struct {
	// RereadOnRollover reads the time block a second time when the first
	// read lands on second 59, so a minute carry rippling through the
	// registers mid-burst is not observed.
	RereadOnRollover bool
}

// New creates a driver on a bus already bound to the chip's address. It does not touch the device.
func New(bus Bus) *Device {
	return &Device{
		bus: bus,
		cfg: Config{RereadOnRollover: true},
	}
}

// Configure replaces the driver options. It does not touch the device.
func (d *Device) Configure(c Config) {
	d.cfg = c
}

// SetTime writes all seven time registers in one transaction.
func (d *Device) SetTime(t CalendarTime) error {
	buf, err := encodeTime(t)
	if err != nil {
		return fmt.Errorf("set time: %w", err)
	}
	return d.write("set time", RegSeconds, buf[:])
}

// ReadTime reads all seven time registers in one transaction. A failed or
// short read never yields a partially filled CalendarTime.
func (d *Device) ReadTime() (CalendarTime, error) {
	t, err := d.readTime()
	if err != nil || !d.cfg.RereadOnRollover || t.Second != 59 {
		return t, err
	}
	return d.readTime()
}

func (d *Device) readTime() (CalendarTime, error) {
	var buf [timeLen]byte
	if err := d.read("read time", RegSeconds, buf[:]); err != nil {
		return CalendarTime{}, err
	}
	return decodeTime(buf)
}

// Set writes t, broken down in its own location.
func (d *Device) Set(t time.Time) error {
	return d.SetTime(FromTime(t))
}

// Now reads the clock and interprets it as wall-clock time in loc.
func (d *Device) Now(loc *time.Location) (time.Time, error) {
	c, err := d.ReadTime()
	if err != nil {
		return time.Time{}, err
	}
	return c.In(loc), nil
}

// ReadTemperature returns the die temperature in degrees Celsius with 1/256 °C
// resolution (the chip itself only fills the top two fraction bits).
func (d *Device) ReadTemperature() (float64, error) {
	var buf [temperatureLen]byte
	if err := d.read("read temperature", RegTemperature, buf[:]); err != nil {
		return 0, err
	}
	return decodeTemperature(buf), nil
}

func decodeTemperature(buf [temperatureLen]byte) float64 {
	raw := int16(uint16(buf[0])<<8 | uint16(buf[1]))
	return float64(raw) / 256.0
}

// LostPower reports whether the oscillator-stop flag is set, meaning the
// oscillator halted at some point and the time can't be trusted. The flag is
// left untouched.
func (d *Device) LostPower() (bool, error) {
	buf := [1]byte{}
	if err := d.read("read status", RegStatus, buf[:]); err != nil {
		return false, err
	}
	return buf[0]&flagOscStop != 0, nil
}

func (d *Device) read(op string, reg Register, buf []byte) error {
	n, err := d.bus.ReadRegister(uint8(reg), buf)
	if err != nil {
		return errcode.New(errcode.TransportIO, op, fmt.Sprintf("read %v", reg), err)
	}
	if n != len(buf) {
		return errcode.New(errcode.TransportIO, op, fmt.Sprintf("read %v: got %d of %d bytes", reg, n, len(buf)), nil)
	}
	return nil
}

func (d *Device) write(op string, reg Register, data []byte) error {
	n, err := d.bus.WriteRegister(uint8(reg), data)
	if err != nil {
		return errcode.New(errcode.TransportIO, op, fmt.Sprintf("write %v", reg), err)
	}
	if n != len(data) {
		return errcode.New(errcode.TransportIO, op, fmt.Sprintf("write %v: wrote %d of %d bytes", reg, n, len(data)), nil)
	}
	return nil
}
