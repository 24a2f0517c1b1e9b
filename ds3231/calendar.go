package ds3231

import (
	"fmt"
	"time"

	"github.com/rtcsync/rtcsync/errcode"
)

// CalendarTime is a broken-down wall-clock time in the host convention:
// Weekday 0-6 from Sunday, Month 0-11 from January and Year counted from 1900.
// The chip stores weekday and month one higher and the year from 2000, so the
// representable years are 2000 through 2099.
type CalendarTime struct {
	Second  int
	Minute  int
	Hour    int // 24-hour clock
	Weekday int
	Day     int
	Month   int
	Year    int
}

// FromTime breaks t down in its own location.
func FromTime(t time.Time) CalendarTime {
	return CalendarTime{
		Second:  t.Second(),
		Minute:  t.Minute(),
		Hour:    t.Hour(),
		Weekday: int(t.Weekday()),
		Day:     t.Day(),
		Month:   int(t.Month()) - 1,
		Year:    t.Year() - 1900,
	}
}

// In returns the instant c names in loc. Weekday is not consulted.
func (c CalendarTime) In(loc *time.Location) time.Time {
	return time.Date(c.Year+1900, time.Month(c.Month+1), c.Day, c.Hour, c.Minute, c.Second, 0, loc)
}

func (c CalendarTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d (wday %d)",
		c.Year+1900, c.Month+1, c.Day, c.Hour, c.Minute, c.Second, c.Weekday)
}

type field struct {
	name    string
	v       int
	lo, hi  int
	reg     Register
	encoded int // value after the wire transform
}

func (c CalendarTime) fields() [timeLen]field {
	return [timeLen]field{
		{"second", c.Second, 0, 59, RegSeconds, c.Second},
		{"minute", c.Minute, 0, 59, RegMinutes, c.Minute},
		{"hour", c.Hour, 0, 23, RegHours, c.Hour}, // 0-23 keeps bit 6 (12-hour mode) clear
		{"weekday", c.Weekday, 0, 6, RegWeekday, c.Weekday + 1},
		{"day", c.Day, 1, 31, RegDate, c.Day},
		{"month", c.Month, 0, 11, RegMonth, c.Month + 1},
		{"year", c.Year, 100, 100 + maxYearOffset, RegYear, c.Year - 100},
	}
}

// Validate reports the first field the chip cannot represent.
func (c CalendarTime) Validate() error {
	for _, f := range c.fields() {
		if f.v < f.lo || f.v > f.hi {
			return errcode.New(errcode.OutOfRange, "validate",
				fmt.Sprintf("%s %d not in [%d,%d]", f.name, f.v, f.lo, f.hi), nil)
		}
	}
	return nil
}

// encodeTime packs c into the seven time registers, seconds first.
func encodeTime(c CalendarTime) ([timeLen]byte, error) {
	var buf [timeLen]byte
	if err := c.Validate(); err != nil {
		return buf, err
	}
	for i, f := range c.fields() {
		buf[i] = decToBcd(f.encoded)
	}
	return buf, nil
}

// decodeTime unpacks the seven time registers read from RegSeconds.
func decodeTime(buf [timeLen]byte) (CalendarTime, error) {
	if buf[RegHours]&flagHour12 != 0 {
		return CalendarTime{}, errcode.New(errcode.Unsupported, "decode time",
			fmt.Sprintf("%v holds 0x%02X: 12-hour mode", RegHours, buf[RegHours]), nil)
	}

	masks := [timeLen]uint8{maskSeconds, maskMinutes, maskHours24, maskWeekday, maskDate, maskMonth, 0xFF}
	var v [timeLen]int
	for i, b := range buf {
		b &= masks[i]
		if !validBCD(b) {
			return CalendarTime{}, malformed(Register(i), buf[i])
		}
		v[i] = bcdToDec(b)
	}

	c := CalendarTime{
		Second:  v[RegSeconds],
		Minute:  v[RegMinutes],
		Hour:    v[RegHours],
		Weekday: v[RegWeekday] - 1,
		Day:     v[RegDate],
		Month:   v[RegMonth] - 1,
		Year:    v[RegYear] + 100,
	}
	for _, f := range c.fields() {
		if f.v < f.lo || f.v > f.hi {
			return CalendarTime{}, malformed(f.reg, buf[f.reg])
		}
	}
	return c, nil
}

func malformed(reg Register, raw byte) error {
	return errcode.New(errcode.MalformedRegister, "decode time",
		fmt.Sprintf("%v holds 0x%02X", reg, raw), nil)
}
