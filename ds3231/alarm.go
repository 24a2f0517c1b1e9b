package ds3231

import "github.com/rtcsync/rtcsync/errcode"

// AlarmMode selects which fields an alarm compares against.
type AlarmMode uint8

const (
	AlarmOncePerSecond AlarmMode = iota
	AlarmMatchSeconds
	AlarmMatchMinutes
	AlarmMatchHours
	AlarmMatchDate
	AlarmMatchWeekday
)

// SetAlarm1 is not implemented: it returns errcode.Unimplemented and never
// touches the bus.
func (d *Device) SetAlarm1(t CalendarTime, mode AlarmMode) error {
	return errcode.New(errcode.Unimplemented, "set alarm 1", RegAlarm1.String(), nil)
}

// SetAlarm2 is not implemented: it returns errcode.Unimplemented and never
// touches the bus.
func (d *Device) SetAlarm2(t CalendarTime, mode AlarmMode) error {
	return errcode.New(errcode.Unimplemented, "set alarm 2", RegAlarm2.String(), nil)
}

// ClearAlarmFlags is not implemented: it returns errcode.Unimplemented and
// never touches the bus.
func (d *Device) ClearAlarmFlags() error {
	return errcode.New(errcode.Unimplemented, "clear alarm flags", RegStatus.String(), nil)
}

// Initialize would program the control register and clear the
// oscillator-stop flag. It is not implemented: it returns
// errcode.Unimplemented and never touches the bus.
func (d *Device) Initialize() error {
	return errcode.New(errcode.Unimplemented, "initialize", RegControl.String(), nil)
}
