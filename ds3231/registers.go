package ds3231

import "fmt"

const Address = 0x68 // I2C address for DS3231

// Register is a chip-fixed register address.
type Register uint8

const (
	RegSeconds     Register = 0x00 // Time registers start here, 7 bytes through year
	RegMinutes     Register = 0x01
	RegHours       Register = 0x02
	RegWeekday     Register = 0x03 // Day of week, 1-7
	RegDate        Register = 0x04 // Day of month
	RegMonth       Register = 0x05 // Month, bit 7 is the century flag
	RegYear        Register = 0x06 // Years since 2000
	RegAlarm1      Register = 0x07 // Alarm 1 seconds, 4 bytes
	RegAlarm2      Register = 0x0B // Alarm 2 minutes, 3 bytes
	RegControl     Register = 0x0E
	RegStatus      Register = 0x0F
	RegTemperature Register = 0x11 // Temperature MSB, LSB follows at 0x12
)

const (
	timeLen        = 7
	temperatureLen = 2

	flagHour12    = 0x40 // 12-hour mode select in the hours register
	flagCentury   = 0x80
	flagOscStop   = 0x80 // OSF in the status register
	maskSeconds   = 0x7F
	maskMinutes   = 0x7F
	maskHours24   = 0x3F
	maskWeekday   = 0x07
	maskDate      = 0x3F
	maskMonth     = 0x1F
	maxYearOffset = 99
)

var registerNames = map[Register]string{
	RegSeconds:     "seconds",
	RegMinutes:     "minutes",
	RegHours:       "hours",
	RegWeekday:     "weekday",
	RegDate:        "date",
	RegMonth:       "month",
	RegYear:        "year",
	RegAlarm1:      "alarm1",
	RegAlarm2:      "alarm2",
	RegControl:     "control",
	RegStatus:      "status",
	RegTemperature: "temperature",
}

func (r Register) String() string {
	if name, ok := registerNames[r]; ok {
		return fmt.Sprintf("%s(0x%02X)", name, uint8(r))
	}
	return fmt.Sprintf("0x%02X", uint8(r))
}
