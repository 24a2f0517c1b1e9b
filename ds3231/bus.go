package ds3231

import (
	"tinygo.org/x/drivers"
)

// Bus is a register-addressed transport bound to a single device address.
// Both calls report how many payload bytes actually moved, so a short
// transfer is visible to the driver even when no error is returned.
type Bus interface {
	ReadRegister(reg uint8, buf []byte) (int, error)
	WriteRegister(reg uint8, data []byte) (int, error)
}

// FromI2C binds a tinygo I2C bus to addr. Tx either moves every byte or
// fails, so successful calls report the full length.
func FromI2C(bus drivers.I2C, addr uint16) Bus {
	return &i2cBus{bus: bus, addr: addr}
}

type i2cBus struct {
	bus  drivers.I2C
	addr uint16
	w    [1 + timeLen]byte
}

func (b *i2cBus) ReadRegister(reg uint8, buf []byte) (int, error) {
	b.w[0] = reg
	if err := b.bus.Tx(b.addr, b.w[:1], buf); err != nil {
		return 0, err
	}
	return len(buf), nil
}

func (b *i2cBus) WriteRegister(reg uint8, data []byte) (int, error) {
	w := b.w[:0]
	if len(data)+1 > len(b.w) {
		w = make([]byte, 0, len(data)+1)
	}
	w = append(w, reg)
	w = append(w, data...)
	if err := b.bus.Tx(b.addr, w, nil); err != nil {
		return 0, err
	}
	return len(data), nil
}
