package i2cdev

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Periph is a register-addressed target reached through periph.io's bus
// registry. Each register access is a single combined Tx.
type Periph struct {
	bus  i2c.BusCloser
	dev  *i2c.Dev
	addr uint16
	w    []byte
}

// OpenPeriph initialises the periph host drivers and opens the named bus.
// name may be a periph bus name, a bus number, or an i2c-dev path, and an
// empty name selects the first registered bus.
func OpenPeriph(name string, addr uint16) (*Periph, error) {
	if _, err := host.Init(); err != nil {
		return nil, openError(name, "periph host init", err)
	}
	b, err := i2creg.Open(busNumber(name))
	if err != nil {
		return nil, openError(name, "", err)
	}
	return &Periph{
		bus:  b,
		dev:  &i2c.Dev{Bus: b, Addr: addr},
		addr: addr,
		w:    make([]byte, 0, 16),
	}, nil
}

func (p *Periph) String() string {
	return fmt.Sprintf("%s@0x%02X", p.bus, p.addr)
}

func (p *Periph) ReadRegister(reg uint8, buf []byte) (int, error) {
	if p.dev == nil {
		return 0, ErrClosed
	}
	p.w = append(p.w[:0], reg)
	if err := p.dev.Tx(p.w, buf); err != nil {
		return 0, err
	}
	return len(buf), nil
}

func (p *Periph) WriteRegister(reg uint8, data []byte) (int, error) {
	if p.dev == nil {
		return 0, ErrClosed
	}
	p.w = append(p.w[:0], reg)
	p.w = append(p.w, data...)
	n, err := p.dev.Write(p.w)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		n--
	}
	return n, nil
}

func (p *Periph) Close() error {
	if p.dev == nil {
		return nil
	}
	p.dev = nil
	return p.bus.Close()
}
