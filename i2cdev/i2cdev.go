// Package i2cdev provides register-addressed access to a single I2C target
// through the Linux i2c-dev character device (/dev/i2c-N), or through periph.io
// when the kernel device is not the preferred path.
//
// A Dev owns its file descriptor from Open until Close. Every failure path in
// Open releases the descriptor before returning.
package i2cdev

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rtcsync/rtcsync/errcode"
)

// DefaultPath is the bus the tool talks to when none is given.
const DefaultPath = "/dev/i2c-0"

var ErrClosed = errors.New("i2cdev: device closed")

// conn is the byte stream the kernel exposes once the target address is bound.
// Each Read or Write is one bus transaction.
type conn interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

type Dev struct {
	c    conn
	path string
	addr uint16
	w    []byte
}

func newDev(c conn, path string, addr uint16) *Dev {
	return &Dev{c: c, path: path, addr: addr, w: make([]byte, 0, 16)}
}

func (d *Dev) String() string {
	return fmt.Sprintf("%s@0x%02X", d.path, d.addr)
}

func (d *Dev) Addr() uint16 { return d.addr }

// ReadRegister points the target at reg and reads len(buf) bytes from it.
// The returned count is what the read transaction actually delivered.
func (d *Dev) ReadRegister(reg uint8, buf []byte) (int, error) {
	if d.c == nil {
		return 0, ErrClosed
	}
	d.w = append(d.w[:0], reg)
	n, err := d.c.Write(d.w)
	if err != nil {
		return 0, fmt.Errorf("i2cdev: %v: select register 0x%02X: %w", d, reg, err)
	}
	if n != 1 {
		return 0, fmt.Errorf("i2cdev: %v: select register 0x%02X: wrote %d bytes", d, reg, n)
	}
	n, err = d.c.Read(buf)
	if err != nil {
		return 0, fmt.Errorf("i2cdev: %v: read: %w", d, err)
	}
	return n, nil
}

// WriteRegister writes data to consecutive registers starting at reg in one
// transaction. The returned count excludes the register pointer byte.
func (d *Dev) WriteRegister(reg uint8, data []byte) (int, error) {
	if d.c == nil {
		return 0, ErrClosed
	}
	d.w = append(d.w[:0], reg)
	d.w = append(d.w, data...)
	n, err := d.c.Write(d.w)
	if err != nil {
		return 0, fmt.Errorf("i2cdev: %v: write: %w", d, err)
	}
	if n > 0 {
		n--
	}
	return n, nil
}

// Tx performs a write then a read on the bound address, so a Dev can back
// any tinygo.org/x/drivers driver. Short transfers are errors here since the
// interface carries no byte counts.
func (d *Dev) Tx(addr uint16, w, r []byte) error {
	if d.c == nil {
		return ErrClosed
	}
	if addr != d.addr {
		return errcode.New(errcode.Unsupported, "tx", fmt.Sprintf("%v is bound to 0x%02X, not 0x%02X", d, d.addr, addr), nil)
	}
	if len(w) > 0 {
		n, err := d.c.Write(w)
		if err != nil {
			return errcode.New(errcode.TransportIO, "tx", d.String(), err)
		}
		if n != len(w) {
			return errcode.New(errcode.TransportIO, "tx", fmt.Sprintf("%v: wrote %d of %d bytes", d, n, len(w)), nil)
		}
	}
	if len(r) > 0 {
		n, err := d.c.Read(r)
		if err != nil {
			return errcode.New(errcode.TransportIO, "tx", d.String(), err)
		}
		if n != len(r) {
			return errcode.New(errcode.TransportIO, "tx", fmt.Sprintf("%v: read %d of %d bytes", d, n, len(r)), nil)
		}
	}
	return nil
}

// Close releases the bus handle. It is safe to call more than once.
func (d *Dev) Close() error {
	if d.c == nil {
		return nil
	}
	err := d.c.Close()
	d.c = nil
	return err
}

func openError(path, msg string, err error) error {
	return errcode.New(errcode.TransportOpen, "open "+path, msg, err)
}

// busNumber extracts N from /dev/i2c-N, or returns name unchanged.
func busNumber(name string) string {
	return strings.TrimPrefix(name, "/dev/i2c-")
}
