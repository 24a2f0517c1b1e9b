//go:build linux

package i2cdev

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// I2C_SLAVE from linux/i2c-dev.h: bind the descriptor to a target address.
const ioctlI2CSlave = 0x0703

// Open opens the i2c-dev node at path and binds it to addr.
func Open(path string, addr uint16) (*Dev, error) {
	if path == "" {
		path = DefaultPath
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, openError(path, "", err)
	}
	if err := unix.IoctlSetInt(fd, ioctlI2CSlave, int(addr)); err != nil {
		unix.Close(fd)
		return nil, openError(path, fmt.Sprintf("bind address 0x%02X", addr), err)
	}
	return newDev(fdConn(fd), path, addr), nil
}

type fdConn int

func (f fdConn) Read(p []byte) (int, error) {
	n, err := unix.Read(int(f), p)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (f fdConn) Write(p []byte) (int, error) {
	n, err := unix.Write(int(f), p)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (f fdConn) Close() error {
	return unix.Close(int(f))
}
