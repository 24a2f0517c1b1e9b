//go:build !linux

package i2cdev

import (
	"github.com/rtcsync/rtcsync/errcode"
)

// Open is only available on Linux; use OpenPeriph elsewhere.
func Open(path string, addr uint16) (*Dev, error) {
	if path == "" {
		path = DefaultPath
	}
	return nil, openError(path, "i2c-dev is linux only", errcode.Unsupported)
}
