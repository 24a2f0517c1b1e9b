package ds3231

import "errors"

// fakeBus is an in-memory register file with an auto-incrementing pointer.
type fakeBus struct {
	regs [0x13]byte

	reads, writes int
	limit         int   // cap on bytes moved per transfer, 0 for none
	err           error // returned by every transfer when set
	afterRead     func(b *fakeBus)
}

var errBus = errors.New("remote I/O error")

func (b *fakeBus) ReadRegister(reg uint8, buf []byte) (int, error) {
	b.reads++
	if b.err != nil {
		return 0, b.err
	}
	n := copy(buf, b.regs[reg:])
	if b.limit > 0 && n > b.limit {
		n = b.limit
		// only the first n bytes really arrived
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
	}
	if b.afterRead != nil {
		b.afterRead(b)
	}
	return n, nil
}

func (b *fakeBus) WriteRegister(reg uint8, data []byte) (int, error) {
	b.writes++
	if b.err != nil {
		return 0, b.err
	}
	if b.limit > 0 && len(data) > b.limit {
		data = data[:b.limit]
	}
	return copy(b.regs[reg:], data), nil
}

// txBus records tinygo-style transactions.
type txBus struct {
	addr uint16
	w    []byte
	rlen int
	resp []byte
	err  error
}

func (b *txBus) Tx(addr uint16, w, r []byte) error {
	b.addr = addr
	b.w = append([]byte(nil), w...)
	b.rlen = len(r)
	copy(r, b.resp)
	return b.err
}
