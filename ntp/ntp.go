// Package ntp is a minimal SNTP client: one request, one reply, transmit
// timestamp only. It is accurate to about a second, which is all the RTC can
// hold anyway.
package ntp

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"
)

const (
	packetSize = 48
	// seconds between the NTP epoch (1900) and the Unix epoch (1970)
	seventyYears = 2208988800
	defaultPort  = "123"
)

var ErrShortPacket = errors.New("ntp: short packet")

// Query asks server for the current time. server may omit the port.
func Query(ctx context.Context, server string) (time.Time, error) {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, defaultPort)
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", server)
	if err != nil {
		return time.Time{}, fmt.Errorf("ntp: dial %s: %w", server, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	b := make([]byte, packetSize)
	fillRequest(b)
	if _, err := conn.Write(b); err != nil {
		return time.Time{}, fmt.Errorf("ntp: send: %w", err)
	}
	n, err := conn.Read(b)
	if err != nil {
		return time.Time{}, fmt.Errorf("ntp: receive: %w", err)
	}
	if n != packetSize {
		return time.Time{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrShortPacket, packetSize, n)
	}
	return parseReply(b), nil
}

func fillRequest(b []byte) {
	for i := range b {
		b[i] = 0
	}
	b[0] = 0b11100011 // LI, Version, Mode
	b[1] = 0          // Stratum, or type of clock
	b[2] = 6          // Polling Interval
	b[3] = 0xEC       // Peer Clock Precision
	// 8 bytes of zero for Root Delay & Root Dispersion
	b[12] = 49
	b[13] = 0x4E
	b[14] = 49
	b[15] = 52
}

// parseReply reads the transmit timestamp, which starts at byte 40: seconds
// since 1900 then a 32-bit binary fraction.
func parseReply(b []byte) time.Time {
	secs := binary.BigEndian.Uint32(b[40:44])
	frac := binary.BigEndian.Uint32(b[44:48])
	nsec := (int64(frac) * int64(time.Second)) >> 32
	return time.Unix(int64(secs)-seventyYears, nsec)
}
