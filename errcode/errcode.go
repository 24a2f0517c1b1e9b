// Package errcode classifies driver and transport failures with stable codes
// so callers can tell a missing feature from a failed bus transaction.
package errcode

import "errors"

// Code is a stable error identifier. It is a comparable string newtype and
// implements error, so it can be used directly as an errors.Is target.
type Code string

func (c Code) Error() string { return string(c) }

const (
	OK Code = "ok"

	// Bus device path unavailable or address bind failed.
	TransportOpen Code = "transport_open"
	// A transaction failed or moved fewer bytes than requested.
	TransportIO Code = "transport_io"
	// A register held a non-BCD nibble or a field outside its chip range.
	MalformedRegister Code = "malformed_register_data"
	// A value handed to the driver cannot be represented by the chip.
	OutOfRange    Code = "out_of_range"
	Unsupported   Code = "unsupported"
	Unimplemented Code = "unimplemented"

	Error Code = "error" // generic fallback
)

// E wraps a Code with the operation that failed and an optional cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, errcode.TransportIO) match a wrapped *E.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// New builds an *E.
func New(c Code, op, msg string, err error) *E {
	return &E{C: c, Op: op, Msg: msg, Err: err}
}

// Of extracts a Code from an error chain, defaulting to Error. The outermost
// *E wins over a bare Code further down the chain.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return Error
}
