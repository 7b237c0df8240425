package nightscout

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
)

var (
	// ErrInvalidURL means the configured base URL failed validation.
	ErrInvalidURL = errors.New("invalid Nightscout URL")

	// ErrInvalidData means a payload could not be decoded into the expected
	// shape or a mandatory field was missing.
	ErrInvalidData = errors.New("invalid data")

	// ErrNotFound means the site answered 404, usually a wrong base URL.
	ErrNotFound = errors.New("no data found (404), verify that the Nightscout URL is correct")
)

// UnknownResponseError is any other non-success HTTP status.
type UnknownResponseError struct {
	StatusCode int
}

func (e *UnknownResponseError) Error() string {
	return fmt.Sprintf("unknown HTTP response (status code: %d)", e.StatusCode)
}

// IsUnknownResponse reports whether err is an UnknownResponseError and returns its status.
func IsUnknownResponse(err error) (int, bool) {
	var e *UnknownResponseError
	if errors.As(err, &e) {
		return e.StatusCode, true
	}
	return 0, false
}

// TransportError is a network-level failure talking to the site.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Transient reports whether the failure is the "offline" or "connection
// lost" kind that clears up on its own.
func (e *TransportError) Transient() bool {
	for _, target := range []error{
		syscall.ENETUNREACH,
		syscall.ENETDOWN,
		syscall.ECONNRESET,
		syscall.ECONNABORTED,
		syscall.EPIPE,
		io.ErrUnexpectedEOF,
		io.EOF,
	} {
		if errors.Is(e.Err, target) {
			return true
		}
	}
	return false
}

// NeedsReconfigure reports whether the failure points at a bad base URL
// (unknown host or unsupported scheme) rather than a flaky network.
func (e *TransportError) NeedsReconfigure() bool {
	var dnsErr *net.DNSError
	if errors.As(e.Err, &dnsErr) && dnsErr.IsNotFound {
		return true
	}
	return strings.Contains(e.Err.Error(), "unsupported protocol scheme")
}

// IsTransient reports whether err is a transient transport failure.
func IsTransient(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Transient()
}

// NeedsReconfigure reports whether err means the user should be asked for
// a new base URL.
func NeedsReconfigure(err error) bool {
	if errors.Is(err, ErrInvalidURL) {
		return true
	}
	var te *TransportError
	return errors.As(err, &te) && te.NeedsReconfigure()
}
