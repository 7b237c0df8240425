package nightscout

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransportErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		transient   bool
		reconfigure bool
	}{
		{"connection reset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, true, false},
		{"network unreachable", &net.OpError{Op: "dial", Err: syscall.ENETUNREACH}, true, false},
		{"unexpected eof", &url.Error{Op: "Get", URL: "https://x.org", Err: io.ErrUnexpectedEOF}, true, false},
		{"unknown host", &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}, false, true},
		{"dns timeout", &net.DNSError{Err: "i/o timeout", Name: "x.org", IsTimeout: true}, false, false},
		{"bad scheme", errors.New(`Get "gopher://x.org": unsupported protocol scheme "gopher"`), false, true},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fmt.Errorf("refresh failed: %w", &TransportError{Op: "fetch entries", Err: tt.err})

			assert.Equal(t, tt.transient, IsTransient(err))
			assert.Equal(t, tt.reconfigure, NeedsReconfigure(err))
		})
	}
}

func TestNeedsReconfigure(t *testing.T) {
	assert.True(t, NeedsReconfigure(fmt.Errorf("wrapped: %w", ErrInvalidURL)))
	assert.False(t, NeedsReconfigure(ErrNotFound))
	assert.False(t, NeedsReconfigure(ErrInvalidData))
	assert.False(t, NeedsReconfigure(&UnknownResponseError{StatusCode: 500}))
	assert.False(t, IsTransient(ErrInvalidData))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "unknown HTTP response (status code: 502)", (&UnknownResponseError{StatusCode: 502}).Error())
	assert.Equal(t, "fetch status: boom", (&TransportError{Op: "fetch status", Err: errors.New("boom")}).Error())

	_, ok := IsUnknownResponse(ErrNotFound)
	assert.False(t, ok)
}
