package dialer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidProxyURL is returned, before any network I/O, when the proxy
	// reference is not a recognized SOCKS URL.
	ErrInvalidProxyURL = errors.New("parsing proxy url failed")

	// ErrInvalidTarget is returned, before any network I/O, for a target with
	// an empty host.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrTransport matches any *TransportError via errors.Is.
	ErrTransport = errors.New("socks proxy transport failed")

	// ErrHandshake matches any *HandshakeError via errors.Is.
	ErrHandshake = errors.New("socks proxy handshake failed")
)

// TransportError reports a failure to open the connection to the proxy.
type TransportError struct {
	Proxy string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to connect to socks proxy %s: %v", e.Proxy, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// HandshakeError reports a SOCKS negotiation failure after the proxy
// connection was opened: a rejected request, a malformed reply, or an
// unacceptable authentication method.
type HandshakeError struct {
	Proxy   string
	Variant string
	Target  string
	Err     error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("error connecting to %s via %s proxy %s: %v", e.Target, e.Variant, e.Proxy, e.Err)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

func (e *HandshakeError) Is(target error) bool { return target == ErrHandshake }
