package dialer

import (
	"fmt"
	"net"
	"strconv"
)

// Target is the destination the proxy is asked to connect to. The host is
// passed to the proxy as-is and never resolved locally.
type Target struct {
	Host string
	Port uint16
}

func (t Target) String() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(int(t.Port)))
}

// ParseTarget splits a host:port address into a Target.
func ParseTarget(address string) (Target, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}
	if host == "" {
		return Target{}, fmt.Errorf("%w: empty host", ErrInvalidTarget)
	}
	p, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return Target{}, fmt.Errorf("%w: port %q", ErrInvalidTarget, port)
	}
	return Target{Host: host, Port: uint16(p)}, nil
}
