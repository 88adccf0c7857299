package dialer

import (
	"errors"
	"net"
)

// Conn is an established SOCKS tunnel. Reads and writes go to the target;
// Close releases the underlying connection to the proxy.
type Conn struct {
	net.Conn

	proxyAddr string
	variant   string
	target    Target
	bound     string
}

// ProxyAddr returns the proxy's host:port.
func (c *Conn) ProxyAddr() string { return c.proxyAddr }

// Variant names the negotiated protocol variant, e.g. "socks5+userpass".
func (c *Conn) Variant() string { return c.variant }

// Target returns the destination requested from the proxy.
func (c *Conn) Target() Target { return c.target }

// BoundAddr returns the address the proxy reported in its reply. Many
// proxies report 0.0.0.0:0.
func (c *Conn) BoundAddr() string { return c.bound }

// CloseWrite shuts down the writing side of the connection to the proxy, so
// the target sees EOF while replies can still be read.
func (c *Conn) CloseWrite() error {
	if cw, ok := c.Conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return errors.ErrUnsupported
}
