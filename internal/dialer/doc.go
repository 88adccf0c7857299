package dialer

// Package dialer establishes TCP tunnels through SOCKS4 and SOCKS5 proxies.
//
// A Connector parses a proxy URL with package proxyurl, dials the proxy with
// its forward dialer and runs the handshake for the parsed variant. The
// result is a *Conn that callers use exactly like a direct TCP connection.
//
// A proxy URL that does not parse is always an error (ErrInvalidProxyURL).
// Nothing in this package ever dials the target without going through the
// requested proxy.
