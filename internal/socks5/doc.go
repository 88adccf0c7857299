package socks5

// Package socks5 provides the SOCKS5 handshake used by socksconnect.
//
// It wraps the low-level protocol types in github.com/txthinking/socks5 and
// keeps method selection, RFC 1929 username/password sub-negotiation and
// CONNECT request/reply handling in one place.
//
// The client side advertises exactly one authentication method so a proxy
// can never steer an authenticated caller onto an anonymous session or the
// reverse. The server helpers are only as complete as the tests need.
