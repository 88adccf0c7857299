package socks4

// Package socks4 implements the client side of the SOCKS4 CONNECT handshake,
// including the SOCKS4a extension for destinations given as hostnames.
//
// The server-side helpers are deliberately minimal and exist so handshakes can
// be exercised against an in-process fake proxy.
