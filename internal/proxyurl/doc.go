package proxyurl

// Package proxyurl parses SOCKS proxy URLs into a Descriptor.
//
// Parsing is pure: no name resolution or network I/O happens here. A URL that
// is not a recognized SOCKS proxy yields ok == false, and callers must treat
// that as a hard failure rather than as "no proxy configured".
