package forward

// Package forward implements a local TCP port forwarder whose every accepted
// connection is tunneled to a fixed target through a SOCKS proxy.
//
// Each client gets its own proxy connection; nothing is pooled or reused, and
// a client whose tunnel cannot be established is simply disconnected.
