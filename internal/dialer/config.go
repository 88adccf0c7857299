package dialer

import (
	"net"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/proxy"
)

type Config struct {
	// DialTimeout bounds the TCP connect to the proxy. Zero means no timeout.
	DialTimeout time.Duration
	// NegotiationTimeout bounds the SOCKS handshake. Zero means no timeout.
	NegotiationTimeout time.Duration
	KeepAlive          net.KeepAliveConfig

	// Forward opens the transport connection to the proxy. Nil uses a direct
	// TCP dialer built from DialTimeout and KeepAlive.
	Forward proxy.ContextDialer

	// Logger receives per-connection debug output. Nil disables logging.
	Logger *zap.Logger
}
