package forward

import (
	"net"

	"go.uber.org/zap"

	"github.com/die-net/socksconnect/internal/dialer"
)

type Config struct {
	// Proxy is the SOCKS proxy URL every connection is tunneled through.
	Proxy string
	// Target is the destination requested from the proxy.
	Target dialer.Target

	Connector *dialer.Connector
	KeepAlive net.KeepAliveConfig
	Logger    *zap.Logger
}
