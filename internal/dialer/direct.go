package dialer

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/net/proxy"
)

type directDialer struct {
	cfg Config
}

// NewDirectDialer returns the plain TCP dialer used to reach a proxy.
func NewDirectDialer(cfg Config) proxy.ContextDialer {
	return &directDialer{cfg: cfg}
}

func (f *directDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	dd := net.Dialer{Timeout: f.cfg.DialTimeout, KeepAliveConfig: f.cfg.KeepAlive}

	conn, err := dd.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("dial %s %s: %w", network, address, err)
	}
	return conn, nil
}
