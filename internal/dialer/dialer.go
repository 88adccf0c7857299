package dialer

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/proxy"

	"github.com/die-net/socksconnect/internal/proxyurl"
)

// Connector opens SOCKS tunnels. It holds no per-connection state and is safe
// for concurrent use; every call dials a fresh connection to the proxy.
type Connector struct {
	cfg     Config
	forward proxy.ContextDialer
	log     *zap.Logger
}

// NewConnector returns a Connector using cfg.
func NewConnector(cfg Config) *Connector {
	forward := cfg.Forward
	if forward == nil {
		forward = NewDirectDialer(cfg)
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Connector{cfg: cfg, forward: forward, log: log}
}

// ConnectWithProxy connects to target through the SOCKS proxy described by
// proxyURL using a default Connector.
func ConnectWithProxy(ctx context.Context, proxyURL string, target Target) (*Conn, error) {
	return NewConnector(Config{}).Connect(ctx, proxyURL, target)
}

// Connect parses proxyURL and connects to target through it.
//
// If proxyURL is not a SOCKS URL the result is ErrInvalidProxyURL and no
// connection of any kind is attempted.
func (c *Connector) Connect(ctx context.Context, proxyURL string, target Target) (*Conn, error) {
	d, ok := proxyurl.ParseString(proxyURL)
	if !ok {
		c.log.Warn("refusing to connect: proxy url is not a socks url", zap.Stringer("target", target))
		return nil, ErrInvalidProxyURL
	}
	return c.connect(ctx, d, target)
}

// ConnectURL is Connect for an already parsed URL.
func (c *Connector) ConnectURL(ctx context.Context, proxyURL *url.URL, target Target) (*Conn, error) {
	d, ok := proxyurl.Parse(proxyURL)
	if !ok {
		c.log.Warn("refusing to connect: proxy url is not a socks url", zap.Stringer("target", target))
		return nil, ErrInvalidProxyURL
	}
	return c.connect(ctx, d, target)
}

func (c *Connector) connect(ctx context.Context, d proxyurl.Descriptor, target Target) (*Conn, error) {
	if target.Host == "" {
		return nil, fmt.Errorf("%w: empty host", ErrInvalidTarget)
	}

	log := c.log.With(
		zap.String("proxy", d.Addr),
		zap.Stringer("variant", d.Variant),
		zap.Stringer("target", target),
	)
	log.Debug("connecting to socks proxy")
	start := time.Now()

	conn, err := c.forward.DialContext(ctx, "tcp", d.Addr)
	if err != nil {
		log.Debug("socks proxy transport failed", zap.Error(err))
		return nil, &TransportError{Proxy: d.Addr, Err: err}
	}

	bound, err := c.handshake(ctx, conn, d.Variant, target)
	if err != nil {
		_ = conn.Close()
		log.Debug("socks handshake failed", zap.Error(err))
		return nil, &HandshakeError{Proxy: d.Addr, Variant: d.Variant.String(), Target: target.String(), Err: err}
	}

	log.Debug("socks tunnel established", zap.String("bound", bound), zap.Duration("elapsed", time.Since(start)))
	return &Conn{
		Conn:      conn,
		proxyAddr: d.Addr,
		variant:   d.Variant.String(),
		target:    target,
		bound:     bound,
	}, nil
}

// handshake runs the negotiation under the tighter of ctx's deadline and
// NegotiationTimeout. Canceling ctx closes conn to unblock the exchange.
func (c *Connector) handshake(ctx context.Context, conn net.Conn, v proxyurl.Variant, target Target) (string, error) {
	deadline, hasDeadline := ctx.Deadline()
	if c.cfg.NegotiationTimeout > 0 {
		if d := time.Now().Add(c.cfg.NegotiationTimeout); !hasDeadline || d.Before(deadline) {
			deadline, hasDeadline = d, true
		}
	}
	if hasDeadline {
		_ = conn.SetDeadline(deadline)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})

	bound, err := negotiate(conn, v, target)
	if !stop() {
		return "", fmt.Errorf("handshake interrupted: %w", context.Cause(ctx))
	}
	if err != nil {
		return "", err
	}

	if hasDeadline {
		_ = conn.SetDeadline(time.Time{})
	}
	return bound, nil
}

// ProxyDialer binds a proxy URL to a Connector so it can be used wherever a
// proxy.ContextDialer or an http.Transport DialContext is expected. The URL
// is re-parsed and the proxy re-dialed on every call.
type ProxyDialer struct {
	c        *Connector
	proxyURL string
}

var (
	_ proxy.ContextDialer = (*ProxyDialer)(nil)
	_ proxy.Dialer        = (*ProxyDialer)(nil)
)

// NewProxyDialer validates proxyURL and returns a dialer for it.
func NewProxyDialer(cfg Config, proxyURL string) (*ProxyDialer, error) {
	if _, ok := proxyurl.ParseString(proxyURL); !ok {
		return nil, ErrInvalidProxyURL
	}
	return &ProxyDialer{c: NewConnector(cfg), proxyURL: proxyURL}, nil
}

// DialContext connects to address (host:port) through the proxy.
func (p *ProxyDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if !strings.HasPrefix(network, "tcp") {
		return nil, fmt.Errorf("socks proxy dial %s %s: unsupported network", network, address)
	}
	target, err := ParseTarget(address)
	if err != nil {
		return nil, err
	}
	conn, err := p.c.Connect(ctx, p.proxyURL, target)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Dial is DialContext with a background context.
func (p *ProxyDialer) Dial(network, address string) (net.Conn, error) {
	return p.DialContext(context.Background(), network, address)
}
