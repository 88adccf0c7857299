package testutil

import (
	"bytes"
	"context"
	"io"
	"net"

	"github.com/die-net/socksconnect/internal/socks4"
	"github.com/die-net/socksconnect/internal/socks5"
)

// FakeProxy is an in-process SOCKS proxy that records what the client sent
// and relays accepted CONNECTs to the requested destination.
type FakeProxy struct {
	// UserID is the SOCKS4 user-id the proxy requires. Nil accepts only an
	// empty user-id.
	UserID []byte
	// Auth, if set, makes the SOCKS5 proxy require username/password.
	Auth *socks5.Auth
	// Reject answers every CONNECT with a failure reply.
	Reject bool
}

// Observed is what a FakeProxy saw from the client.
type Observed struct {
	Version  int
	UserID   []byte
	Methods  []byte
	Username string
	Password string
	Target   string
}

// ServeSOCKS4 handles one SOCKS4 client on c.
func (p FakeProxy) ServeSOCKS4(ctx context.Context, c net.Conn) Observed {
	obs := Observed{Version: 4}

	req, err := socks4.ServerReadRequest(c)
	if err != nil {
		return obs
	}
	obs.UserID = req.UserID
	obs.Target = req.Address()

	if !bytes.Equal(req.UserID, p.UserID) {
		_ = socks4.WriteReply(c, socks4.RepIdentdMismatched, nil)
		return obs
	}
	if p.Reject || req.Cmd != socks4.CmdConnect {
		_ = socks4.WriteReply(c, socks4.RepRejected, nil)
		return obs
	}

	d := net.Dialer{}
	dst, err := d.DialContext(ctx, "tcp", req.Address())
	if err != nil {
		_ = socks4.WriteReply(c, socks4.RepRejected, nil)
		return obs
	}
	defer dst.Close()

	bound, _ := dst.LocalAddr().(*net.TCPAddr)
	if err := socks4.WriteReply(c, socks4.RepGranted, bound); err != nil {
		return obs
	}

	relay(c, dst)
	return obs
}

// ServeSOCKS5 handles one SOCKS5 client on c.
func (p FakeProxy) ServeSOCKS5(ctx context.Context, c net.Conn) Observed {
	obs := Observed{Version: 5}

	neg, err := socks5.ServerNegotiateRecorded(c, p.Auth)
	obs.Methods = neg.Methods
	obs.Username, obs.Password = neg.Username, neg.Password
	if err != nil {
		return obs
	}

	req, err := socks5.ServerReadRequest(c)
	if err != nil {
		return obs
	}
	obs.Target = req.Address()

	if req.Cmd != socks5.CmdConnect {
		socks5.WriteCommandNotSupportedReply(c, req.Atyp)
		return obs
	}
	if p.Reject {
		socks5.WriteConnectionRefusedReply(c, req.Atyp)
		return obs
	}

	d := net.Dialer{}
	dst, err := d.DialContext(ctx, "tcp", req.Address())
	if err != nil {
		socks5.WriteConnectionRefusedReply(c, req.Atyp)
		return obs
	}
	defer dst.Close()

	if err := socks5.WriteSuccessReply(c, dst.LocalAddr()); err != nil {
		return obs
	}

	relay(c, dst)
	return obs
}

func relay(c, dst net.Conn) {
	go func() {
		_, _ = io.Copy(dst, c)
		if tc, ok := dst.(*net.TCPConn); ok {
			_ = tc.CloseWrite()
			return
		}
		_ = dst.Close()
	}()
	_, _ = io.Copy(c, dst)
}
