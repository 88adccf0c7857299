package dialer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	txsocks5 "github.com/txthinking/socks5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/net/proxy"

	"github.com/die-net/socksconnect/internal/socks4"
	"github.com/die-net/socksconnect/internal/socks5"
	"github.com/die-net/socksconnect/internal/testutil"
)

func echoTarget(t *testing.T, ln net.Listener) Target {
	t.Helper()

	target, err := ParseTarget(ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	return target
}

func TestConnectVariants(t *testing.T) {
	tests := []struct {
		name        string
		scheme      string
		userinfo    string
		fake        testutil.FakeProxy
		forward     proxy.ContextDialer
		wantVariant string
		wantUserID  []byte
		wantMethods []byte
		wantUser    string
		wantPass    string
	}{
		{
			name:        "socks4_anonymous",
			scheme:      "socks4",
			wantVariant: "socks4",
		},
		{
			name:        "socks4_userid",
			scheme:      "socks4",
			userinfo:    "alice@",
			fake:        testutil.FakeProxy{UserID: []byte("alice")},
			wantVariant: "socks4+userid",
			wantUserID:  []byte("alice"),
		},
		{
			name:        "socks4a_userid",
			scheme:      "socks4a",
			userinfo:    "alice@",
			fake:        testutil.FakeProxy{UserID: []byte("alice")},
			wantVariant: "socks4+userid",
			wantUserID:  []byte("alice"),
		},
		{
			name:        "socks5_anonymous",
			scheme:      "socks5",
			wantVariant: "socks5",
			wantMethods: []byte{txsocks5.MethodNone},
		},
		{
			name:        "socks5_user_pass",
			scheme:      "socks5",
			userinfo:    "user:pass@",
			fake:        testutil.FakeProxy{Auth: &socks5.Auth{Username: "user", Password: "pass"}},
			wantVariant: "socks5+userpass",
			wantMethods: []byte{txsocks5.MethodUsernamePassword},
			wantUser:    "user",
			wantPass:    "pass",
		},
		{
			name:        "socks5h_via_xnet_direct",
			scheme:      "socks5h",
			forward:     proxy.Direct,
			wantVariant: "socks5",
			wantMethods: []byte{txsocks5.MethodNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			echoLn := testutil.StartEchoTCPServer(t, ctx)
			defer echoLn.Close()

			var obs testutil.Observed
			upLn, waitUp := testutil.StartSingleAcceptServer(t, ctx, func(c net.Conn) {
				if strings.HasPrefix(tt.scheme, "socks4") {
					obs = tt.fake.ServeSOCKS4(ctx, c)
				} else {
					obs = tt.fake.ServeSOCKS5(ctx, c)
				}
			})

			c := NewConnector(Config{DialTimeout: 2 * time.Second, Forward: tt.forward})
			target := echoTarget(t, echoLn)
			proxyURL := tt.scheme + "://" + tt.userinfo + upLn.Addr().String()

			conn, err := c.Connect(ctx, proxyURL, target)
			if err != nil {
				t.Fatal(err)
			}

			testutil.AssertEcho(t, conn, conn, []byte("hello"))

			if conn.Variant() != tt.wantVariant {
				t.Errorf("variant %q want %q", conn.Variant(), tt.wantVariant)
			}
			if conn.Target() != target {
				t.Errorf("target %v want %v", conn.Target(), target)
			}
			if conn.ProxyAddr() != upLn.Addr().String() {
				t.Errorf("proxy addr %q want %q", conn.ProxyAddr(), upLn.Addr().String())
			}
			if conn.BoundAddr() == "" {
				t.Error("empty bound address")
			}

			_ = conn.Close()
			waitUp()

			if obs.Target != target.String() {
				t.Errorf("proxy saw target %q want %q", obs.Target, target)
			}
			if !bytes.Equal(obs.UserID, tt.wantUserID) {
				t.Errorf("proxy saw user-id %q want %q", obs.UserID, tt.wantUserID)
			}
			if !bytes.Equal(obs.Methods, tt.wantMethods) {
				t.Errorf("proxy saw methods %x want %x", obs.Methods, tt.wantMethods)
			}
			if obs.Username != tt.wantUser || obs.Password != tt.wantPass {
				t.Errorf("proxy saw credentials %q/%q", obs.Username, obs.Password)
			}
		})
	}
}

func TestConnectHandshakeFailure(t *testing.T) {
	tests := []struct {
		name    string
		proxy   string
		fake    testutil.FakeProxy
		wantErr any
	}{
		{
			name:    "socks4_rejected",
			proxy:   "socks4://",
			fake:    testutil.FakeProxy{Reject: true},
			wantErr: &socks4.ReplyError{},
		},
		{
			name:    "socks4_wrong_userid",
			proxy:   "socks4://mallory@",
			fake:    testutil.FakeProxy{UserID: []byte("alice")},
			wantErr: &socks4.ReplyError{},
		},
		{
			name:    "socks5_refused",
			proxy:   "socks5://",
			fake:    testutil.FakeProxy{Reject: true},
			wantErr: &socks5.ReplyError{},
		},
		{
			name:    "socks5_bad_password",
			proxy:   "socks5://user:wrong@",
			fake:    testutil.FakeProxy{Auth: &socks5.Auth{Username: "user", Password: "pass"}},
			wantErr: socks5.ErrAuthFailed,
		},
		{
			name:    "socks5_proxy_requires_auth",
			proxy:   "socks5://",
			fake:    testutil.FakeProxy{Auth: &socks5.Auth{Username: "user", Password: "pass"}},
			wantErr: socks5.ErrNoAcceptableMethods,
		},
		{
			name:    "socks5_proxy_refuses_auth",
			proxy:   "socks5://user:pass@",
			wantErr: socks5.ErrNoAcceptableMethods,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			upLn, waitUp := testutil.StartSingleAcceptServer(t, ctx, func(c net.Conn) {
				if strings.HasPrefix(tt.proxy, "socks4") {
					tt.fake.ServeSOCKS4(ctx, c)
				} else {
					tt.fake.ServeSOCKS5(ctx, c)
				}
			})

			c := NewConnector(Config{DialTimeout: 2 * time.Second})
			_, err := c.Connect(ctx, tt.proxy+upLn.Addr().String(), Target{Host: "127.0.0.1", Port: 1})
			if !errors.Is(err, ErrHandshake) {
				t.Fatalf("got %v want ErrHandshake", err)
			}

			var hsErr *HandshakeError
			if !errors.As(err, &hsErr) {
				t.Fatalf("got %T want *HandshakeError", err)
			}
			if hsErr.Proxy != upLn.Addr().String() {
				t.Errorf("proxy %q", hsErr.Proxy)
			}

			switch want := tt.wantErr.(type) {
			case *socks4.ReplyError:
				if !errors.As(err, &want) {
					t.Errorf("got %v want socks4 reply error", err)
				}
			case *socks5.ReplyError:
				if !errors.As(err, &want) {
					t.Errorf("got %v want socks5 reply error", err)
				}
			case error:
				if !errors.Is(err, want) {
					t.Errorf("got %v want %v", err, want)
				}
			}

			waitUp()
		})
	}
}

func TestConnectTransportFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	c := NewConnector(Config{DialTimeout: 2 * time.Second})
	_, err = c.Connect(context.Background(), "socks5://"+addr, Target{Host: "test", Port: 1080})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("got %v want ErrTransport", err)
	}
	if errors.Is(err, ErrHandshake) || errors.Is(err, ErrInvalidProxyURL) {
		t.Fatalf("misclassified: %v", err)
	}

	var trErr *TransportError
	if !errors.As(err, &trErr) {
		t.Fatalf("got %T want *TransportError", err)
	}
	if trErr.Proxy != addr {
		t.Fatalf("proxy %q want %q", trErr.Proxy, addr)
	}
}

func TestConnectDialsFreshEachCall(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	echoLn := testutil.StartEchoTCPServer(t, ctx)
	defer echoLn.Close()

	fake := testutil.FakeProxy{}
	upLn, accepted, waitUp := testutil.StartMultiAcceptServer(t, ctx, func(c net.Conn) {
		fake.ServeSOCKS5(ctx, c)
	})

	c := NewConnector(Config{})
	proxyURL := "socks5://" + upLn.Addr().String()
	target := echoTarget(t, echoLn)

	for i := range 3 {
		conn, err := c.Connect(ctx, proxyURL, target)
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertEcho(t, conn, conn, []byte("call "+strconv.Itoa(i)))
		_ = conn.Close()
	}

	waitUp()
	if n := accepted.Load(); n != 3 {
		t.Fatalf("proxy accepted %d connections want 3", n)
	}
}

func TestConnectContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	released := make(chan struct{})
	upLn, waitUp := testutil.StartSingleAcceptServer(t, context.Background(), func(c net.Conn) {
		// Never answer; wait for the client to give up.
		var b [1]byte
		_, _ = io.ReadFull(c, b[:])
		close(started)
		_, _ = io.Copy(io.Discard, c)
		close(released)
	})

	go func() {
		<-started
		cancel()
	}()

	c := NewConnector(Config{})
	_, err := c.Connect(ctx, "socks5://"+upLn.Addr().String(), Target{Host: "test", Port: 1080})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v want context.Canceled", err)
	}
	if !errors.Is(err, ErrHandshake) {
		t.Fatalf("got %v want ErrHandshake", err)
	}

	select {
	case <-released:
	case <-time.After(2 * time.Second):
		t.Fatal("proxy connection was not released")
	}
	waitUp()
}

func TestConnectNegotiationTimeout(t *testing.T) {
	upLn, waitUp := testutil.StartSingleAcceptServer(t, context.Background(), func(c net.Conn) {
		_, _ = io.Copy(io.Discard, c)
	})

	c := NewConnector(Config{NegotiationTimeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := c.Connect(context.Background(), "socks4://"+upLn.Addr().String(), Target{Host: "test", Port: 1080})
	if !errors.Is(err, ErrHandshake) {
		t.Fatalf("got %v want ErrHandshake", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("took %s", elapsed)
	}
	waitUp()
}

func TestConnectLogsNoCredentials(t *testing.T) {
	tests := []struct {
		name    string
		proxy   string
		fake    testutil.FakeProxy
		secrets []string
	}{
		{
			name:    "socks4_userid",
			proxy:   "socks4://alice-id@",
			fake:    testutil.FakeProxy{UserID: []byte("alice-id")},
			secrets: []string{"alice-id"},
		},
		{
			name:    "socks5_user_pass",
			proxy:   "socks5://bob-user:hunter2@",
			fake:    testutil.FakeProxy{Auth: &socks5.Auth{Username: "bob-user", Password: "hunter2"}},
			secrets: []string{"bob-user", "hunter2"},
		},
		{
			name:    "socks5_rejected",
			proxy:   "socks5://bob-user:hunter2@",
			fake:    testutil.FakeProxy{Auth: &socks5.Auth{Username: "bob-user", Password: "other"}},
			secrets: []string{"bob-user", "hunter2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			echoLn := testutil.StartEchoTCPServer(t, ctx)
			defer echoLn.Close()

			upLn, waitUp := testutil.StartSingleAcceptServer(t, ctx, func(c net.Conn) {
				if strings.HasPrefix(tt.proxy, "socks4") {
					tt.fake.ServeSOCKS4(ctx, c)
				} else {
					tt.fake.ServeSOCKS5(ctx, c)
				}
			})

			core, logs := observer.New(zapcore.DebugLevel)
			c := NewConnector(Config{Logger: zap.New(core)})

			conn, err := c.Connect(ctx, tt.proxy+upLn.Addr().String(), echoTarget(t, echoLn))
			if err == nil {
				_ = conn.Close()
			}
			waitUp()

			if logs.Len() == 0 {
				t.Fatal("expected log output")
			}
			for _, e := range logs.All() {
				text := e.Message
				for k, v := range e.ContextMap() {
					text += fmt.Sprintf(" %s=%v", k, v)
				}
				for _, secret := range tt.secrets {
					if strings.Contains(text, secret) {
						t.Fatalf("log entry leaks %q: %s", secret, text)
					}
				}
			}
		})
	}
}
