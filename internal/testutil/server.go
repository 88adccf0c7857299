package testutil

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"
)

// StartSingleAcceptServer accepts one connection on a loopback listener and
// passes it to handler. The returned func closes the listener and waits for
// handler to return.
func StartSingleAcceptServer(t *testing.T, ctx context.Context, handler func(net.Conn)) (net.Listener, func()) {
	t.Helper()

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		handler(c)
	}()

	wait := func() {
		_ = ln.Close()
		wg.Wait()
	}

	return ln, wait
}

// StartMultiAcceptServer runs handler for every accepted connection until the
// returned func is called. The counter reports how many connections were
// accepted.
func StartMultiAcceptServer(t *testing.T, ctx context.Context, handler func(net.Conn)) (net.Listener, *atomic.Int64, func()) {
	t.Helper()

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	var (
		wg       sync.WaitGroup
		accepted atomic.Int64
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			accepted.Add(1)
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer c.Close()
				handler(c)
			}()
		}
	}()

	wait := func() {
		_ = ln.Close()
		wg.Wait()
	}

	return ln, &accepted, wait
}
