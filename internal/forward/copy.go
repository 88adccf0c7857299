package forward

import (
	"context"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"
)

type closeWriter interface {
	CloseWrite() error
}

// CopyBidirectional copies between left and right until both directions
// finish, an error occurs, or ctx is canceled. When one side reaches EOF the
// other side's write half is shut down if it supports CloseWrite. Both sides
// are closed before returning.
func CopyBidirectional(ctx context.Context, left, right io.ReadWriteCloser) error {
	g, gctx := errgroup.WithContext(ctx)

	var closeOnce sync.Once
	closeBoth := func() {
		closeOnce.Do(func() {
			_ = left.Close()
			_ = right.Close()
		})
	}
	defer closeBoth()

	done := make(chan struct{})

	g.Go(func() error {
		_, err := io.Copy(left, right)
		halfClose(left)
		return err
	})

	g.Go(func() error {
		_, err := io.Copy(right, left)
		halfClose(right)
		return err
	})

	// If the context is canceled, ensure we close both sides to unblock Copy.
	go func() {
		select {
		case <-gctx.Done():
			closeBoth()
		case <-done:
		}
	}()

	err := g.Wait()
	close(done)
	return err
}

func halfClose(w io.Writer) {
	if cw, ok := w.(closeWriter); ok {
		_ = cw.CloseWrite()
	}
}
