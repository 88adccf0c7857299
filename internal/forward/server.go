package forward

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/die-net/socksconnect/internal/dialer"
)

type Server struct {
	ctx       context.Context
	proxy     string
	target    dialer.Target
	connector *dialer.Connector
	log       *zap.Logger
}

// NewServer returns a Server that tunnels accepted connections according to
// cfg. Canceling ctx aborts in-flight tunnels.
func NewServer(ctx context.Context, cfg Config) *Server {
	if ctx == nil {
		ctx = context.Background()
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	connector := cfg.Connector
	if connector == nil {
		connector = dialer.NewConnector(dialer.Config{KeepAlive: cfg.KeepAlive, Logger: log})
	}
	return &Server{
		ctx:       ctx,
		proxy:     cfg.Proxy,
		target:    cfg.Target,
		connector: connector,
		log:       log,
	}
}

// Serve accepts connections on ln until it is closed.
func (s *Server) Serve(ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) && s.ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go func() {
			session := uuid.NewString()
			log := s.log.With(zap.String("session", session), zap.Stringer("client", c.RemoteAddr()))
			if err := s.handle(c, log); err != nil {
				log.Info("forward: connection error", zap.Error(err))
				return
			}
			log.Debug("forward: connection closed")
		}()
	}
}

func (s *Server) handle(conn net.Conn, log *zap.Logger) error {
	defer conn.Close()
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	up, err := s.connector.Connect(ctx, s.proxy, s.target)
	if err != nil {
		return err
	}
	defer up.Close()

	log.Debug("forward: tunnel open", zap.String("proxy", up.ProxyAddr()), zap.String("variant", up.Variant()))

	if err := CopyBidirectional(ctx, conn, up); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return nil
}
