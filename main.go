package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // Intentionally exposed on debug port.
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/die-net/socksconnect/internal/dialer"
	"github.com/die-net/socksconnect/internal/forward"
	"github.com/die-net/socksconnect/internal/logging"
	"github.com/die-net/socksconnect/internal/proxyurl"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	config string

	proxy       string
	target      string
	listen      string
	debugListen string

	dialTimeout        time.Duration
	negotiationTimeout time.Duration
	tcpKeepAlive       string

	logLevel  string
	logFormat string
}

func newFlagSet(o *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("socksconnect", pflag.ContinueOnError)

	fs.StringVar(&o.config, "config", "", "YAML file supplying defaults for any of the flags below")

	fs.StringVar(&o.proxy, "proxy", "", "SOCKS proxy URL: socks4://[userid@]host[:port] | socks4a://... | socks5://[user:pass@]host[:port] | socks5h://... (default $ALL_PROXY)")
	fs.StringVar(&o.target, "target", "", "Destination host:port requested from the proxy")
	fs.StringVar(&o.listen, "listen", "", "Forward connections accepted on this address (e.g. 127.0.0.1:2222). Empty tunnels stdin/stdout.")
	fs.StringVar(&o.debugListen, "debug-listen", "", "Debug HTTP listen address exposing /debug/pprof in listen mode (e.g. 127.0.0.1:6060). Empty disables.")

	fs.DurationVar(&o.dialTimeout, "dial-timeout", 10*time.Second, "Timeout for DNS lookup and TCP connect to the proxy, 0 for none")
	fs.DurationVar(&o.negotiationTimeout, "negotiation-timeout", 10*time.Second, "Timeout for the SOCKS handshake, 0 for none")
	fs.StringVar(&o.tcpKeepAlive, "tcp-keepalive", "45:45:3", "TCP keepalive: on|off|keepidle:keepintvl:keepcnt")

	fs.StringVar(&o.logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	fs.StringVar(&o.logFormat, "log-format", "console", "Log format: console|json")

	fs.SortFlags = false
	return fs
}

// parseOptions parses args, then fills any flag not given on the command line
// from the --config file. --proxy falls back to ALL_PROXY last.
func parseOptions(args []string) (options, error) {
	var o options
	fs := newFlagSet(&o)
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	if o.config != "" {
		fc, err := loadConfigFile(o.config)
		if err != nil {
			return o, fmt.Errorf("config %s: %w", o.config, err)
		}
		if err := fc.apply(fs); err != nil {
			return o, fmt.Errorf("config %s: %w", o.config, err)
		}
	}
	if !fs.Changed("proxy") {
		o.proxy = defaultProxy()
	}
	return o, nil
}

func run(args []string) error {
	o, err := parseOptions(args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	log, err := logging.New(o.logLevel, o.logFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ka, err := parseTCPKeepAlive(o.tcpKeepAlive)
	if err != nil {
		return fmt.Errorf("invalid --tcp-keepalive: %w", err)
	}

	// There is deliberately no "direct" fallback: no proxy is an error.
	if o.proxy == "" {
		return errors.New("no proxy configured (set --proxy or ALL_PROXY)")
	}
	if _, ok := proxyurl.ParseString(o.proxy); !ok {
		return fmt.Errorf("invalid --proxy: %w", dialer.ErrInvalidProxyURL)
	}

	if o.target == "" {
		return errors.New("--target is required")
	}
	target, err := dialer.ParseTarget(o.target)
	if err != nil {
		return fmt.Errorf("invalid --target: %w", err)
	}

	connector := dialer.NewConnector(dialer.Config{
		DialTimeout:        o.dialTimeout,
		NegotiationTimeout: o.negotiationTimeout,
		KeepAlive:          ka,
		Logger:             log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if o.listen == "" {
		conn, err := connector.Connect(ctx, o.proxy, target)
		if err != nil {
			return err
		}
		return pipeStdio(ctx, conn, os.Stdin, os.Stdout)
	}

	return serve(ctx, log, o, forward.Config{
		Proxy:     o.proxy,
		Target:    target,
		Connector: connector,
		KeepAlive: ka,
		Logger:    log,
	})
}

// pipeStdio copies in to conn and conn to out. It returns once the proxy side
// stops sending; EOF on in only half-closes conn.
func pipeStdio(ctx context.Context, conn *dialer.Conn, in io.Reader, out io.Writer) error {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	go func() {
		if _, err := io.Copy(conn, in); err == nil {
			_ = conn.CloseWrite()
		}
	}()

	_, err := io.Copy(out, conn)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func serve(ctx context.Context, log *zap.Logger, o options, cfg forward.Config) error {
	g, ctx := errgroup.WithContext(ctx)

	if o.debugListen != "" {
		debugSrv := &http.Server{Handler: http.DefaultServeMux} //nolint:gosec // Not concerned about timeouts on debug port.
		debugLn, err := forward.ListenTCP(ctx, "tcp", o.debugListen, cfg.KeepAlive)
		if err != nil {
			return fmt.Errorf("debug listen: %w", err)
		}
		context.AfterFunc(ctx, func() {
			_ = debugSrv.Close()
			_ = debugLn.Close()
		})

		g.Go(func() error {
			if err := debugSrv.Serve(debugLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("debug serve: %w", err)
			}
			return nil
		})
		log.Info("debug listening", zap.String("addr", debugLn.Addr().String()))
	}

	ln, err := forward.ListenTCP(ctx, "tcp", o.listen, cfg.KeepAlive)
	if err != nil {
		return fmt.Errorf("forward listen: %w", err)
	}
	srv := forward.NewServer(ctx, cfg)
	context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil {
			return fmt.Errorf("forward serve: %w", err)
		}
		return nil
	})
	log.Info("forwarding",
		zap.String("listen", ln.Addr().String()),
		zap.Stringer("target", cfg.Target),
	)

	err = g.Wait()
	log.Info("shutting down")
	return err
}

func parseTCPKeepAlive(s string) (net.KeepAliveConfig, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return net.KeepAliveConfig{}, errors.New("empty")
	}
	if s == "on" {
		return net.KeepAliveConfig{Enable: true}, nil
	}
	if s == "off" {
		return net.KeepAliveConfig{Enable: false}, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return net.KeepAliveConfig{}, errors.New("expected on|off|keepidle:keepintvl:keepcnt")
	}
	keepIdle, err := parsePositiveSeconds(parts[0])
	if err != nil {
		return net.KeepAliveConfig{}, fmt.Errorf("keepidle: %w", err)
	}
	keepIntvl, err := parsePositiveSeconds(parts[1])
	if err != nil {
		return net.KeepAliveConfig{}, fmt.Errorf("keepintvl: %w", err)
	}
	keepCnt, err := parsePositiveInt(parts[2])
	if err != nil {
		return net.KeepAliveConfig{}, fmt.Errorf("keepcnt: %w", err)
	}

	return net.KeepAliveConfig{
		Enable:   true,
		Idle:     keepIdle,
		Interval: keepIntvl,
		Count:    keepCnt,
	}, nil
}

func parsePositiveSeconds(s string) (time.Duration, error) {
	n, err := parsePositiveInt(s)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("must be > 0")
	}
	return n, nil
}

func defaultProxy() string {
	if p := os.Getenv("ALL_PROXY"); p != "" {
		return p
	}
	return os.Getenv("all_proxy")
}
