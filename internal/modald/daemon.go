// Package modald serves host surfaces and their modal dialog queues over
// gRPC, so dialogs can be driven from other processes.
package modald

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/opencode-ai/webmodal/internal/config"
	"github.com/opencode-ai/webmodal/internal/webmodal"
)

// DefaultPort is the default daemon port.
const DefaultPort = 50071

// Options configure the daemon runtime.
type Options struct {
	Hostname string
	Port     int
	Version  string
	// Observer receives lifecycle events from every surface.
	Observer webmodal.Observer
}

// Daemon is the long-running process that owns remote surfaces.
type Daemon struct {
	cfg    *config.Config
	logger zerolog.Logger
	opts   Options

	server     *Server
	limiter    *RateLimiter
	grpcServer *grpc.Server
}

// New constructs a daemon with the provided configuration.
func New(cfg *config.Config, logger zerolog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if opts.Hostname == "" {
		opts.Hostname = cfg.Daemon.Host
	}
	if opts.Hostname == "" {
		opts.Hostname = "127.0.0.1"
	}
	if opts.Port == 0 {
		opts.Port = cfg.Daemon.Port
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}

	server := NewServer(logger,
		WithVersion(opts.Version),
		WithObserver(opts.Observer),
		WithSurfaceDefaults(cfg.Dialogs.CloseOnInterstitial, cfg.Dialogs.HostVisible),
	)

	limiter := NewRateLimiter(WithEnabled(cfg.Daemon.RateLimit))
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(limiter.UnaryServerInterceptor()))
	RegisterModalServiceServer(grpcServer, server)

	return &Daemon{
		cfg:        cfg,
		logger:     logger,
		opts:       opts,
		server:     server,
		limiter:    limiter,
		grpcServer: grpcServer,
	}, nil
}

// Run starts the gRPC server and blocks until the context is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	bindAddr := d.Address()
	listener, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", bindAddr, err)
	}
	return d.serve(ctx, listener)
}

func (d *Daemon) serve(ctx context.Context, listener net.Listener) error {
	d.logger.Info().
		Str("bind", listener.Addr().String()).
		Str("version", d.opts.Version).
		Bool("rate_limit", d.limiter.IsEnabled()).
		Msg("modald gRPC server starting")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := d.grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("gRPC server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		d.logger.Info().Msg("modald shutting down...")
		d.grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	d.logger.Info().Msg("modald shutdown complete")
	return nil
}

// Address returns the host:port the daemon listens on.
func (d *Daemon) Address() string {
	return net.JoinHostPort(d.opts.Hostname, strconv.Itoa(d.opts.Port))
}

// Server returns the underlying service implementation.
// Useful for testing.
func (d *Daemon) Server() *Server {
	return d.server
}

// RateLimiter returns the daemon's rate limiter.
func (d *Daemon) RateLimiter() *RateLimiter {
	return d.limiter
}
