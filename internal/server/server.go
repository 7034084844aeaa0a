package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/xtding233/gacha-planner/internal/config"
	"github.com/xtding233/gacha-planner/internal/plan"
)

// Server hosts the HTTP and gRPC APIs and the config watcher.
type Server struct {
	log        *slog.Logger
	httpLn     net.Listener
	grpcLn     net.Listener
	httpServer *http.Server
	grpcServer *grpc.Server
	health     *health.Server
	watcher    *plan.ConfigWatcher
}

// New listens on the configured addresses and wires the service.
func New(cfg config.Config, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	loader := plan.NewLoader(cfg.ConfigDir)
	if _, err := loader.Base(); err != nil {
		return nil, fmt.Errorf("load config dir %s: %w", cfg.ConfigDir, err)
	}
	svc := NewService(loader, ServiceOptions{
		Workers:        cfg.Workers,
		MaxRepetitions: cfg.MaxRepetitions,
		Logger:         log,
	})

	httpLn, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}
	grpcLn, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		_ = httpLn.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.GRPCAddr, err)
	}
	gs, hs := NewGRPCServer(svc, log)

	s := &Server{
		log:    log,
		httpLn: httpLn,
		grpcLn: grpcLn,
		httpServer: &http.Server{
			Handler:           Handler(svc, log),
			ReadHeaderTimeout: 10 * time.Second,
		},
		grpcServer: gs,
		health:     hs,
	}
	if cfg.ReloadInterval > 0 {
		s.watcher = plan.WatchLoader(loader, cfg.ReloadInterval, log)
	}
	return s, nil
}

// HTTPAddr returns the bound HTTP address.
func (s *Server) HTTPAddr() string { return s.httpLn.Addr().String() }

// GRPCAddr returns the bound gRPC address.
func (s *Server) GRPCAddr() string { return s.grpcLn.Addr().String() }

// Serve runs both servers until ctx is done or one of them fails.
func (s *Server) Serve(ctx context.Context) error {
	if s.watcher != nil {
		s.watcher.Start()
		defer s.watcher.Stop()
	}
	s.log.Info("planner listening", "http", s.HTTPAddr(), "grpc", s.GRPCAddr())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.httpServer.Serve(s.httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.grpcServer.Serve(s.grpcLn); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.health.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := s.httpServer.Shutdown(shutdownCtx)
		s.grpcServer.GracefulStop()
		return err
	})
	return g.Wait()
}
