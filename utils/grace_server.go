package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultReadTimeout     = 60 * time.Second
	DefaultWriteTimeout    = DefaultReadTimeout
	DefaultShutdownTimeout = 30 * time.Second
)

// Closer releases a resource once the HTTP server has drained.
type Closer func() error

// Server wraps http.Server with signal driven graceful shutdown and ordered resource release.
type Server struct {
	*http.Server

	signalChan   chan os.Signal
	shutdownChan chan struct{}
	shutdownOnce sync.Once

	mu      sync.Mutex
	closers []namedCloser
}

type namedCloser struct {
	name string
	fn   Closer
}

// NewServer creates a Server with timeouts and handler.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *Server {
	return &Server{
		Server: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		signalChan:   make(chan os.Signal, 1),
		shutdownChan: make(chan struct{}),
	}
}

// OnShutdown registers fn to run after the HTTP server stops. Closers run in reverse registration order.
func (srv *Server) OnShutdown(name string, fn Closer) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.closers = append(srv.closers, namedCloser{name: name, fn: fn})
}

// ListenAndServe starts serving on tcp and blocks until SIGINT/SIGTERM or Shutdown completes.
func (srv *Server) ListenAndServe() error {
	addr := srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("net.Listen error: %w", err)
	}
	return srv.Serve(ln)
}

// Serve accepts connections on ln until shutdown.
func (srv *Server) Serve(ln net.Listener) error {
	signal.Notify(srv.signalChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(srv.signalChan)
	go srv.handleSignals()

	err := srv.Server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	} else {
		srv.GracefulStop()
	}
	// Wait until Shutdown finished
	<-srv.shutdownChan
	return err
}

func (srv *Server) handleSignals() {
	select {
	case sig := <-srv.signalChan:
		Sugar.Infof("received %s, graceful shutting down HTTP server", sig)
		srv.GracefulStop()
	case <-srv.shutdownChan:
	}
}

// GracefulStop drains in-flight requests, then runs the registered closers. Safe to call more than once.
func (srv *Server) GracefulStop() {
	srv.shutdownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			Sugar.Errorf("HTTP server shutdown error: %v", err)
		} else {
			Sugar.Info("HTTP server shutdown success")
		}
		srv.runClosers()
		close(srv.shutdownChan)
	})
}

func (srv *Server) runClosers() {
	srv.mu.Lock()
	closers := srv.closers
	srv.closers = nil
	srv.mu.Unlock()

	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if err := c.fn(); err != nil {
			Logger.Error("resource close failed", zap.String("resource", c.name), zap.Error(err))
			continue
		}
		Logger.Info("resource closed", zap.String("resource", c.name))
	}
}
