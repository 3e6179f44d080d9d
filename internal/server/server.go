// package server contains the router, middleware & OAuth callback handler for local authorization flows
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundbits/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// CallbackServer serves a [Router] on a local address for the lifetime of one authorization.
type CallbackServer struct {
	srv      *http.Server
	listener net.Listener
	errs     chan error
	logger   *log.Logger
}

// NewCallbackServer creates a server for addr ("host:port"). It does not listen until [CallbackServer.Start].
func NewCallbackServer(addr string, router Router, logger *log.Logger) *CallbackServer {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &CallbackServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		errs:   make(chan error, 1),
		logger: logger,
	}
}

// Start binds the listener synchronously and serves in the background.
//
// Serve errors other than [http.ErrServerClosed] are delivered on [CallbackServer.Errors].
func (c *CallbackServer) Start() error {
	ln, err := net.Listen("tcp", c.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", c.srv.Addr, err)
	}
	c.listener = ln

	go func() {
		c.logger.Debug("callback server listening", "addr", ln.Addr().String())
		if err := c.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.errs <- err
		}
	}()
	return nil
}

// Addr returns the bound address, which differs from the configured one when port 0 was requested.
func (c *CallbackServer) Addr() string {
	if c.listener == nil {
		return c.srv.Addr
	}
	return c.listener.Addr().String()
}

// Errors returns the channel receiving fatal serve errors.
func (c *CallbackServer) Errors() <-chan error {
	return c.errs
}

// Shutdown gracefully stops the server.
func (c *CallbackServer) Shutdown(ctx context.Context) error {
	return c.srv.Shutdown(ctx)
}
