package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Handler is an [http.Handler] that knows the path patterns it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the ServeMux patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// PreviewServer serves a handler on a local listener.
type PreviewServer struct {
	srv *http.Server
	ln  net.Listener
}

// NewPreviewServer binds addr. Port 0 picks a free port.
func NewPreviewServer(addr string, handler http.Handler) (*PreviewServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return &PreviewServer{
		ln: ln,
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// URL is the base URL of the bound listener.
func (p *PreviewServer) URL() string {
	return "http://" + p.ln.Addr().String()
}

// Serve blocks until the server is shut down.
func (p *PreviewServer) Serve() error {
	if err := p.srv.Serve(p.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (p *PreviewServer) Shutdown(ctx context.Context) error {
	return p.srv.Shutdown(ctx)
}
