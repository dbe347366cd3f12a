// Package http serves the tracker window as an HTML page on the loopback
// interface. Every window action is a form; window.js posts it in the
// background and swaps in the re-rendered window, speaking the HX-Request
// and HX-Trigger header conventions. Without scripts the forms still work
// as ordinary page loads.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	applog "investtracker/internal/log"
	"investtracker/internal/middleware/security"
	"investtracker/internal/middleware/trace"
	"investtracker/internal/window"
	appweb "investtracker/web"
)

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server
	templates *template.Template
	win       *window.Window
	store     Pinger
	logger    *applog.Logger
	tracer    *trace.Middleware
	started   time.Time

	quit         chan struct{}
	quitOnce     sync.Once
	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and wires the routes.
func NewServer(addr string, win *window.Window, store Pinger, logger *applog.Logger) (*Server, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		templates: t,
		win:       win,
		store:     store,
		logger:    logger.WithComponent(applog.ComponentHTTP),
		tracer:    trace.NewMiddleware(logger),
		started:   time.Now(),
		quit:      make(chan struct{}),
	}

	mux := http.NewServeMux()

	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static files: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(sub)))))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	ui := func(h http.HandlerFunc) http.Handler { return security.NoStore(h) }
	mux.Handle("GET /{$}", ui(s.handleIndex))
	mux.Handle("GET /ui/window", ui(s.handleWindow))
	mux.Handle("POST /investments", ui(s.handleAdd))
	mux.Handle("GET /ui/filter", ui(s.handleFilter))
	mux.Handle("POST /ui/rows/{row}/select", ui(s.handleSelect))
	mux.Handle("POST /ui/rows/{row}/amount", ui(s.handleEditAmount))
	mux.Handle("POST /ui/rows/{row}/delete", ui(s.handleDelete))
	mux.Handle("POST /ui/confirm", ui(s.handleConfirm))
	mux.Handle("POST /ui/dismiss", ui(s.handleDismiss))
	mux.Handle("POST /quit", ui(s.handleQuit))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(headers.Middleware(mux)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Quit is closed once the user closes the window.
func (s *Server) Quit() <-chan struct{} {
	return s.quit
}

func (s *Server) requestQuit() {
	s.quitOnce.Do(func() { close(s.quit) })
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.logger.InfoContext(ctx, "Shutting down HTTP server", applog.FieldOperation, applog.OpShutdown)
		err = s.Server.Shutdown(ctx)
	})
	return err
}
