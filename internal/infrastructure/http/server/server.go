// Package server assembles the HTTP surface: routing, middleware and
// lifecycle.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	healthhttp "cartbill/ms_invoicing_core/internal/adapters/http/health"
	invoicehttp "cartbill/ms_invoicing_core/internal/adapters/http/invoice"
	"cartbill/ms_invoicing_core/internal/infrastructure/config"
	"cartbill/ms_invoicing_core/internal/infrastructure/http/middleware"
)

// pdfTimeout is the request budget for PDF downloads, which can wait on
// the provider rendering the document. The server's write timeout must
// exceed it or the connection is severed before the budget is spent.
const pdfTimeout = 2 * time.Minute

// Server wires routing, middleware and the HTTP lifecycle together.
type Server struct {
	log        *slog.Logger
	httpServer *http.Server
	shutdown   time.Duration
}

// Options holds the server's collaborators. Health and Invoice handlers are
// required; Auth is optional and skipped when nil.
type Options struct {
	HTTP    config.HTTPSettings
	Logger  *slog.Logger
	Health  *healthhttp.Handler
	Invoice *invoicehttp.Handler
	Auth    *middleware.JWTAuthenticator
}

// New builds the router and the underlying http.Server.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Health == nil {
		return nil, errors.New("health handler is required")
	}
	if opts.Invoice == nil {
		return nil, errors.New("invoice handler is required")
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(opts.Logger))
	if opts.Auth != nil {
		r.Use(opts.Auth.Middleware)
	}

	r.Get("/health", opts.Health.Status)

	r.Route("/api/v1/orders/{orderID}", func(r chi.Router) {
		r.Post("/invoice", opts.Invoice.CreateInvoice)
		r.Post("/invoice/cancel", opts.Invoice.CancelInvoice)
		r.With(middleware.Timeout(pdfTimeout)).Get("/invoice/pdf", opts.Invoice.DownloadPDF)
		r.Get("/activity", opts.Invoice.GetActivity)
	})

	srv := &http.Server{
		Addr:         opts.HTTP.Address(),
		Handler:      r,
		ReadTimeout:  opts.HTTP.ReadTimeout,
		WriteTimeout: opts.HTTP.WriteTimeout,
		IdleTimeout:  opts.HTTP.IdleTimeout,
	}

	shutdown := opts.HTTP.ShutdownTimeout
	if shutdown <= 0 {
		shutdown = 30 * time.Second
	}

	return &Server{log: opts.Logger, httpServer: srv, shutdown: shutdown}, nil
}

// Run serves until the context is cancelled, then drains in-flight requests
// within the shutdown budget.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server started", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error("HTTP server shutdown failed", "error", err)
			return err
		}
		s.log.Info("HTTP server stopped")
		return nil
	case err := <-errCh:
		return err
	}
}

// Handler exposes the assembled router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
