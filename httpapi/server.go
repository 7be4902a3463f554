// Package httpapi implements blobd's HTTP surface (C4): routing,
// authentication, multipart intake, streamed responses, and error-to-
// status mapping. Routing and access-log middleware are grounded on the
// teacher's registry/handlers/app.go (gorilla/mux router, handler
// dispatch by route) and its use of github.com/gorilla/handlers for
// request logging.
package httpapi

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/blobd/blobd/engine"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// IdleBodyTimeout is the read deadline for an upload's request body. It is
// set once, when the upload handler starts, and is not extended as data
// arrives, so it caps the total time spent reading the body rather than
// the time between reads. If reading the body times out before any part
// has been stored, the response is 400; otherwise the parts already stored
// are reported with 200. Digest computation itself is never separately
// timed out.
const IdleBodyTimeout = 60 * time.Second

// Server is blobd's HTTP service: an *engine.Engine plus the shared auth
// token, wired into a router. It carries no other mutable state —
// everything it needs is constructed at bootstrap and closed over by the
// handlers (spec §9: no process-wide singletons).
type Server struct {
	engine    *engine.Engine
	authToken string
	log       logrus.FieldLogger
	router    *mux.Router
	handler   http.Handler
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithAccessLog overrides where access-log lines are written. Defaults
// to os.Stderr.
func WithAccessLog(w io.Writer) Option {
	return func(s *Server) { s.handler = handlers.CombinedLoggingHandler(w, s.router) }
}

// New builds a Server ready to be used as an http.Handler or passed to
// ListenAndServe.
func New(eng *engine.Engine, authToken string, log logrus.FieldLogger, opts ...Option) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &Server{engine: eng, authToken: authToken, log: log}
	s.router = mux.NewRouter()
	s.routes()
	s.handler = handlers.CombinedLoggingHandler(os.Stderr, s.router)

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ServeHTTP makes Server an http.Handler, with every request passing
// through the access-log wrapper configured at construction.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP service on addr and blocks until ctx is
// canceled or the server fails.
func ListenAndServe(ctx context.Context, addr string, s *Server) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
