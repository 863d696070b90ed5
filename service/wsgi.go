package service

import (
	lib "net/http"
	"sync"

	"github.com/gorilla/handlers"
	"go.bryk.io/compute/errors"
	xlog "go.bryk.io/compute/log"
	srvhttp "go.bryk.io/compute/net/http"
	"go.bryk.io/compute/net/middleware/recovery"
	"golang.org/x/sync/errgroup"
)

// WsgiService hosts one or more HTTP applications, the sibling runtime to
// Service for processes that front request/response APIs instead of
// consuming broker messages. Each configured app gets its own
// net/http.Server bound to "<listen>:<listen_port>", wrapped with
// combined-log-format access logging and panic recovery.
type WsgiService struct {
	log xlog.Logger

	mu      sync.Mutex
	servers []*srvhttp.Server
	group   *errgroup.Group
	started bool
}

// WsgiApp pairs a WsgiAppConfig with the handler it serves.
type WsgiApp struct {
	Config  WsgiAppConfig
	Handler lib.Handler
}

// NewWsgiService builds a WsgiService that writes the access logs of every
// hosted app through ll; a nil ll discards them.
func NewWsgiService(ll xlog.Logger) *WsgiService {
	if ll == nil {
		ll = xlog.Discard()
	}
	return &WsgiService{log: ll}
}

// Start builds and launches a net/http.Server for every app, each on its
// own goroutine. Start returns once every listener has been constructed;
// it does not wait for them to stop (use Wait for that).
func (w *WsgiService) Start(apps ...WsgiApp) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return errors.New("wsgi service already started")
	}

	group := &errgroup.Group{}
	for _, app := range apps {
		access := w.log.Sub(xlog.Fields{"app": app.Config.Name})
		wrapped := handlers.CombinedLoggingHandler(accessLogWriter{access}, app.Handler)

		srv, err := srvhttp.NewServer(
			srvhttp.WithAddress(app.Config.Listen, app.Config.Port),
			srvhttp.WithHandler(wrapped),
			srvhttp.WithMiddleware(recovery.Handler()),
		)
		if err != nil {
			return err
		}
		w.servers = append(w.servers, srv)

		srv := srv
		name := app.Config.Name
		group.Go(func() error {
			if err := srv.Start(); err != nil && err != lib.ErrServerClosed {
				w.log.WithFields(xlog.Fields{"app": name, "error": err.Error()}).Error("wsgi listener failed")
				return err
			}
			return nil
		})
	}
	w.group = group
	w.started = true
	return nil
}

// Stop gracefully shuts down every hosted app.
func (w *WsgiService) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return nil
	}
	var first error
	for _, srv := range w.servers {
		if err := srv.Stop(true); err != nil && first == nil {
			first = err
		}
	}
	w.started = false
	return first
}

// Wait blocks until every hosted app's listener has returned.
func (w *WsgiService) Wait() error {
	w.mu.Lock()
	group := w.group
	w.mu.Unlock()
	if group == nil {
		return nil
	}
	return group.Wait()
}

// accessLogWriter adapts xlog.Logger to the io.Writer gorilla/handlers'
// CombinedLoggingHandler expects for its access log lines.
type accessLogWriter struct {
	log xlog.Logger
}

func (a accessLogWriter) Write(p []byte) (int, error) {
	a.log.Info(string(p))
	return len(p), nil
}
