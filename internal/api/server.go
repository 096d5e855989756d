// Package api serves the save slot HTTP API and the game's static assets.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// APIPrefix is the path prefix of every JSON endpoint.
const APIPrefix = "/api"

type (
	// BuildInfo is reported by /healthz.
	BuildInfo struct {
		Version string `json:"version"`
		Commit  string `json:"commit"`
		Built   string `json:"built"`
	}

	// ServerConfig is the http server config.
	ServerConfig struct {
		StaticDir       string
		RequestLogging  bool
		Debug           bool
		ShutdownTimeout time.Duration
		Build           BuildInfo
	}

	// Server serves the save API and static files.
	Server struct {
		cfg    ServerConfig
		log    zerolog.Logger
		server *http.Server
	}
)

// NewServer constructs the http server.
func NewServer(log zerolog.Logger, svc SaveService, cfg ServerConfig) *Server {
	log = log.With().Str("cmp", "http").Logger()

	r := mux.NewRouter()

	healthz, _ := json.Marshal(cfg.Build)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(healthz)
	}).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	if cfg.Debug {
		addDebugHandlers(r)
	}

	h := &saveHandlers{svc: svc, log: log}
	h.addHandlers(r.PathPrefix(APIPrefix).Subrouter())

	if cfg.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.StaticDir))).Methods(http.MethodGet, http.MethodHead)
	}

	var handler http.Handler = r
	if cfg.RequestLogging {
		handler = logRequests(log, handler)
	}
	handler = requestID(handler)
	handler = gorillaHandlers.CompressHandler(handler)
	handler = gorillaHandlers.RecoveryHandler(
		gorillaHandlers.RecoveryLogger(recoveryLogger{log}),
		gorillaHandlers.PrintRecoveryStack(true),
	)(handler)

	return &Server{
		cfg:    cfg,
		log:    log,
		server: &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second},
	}
}

// Handler returns the root handler, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves on ln until the server fails or ctx is cancelled, in which
// case in-flight requests get the configured shutdown timeout to finish.
func (s *Server) Start(ctx context.Context, ln net.Listener) error {
	errch := make(chan error, 1)

	go func() {
		errch <- s.server.Serve(ln)
	}()

	s.log.Info().Str("address", ln.Addr().String()).Msg("started server")

	select {
	case err := <-errch:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info().Msg("gracefully shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			return s.server.Close()
		}

		return nil
	}
}

// addDebugHandlers mounts the pprof endpoints.
func addDebugHandlers(r *mux.Router) {
	r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	r.HandleFunc("/debug/pprof/profile", pprof.Profile)
	r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	r.HandleFunc("/debug/pprof/trace", pprof.Trace)
	r.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
}

type recoveryLogger struct {
	log zerolog.Logger
}

func (l recoveryLogger) Println(v ...any) {
	l.log.Error().Interface("panic", v).Msg("recovered from panic")
}
