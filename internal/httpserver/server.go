// Package httpserver exposes the delivery gate of the catalog: a health
// probe and the /verify endpoint the download page calls to push the final
// link to the requesting user. It is fully independent of chat session state.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/m3rciful/scriptsbot/core/logger"
)

// Server wraps the HTTP listener for the delivery gate.
type Server struct {
	http *http.Server
}

// New builds the router and listener on the given port.
func New(port int, d Deps) *Server {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(accessLog)

	r.Get("/health", handleHealth)
	r.Post("/verify", handleVerify(d))

	return &Server{
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Start runs the listener in the background and reports startup failures
// through the logger; graceful shutdown is not an error.
func (s *Server) Start() {
	go func() {
		logger.Info(context.Background(), "http", "listen", slog.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http", "listen",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}()
}

// Stop drains in-flight requests within the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Info(r.Context(), "http", "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("code", ww.Status()),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
			slog.String("rid", chimw.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
