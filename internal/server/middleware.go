package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/otaku572/gptproduct/internal/storage"
	"go.uber.org/zap"
)

// requestLogger logs each request with method, path, status, and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// storageReady gates API requests on the backing store being reachable.
// Ping lazily reinitializes the store, so a backend that failed at startup
// can recover on a later request.
func (s *Server) storageReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.svc.Store().Ping(r.Context()); err != nil {
			if errors.Is(err, storage.ErrUnavailable) {
				s.logger.Warn("storage unavailable", zap.Error(err))
				s.respondError(w, http.StatusServiceUnavailable, "storage unavailable")
				return
			}
			s.logger.Error("storage ping failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
