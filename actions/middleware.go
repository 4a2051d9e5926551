package actions

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"blinks/backend"
)

const (
	corsMethods = "GET,POST,PUT,OPTIONS"
	corsHeaders = "Content-Type, Authorization, Content-Encoding, Accept-Encoding, X-Action-Version, X-Blockchain-Ids"
	corsExpose  = "X-Action-Version, X-Blockchain-Ids"
)

// requestID tags the request context with X-Request-ID (or a fresh uuid)
// and echoes it back.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(backend.WithOperationID(r.Context(), id)))
	})
}

// cors answers preflights and decorates every response with the headers
// blink clients expect.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		origin := "*"
		if s.corsOrigins != nil {
			origin = ""
			if o := r.Header.Get("Origin"); s.corsOrigins[o] {
				origin = o
			}
			h.Add("Vary", "Origin")
		}
		if origin != "" {
			h.Set("Access-Control-Allow-Origin", origin)
		}
		h.Set("Access-Control-Allow-Methods", corsMethods)
		h.Set("Access-Control-Allow-Headers", corsHeaders)
		h.Set("Access-Control-Expose-Headers", corsExpose)
		h.Set("X-Action-Version", actionVersion)
		if h.Get("X-Blockchain-Ids") == "" {
			if cfg, err := s.registry.Resolve(s.defaultCluster()); err == nil {
				h.Set("X-Blockchain-Ids", cfg.BlockchainID())
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allow rejects methods outside methods with 405 and an Allow header.
func allow(h http.HandlerFunc, methods ...string) http.Handler {
	allowed := strings.Join(append(methods, http.MethodOptions), ", ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, m := range methods {
			if r.Method == m {
				h(w, r)
				return
			}
		}
		w.Header().Set("Allow", allowed)
		respondError(w, "Method "+r.Method+" Not Allowed", http.StatusMethodNotAllowed)
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.WithFields(logrus.Fields{
					"request_id": backend.OperationID(r.Context()),
					"panic":      rec,
				}).Errorf("panic serving %s %s\n%s", r.Method, r.URL.Path, debug.Stack())
				respondError(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"request_id": backend.OperationID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start).String(),
		}).Info("request")
	})
}
