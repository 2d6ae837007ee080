package server

import (
	"net/http"

	"cat-endurance/internal/config"
	"cat-endurance/internal/constants"
	"cat-endurance/internal/middleware"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Router registers a group of endpoints on the shared mux.
type Router interface {
	Routes(mux *http.ServeMux)
}

// NewHandler returns the full API: routes behind CORS, request ids, a request deadline,
// panic recovery and a body cap.
func NewHandler(cfg *config.Config, logger zerolog.Logger, routers ...Router) http.Handler {
	mux := http.NewServeMux()
	for _, rt := range routers {
		rt.Routes(mux)
	}

	origins := []string{"*"}
	if cfg != nil && len(cfg.AllowedOrigins) > 0 {
		origins = cfg.AllowedOrigins
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	})

	return middleware.Chain(jsonFallback(mux),
		c.Handler,
		middleware.RequestID(logger),
		middleware.Timeout(constants.RequestTimeout),
		middleware.Recover(logger),
		middleware.LimitBody(constants.MaxRequestBodyBytes),
	)
}

// jsonFallback answers requests that match no pattern with the error envelope instead of
// the mux's plain text. A method mismatch keeps its 405 and Allow header.
func jsonFallback(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, pattern := mux.Handler(r)
		if pattern != "" {
			mux.ServeHTTP(w, r)
			return
		}

		rec := &headerRecorder{header: http.Header{}}
		h.ServeHTTP(rec, r)
		if allow := rec.header.Get("Allow"); allow != "" {
			w.Header().Set("Allow", allow)
		}

		switch rec.status {
		case http.StatusMethodNotAllowed:
			writeError(w, r, rec.status, "method not allowed")
		default:
			writeError(w, r, http.StatusNotFound, "route not found")
		}
	})
}

// headerRecorder keeps the status and headers of a fallback response and drops its body.
type headerRecorder struct {
	header http.Header
	status int
}

func (h *headerRecorder) Header() http.Header {
	return h.header
}

func (h *headerRecorder) WriteHeader(status int) {
	if h.status == 0 {
		h.status = status
	}
}

func (h *headerRecorder) Write(b []byte) (int, error) {
	h.WriteHeader(http.StatusOK)
	return len(b), nil
}
