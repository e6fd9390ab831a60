// Package httpapi exposes reconstruction over HTTP.
//
//	POST /v1/unshred?strips=N      body: encoded image, response: PNG
//	POST /v1/shred?strips=N&seed=S body: encoded image, response: PNG
//	GET  /v1/runs?limit=N          recent run history
//	GET  /v1/runs/{id}             one run
//	GET  /healthz
//
// The strip order of a result is returned in the X-Strip-Order header as
// comma-separated input strip indices.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/ironsheep/image-unshred/internal/imaging"
	"github.com/ironsheep/image-unshred/internal/logging"
	"github.com/ironsheep/image-unshred/internal/pipeline"
	"github.com/ironsheep/image-unshred/internal/storage"
	"github.com/ironsheep/image-unshred/internal/unshred"
)

// MaxBodyBytes bounds uploaded images.
const MaxBodyBytes = 64 << 20

// Response headers.
const (
	HeaderStripOrder = "X-Strip-Order"
	HeaderSeamStrip  = "X-Seam-Strip"
	HeaderStrips     = "X-Strips"
	HeaderRunID      = "X-Run-ID"
)

// RunStore reads run history. *storage.Store satisfies it.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]storage.Run, error)
	GetRun(ctx context.Context, id string) (*storage.Run, error)
}

// Server serves the HTTP API.
type Server struct {
	pipe   *pipeline.Pipeline
	store  RunStore
	log    *slog.Logger
	router *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables the history endpoints.
func WithStore(st RunStore) Option {
	return func(s *Server) { s.store = st }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// New returns a Server running reconstructions through p.
func New(p *pipeline.Pipeline, opts ...Option) *Server {
	if p == nil {
		p = pipeline.New(nil)
	}
	s := &Server{
		pipe: p,
		log:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter()
	s.setupRoutes(r)
	s.router = r
	return s
}

func (s *Server) setupRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	r.HandleFunc("/v1/unshred", s.handleUnshred).Methods("POST")
	r.HandleFunc("/v1/shred", s.handleShred).Methods("POST")
	r.HandleFunc("/v1/runs", s.handleRuns).Methods("GET")
	r.HandleFunc("/v1/runs/{id}", s.handleRun).Methods("GET")
	r.Use(s.logRequests)
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.log.Info("shutting down http server")

		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctxShutdown)
	}()

	s.log.Info("http server starting", "addr", addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleUnshred(w http.ResponseWriter, r *http.Request) {
	strips, err := intParam(r, "strips", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	frame, err := imaging.Decode(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		s.writeError(w, err)
		return
	}

	out, err := s.pipe.Unshred(r.Context(), pipeline.Request{
		Source: "http:" + r.RemoteAddr,
		Frame:  frame,
		Strips: strips,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set(HeaderStripOrder, formatOrder(out.Result.Order))
	w.Header().Set(HeaderSeamStrip, strconv.Itoa(out.Result.SeamStrip))
	w.Header().Set(HeaderStrips, strconv.Itoa(out.Strips))
	if out.RunID != "" {
		w.Header().Set(HeaderRunID, out.RunID)
	}
	s.writePNG(w, out.Frame.Image())
}

func (s *Server) handleShred(w http.ResponseWriter, r *http.Request) {
	strips, err := intParam(r, "strips", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	seed, err := intParam(r, "seed", 1)
	if err != nil {
		s.writeError(w, err)
		return
	}
	frame, err := imaging.Decode(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		s.writeError(w, err)
		return
	}

	out, err := s.pipe.Shred(r.Context(), pipeline.ShredRequest{
		Source: "http:" + r.RemoteAddr,
		Image:  frame.Image(),
		Strips: strips,
		Seed:   int64(seed),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set(HeaderStripOrder, formatOrder(out.Order))
	w.Header().Set(HeaderStrips, strconv.Itoa(strips))
	if out.RunID != "" {
		w.Header().Set(HeaderRunID, out.RunID)
	}
	s.writePNG(w, out.Image)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "run history is disabled", http.StatusServiceUnavailable)
		return
	}
	limit, err := intParam(r, "limit", 50)
	if err != nil {
		s.writeError(w, err)
		return
	}
	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if runs == nil {
		runs = []storage.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "run history is disabled", http.StatusServiceUnavailable)
		return
	}
	run, err := s.store.GetRun(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) writePNG(w http.ResponseWriter, img image.Image) {
	data, err := imaging.EncodePNG(img)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	bytes.NewReader(data).WriteTo(w)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, unshred.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, unshred.ErrIncompleteReconstruction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, unshred.ErrPixelAcquisition):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s=%q: %w", name, v, unshred.ErrInvalidArgument)
	}
	return n, nil
}

func formatOrder(order unshred.StripOrder) string {
	parts := make([]string, len(order))
	for i, s := range order {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ",")
}

// ParseOrder parses an X-Strip-Order header value.
func ParseOrder(v string) (unshred.StripOrder, error) {
	if v == "" {
		return nil, nil
	}
	parts := strings.Split(v, ",")
	order := make(unshred.StripOrder, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("strip order %q: %w", v, unshred.ErrInvalidArgument)
		}
		order[i] = n
	}
	return order, nil
}
