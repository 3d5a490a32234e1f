// Package api exposes the comparison pipeline over HTTP for local frontends:
// timeline listing, session creation, diff summaries, per-target status
// polling, and rendered image retrieval. Sessions are held in memory and
// owned by the server; deleting a session (or shutting the server down)
// releases its temp files and cache.
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ecadlab/boardsnap/pkg/buildinfo"
	"github.com/ecadlab/boardsnap/pkg/cache"
	"github.com/ecadlab/boardsnap/pkg/compare"
	"github.com/ecadlab/boardsnap/pkg/config"
	"github.com/ecadlab/boardsnap/pkg/errors"
	"github.com/ecadlab/boardsnap/pkg/git"
	"github.com/ecadlab/boardsnap/pkg/render"
)

// Options wires a server to its collaborators. Exporter and Lister are both
// implemented by *kicad.Client; tests substitute fakes.
type Options struct {
	ProjectDir  string
	Config      *config.Config
	Exporter    compare.Exporter
	Lister      render.LayerLister
	ToolVersion string
	Git         *git.Client
	LayerCache  cache.Cache
	Logger      *log.Logger
}

// Server holds the comparison sessions and the shared tool clients.
type Server struct {
	projectDir  string
	cfg         *config.Config
	exporter    compare.Exporter
	lister      render.LayerLister
	toolVersion string
	gitClient   *git.Client
	layerCache  cache.Cache
	logger      *log.Logger

	mu       sync.Mutex
	sessions map[string]*compare.Session
}

// NewServer builds a server for one project directory.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	cfg := opts.Config
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}
	gc := opts.Git
	if gc == nil {
		gc = git.NewClient("")
	}
	return &Server{
		projectDir:  opts.ProjectDir,
		cfg:         cfg,
		exporter:    opts.Exporter,
		lister:      opts.Lister,
		toolVersion: opts.ToolVersion,
		gitClient:   gc,
		layerCache:  opts.LayerCache,
		logger:      logger,
		sessions:    make(map[string]*compare.Session),
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Get("/timeline", s.handleTimeline)
	r.Post("/compare", s.handleCreateCompare)
	r.Route("/compare/{id}", func(r chi.Router) {
		r.Get("/diff", s.handleDiff)
		r.Get("/targets", s.handleTargets)
		r.Get("/status", s.handleStatus)
		r.Get("/images", s.handleImages)
		r.Get("/image", s.handleImage)
		r.Delete("/", s.handleDeleteCompare)
	})
	return r
}

// Close tears down every live session.
func (s *Server) Close() error {
	s.mu.Lock()
	sessions := make([]*compare.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessions = make(map[string]*compare.Session)
	s.mu.Unlock()

	var firstErr error
	for _, sess := range sessions {
		if err := sess.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// session looks up a live session by id.
func (s *Server) session(id string) (*compare.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "no comparison session %q", id)
	}
	return sess, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
		"kicad":   s.toolVersion,
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, httpStatus(err), errorResponse{
		Error: errors.UserMessage(err),
		Code:  errors.GetCode(err),
	})
}

// httpStatus maps the error taxonomy onto HTTP status codes.
func httpStatus(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeSessionNotFound, errors.ErrCodeTargetNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidProject, errors.ErrCodeInvalidSource:
		return http.StatusBadRequest
	case errors.ErrCodeSourceUnavailable:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeToolNotFound:
		return http.StatusServiceUnavailable
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
