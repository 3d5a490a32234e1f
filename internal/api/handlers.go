package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ecadlab/boardsnap/pkg/compare"
	"github.com/ecadlab/boardsnap/pkg/errors"
	"github.com/ecadlab/boardsnap/pkg/fileset"
	"github.com/ecadlab/boardsnap/pkg/render"
	"github.com/ecadlab/boardsnap/pkg/timeline"
)

// handleTimeline lists the snapshots available for the project.
// Query: filter (all|backups|git, default all), limit.
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	filter := timeline.Filter(r.URL.Query().Get("filter"))
	if filter == "" {
		filter = timeline.FilterAll
	}
	switch filter {
	case timeline.FilterAll, timeline.FilterBackups, timeline.FilterGit:
	default:
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "unknown filter %q", filter))
		return
	}

	limit := s.cfg.TimelineLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "limit %q is not a number", raw))
			return
		}
		limit = n
	}
	limit = s.cfg.ClampTimelineLimit(limit)

	items, err := timeline.List(r.Context(), s.gitClient, s.projectDir, limit, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type createCompareRequest struct {
	Before string `json:"before"`
	After  string `json:"after"`

	// Precache starts the background warmup worker. Defaults to true.
	Precache *bool `json:"precache,omitempty"`
}

type targetInfo struct {
	Key    string         `json:"key"`
	Label  string         `json:"label"`
	Target render.Target  `json:"target"`
	Status compare.Status `json:"status"`
}

type sessionResponse struct {
	ID      string          `json:"id"`
	Summary fileset.Summary `json:"summary"`
	Targets []targetInfo    `json:"targets"`
}

// handleCreateCompare reads both snapshot sources, opens a session, and
// (by default) starts precaching its targets.
func (s *Server) handleCreateCompare(w http.ResponseWriter, r *http.Request) {
	var req createCompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "malformed request body"))
		return
	}

	beforeSrc, err := fileset.ParseSource(req.Before)
	if err != nil {
		writeError(w, err)
		return
	}
	afterSrc, err := fileset.ParseSource(req.After)
	if err != nil {
		writeError(w, err)
		return
	}

	before, err := beforeSrc.Read(r.Context(), s.gitClient, s.projectDir)
	if err != nil {
		writeError(w, err)
		return
	}
	after, err := afterSrc.Read(r.Context(), s.gitClient, s.projectDir)
	if err != nil {
		writeError(w, err)
		return
	}

	sess, err := compare.NewSession(r.Context(), before, after, s.exporter, compare.SessionOptions{
		LayerCache: s.layerCache,
		Lister:     s.lister,
		Logger:     s.logger,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	// The worker outlives this request; cancellation is the session's stop
	// channel, not the request context.
	if req.Precache == nil || *req.Precache {
		sess.Precache(context.Background())
	}

	writeJSON(w, http.StatusCreated, sessionView(sess))
}

func sessionView(sess *compare.Session) sessionResponse {
	resp := sessionResponse{
		ID:      sess.ID,
		Summary: sess.Summary,
		Targets: make([]targetInfo, 0, len(sess.Targets)),
	}
	for _, t := range sess.Targets {
		resp.Targets = append(resp.Targets, targetInfo{
			Key:    t.Key(),
			Label:  t.Label(),
			Target: t,
			Status: sess.Status.Get(t.Key()),
		})
	}
	return resp
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Summary)
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(sess))
}

// handleStatus returns the full status table for polling.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Status.All())
}

type imagesResponse struct {
	Verdict       compare.Status `json:"verdict"`
	MissingBefore bool           `json:"missing_before,omitempty"`
	MissingAfter  bool           `json:"missing_after,omitempty"`
	BeforeURL     string         `json:"before_url"`
	AfterURL      string         `json:"after_url"`
	DiffURL       string         `json:"diff_url"`
}

// handleImages renders the target identified by ?key= (blocking until its
// cache entry exists, racing the precache worker) and returns the verdict
// plus image URLs.
func (s *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	key := r.URL.Query().Get("key")
	res, err := sess.Ensure(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}

	base := "/compare/" + sess.ID + "/image?key=" + url.QueryEscape(key) + "&side="
	writeJSON(w, http.StatusOK, imagesResponse{
		Verdict:       res.Verdict,
		MissingBefore: res.MissingBefore,
		MissingAfter:  res.MissingAfter,
		BeforeURL:     base + "before",
		AfterURL:      base + "after",
		DiffURL:       base + "diff",
	})
}

// handleImage serves one of the three persisted bitmaps for ?key=&side=.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := sess.Ensure(r.Context(), r.URL.Query().Get("key"))
	if err != nil {
		writeError(w, err)
		return
	}

	var path string
	switch side := r.URL.Query().Get("side"); side {
	case "before":
		path = res.BeforePath
	case "after":
		path = res.AfterPath
	case "diff":
		path = res.DiffPath
	default:
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "unknown side %q (want before, after, or diff)", side))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, path)
}

func (s *Server) handleDeleteCompare(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		writeError(w, errors.New(errors.ErrCodeSessionNotFound, "no comparison session %q", id))
		return
	}
	if err := sess.Close(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
