// Package compare runs one visual comparison between two project snapshots:
// it materializes both FileSets, diffs them, resolves render targets, and
// serves rendered before/after/diff bitmaps through a session-scoped cache.
//
// A session owns all of its state — temp directories, cache entries, status
// table, precache worker. Closing the session cancels the worker, waits for
// it with a bounded join, and removes everything; nothing outlives the
// session it was created for.
package compare

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"github.com/ecadlab/boardsnap/pkg/cache"
	"github.com/ecadlab/boardsnap/pkg/errors"
	"github.com/ecadlab/boardsnap/pkg/fileset"
	"github.com/ecadlab/boardsnap/pkg/render"
)

// joinTimeout bounds how long Close waits for the precache worker. A render
// in flight is allowed to finish rather than being killed mid-write, but
// teardown will not wait forever for it.
const joinTimeout = 90 * time.Second

// SessionOptions configures session construction.
type SessionOptions struct {
	// LayerCache persists board layer listings across sessions. Nil disables.
	LayerCache cache.Cache

	// Lister queries the external tool for board layers during target
	// resolution. Nil skips tool listing.
	Lister render.LayerLister

	// Logger for session diagnostics. Nil uses log.Default().
	Logger *log.Logger
}

// Session is one before/after comparison: the diff summary, the resolved
// targets, their statuses, and the render cache that backs them.
type Session struct {
	ID      string
	Summary fileset.Summary
	Targets []render.Target
	Status  *StatusMap
	Cache   *RenderCache

	root   string
	logger *log.Logger

	workerOnce sync.Once
	stop       chan struct{}
	wg         conc.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// NewSession materializes both FileSets to a fresh temp directory, computes
// the diff summary, and resolves the render targets. The session starts with
// every target pending and no worker running; call [Session.Precache] to warm
// the cache in the background.
func NewSession(ctx context.Context, before, after fileset.FileSet, exporter Exporter, opts SessionOptions) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	root, err := os.MkdirTemp("", "boardsnap-session-*")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create session dir")
	}
	beforeRoot := filepath.Join(root, "before")
	afterRoot := filepath.Join(root, "after")
	if err := before.WriteTo(beforeRoot); err != nil {
		_ = os.RemoveAll(root)
		return nil, err
	}
	if err := after.WriteTo(afterRoot); err != nil {
		_ = os.RemoveAll(root)
		return nil, err
	}

	targets := render.Resolve(ctx, before, after, beforeRoot, afterRoot, render.ResolveOptions{
		Lister:     opts.Lister,
		LayerCache: opts.LayerCache,
		Logger:     logger,
	})
	keys := make([]string, len(targets))
	for i, t := range targets {
		keys[i] = t.Key()
	}

	s := &Session{
		ID:      uuid.NewString(),
		Summary: fileset.Diff(before, after),
		Targets: targets,
		Status:  NewStatusMap(keys),
		Cache:   NewRenderCache(filepath.Join(root, "cache"), exporter, before, after, beforeRoot, afterRoot, logger),
		root:    root,
		stop:    make(chan struct{}),
	}
	s.logger = logger.With("session", s.ID[:8])
	s.logger.Debug("session created", "targets", len(targets), "changed", len(s.Summary.Changed))
	return s, nil
}

// Target returns the render target with the given identity key.
func (s *Session) Target(key string) (render.Target, error) {
	for _, t := range s.Targets {
		if t.Key() == key {
			return t, nil
		}
	}
	return render.Target{}, errors.New(errors.ErrCodeTargetNotFound, "unknown target %q", key)
}

// Ensure renders the target with the given key (or returns its cached
// result), advancing its status to the verdict. This is the interactive
// path; it may race the precache worker for the same target, in which case
// the cache collapses the work to one render.
func (s *Session) Ensure(ctx context.Context, key string) (*Result, error) {
	target, err := s.Target(key)
	if err != nil {
		return nil, err
	}
	s.Status.Advance(key, StatusRendering)
	res, err := s.Cache.Ensure(ctx, target)
	if err != nil {
		s.Status.Advance(key, StatusError)
		return nil, err
	}
	s.Status.Advance(key, res.Verdict)
	return res, nil
}

// Precache starts the background worker that walks the target list in
// resolver order and populates the cache. At most one worker runs per
// session; repeated calls are no-ops. The worker checks for cancellation
// before each target and never stops because a single target failed.
func (s *Session) Precache(ctx context.Context) {
	s.workerOnce.Do(func() {
		s.wg.Go(func() {
			s.precacheLoop(ctx)
		})
	})
}

func (s *Session) precacheLoop(ctx context.Context) {
	for _, target := range s.Targets {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		key := target.Key()
		if s.Status.Get(key).Terminal() {
			continue
		}
		s.Status.BeginIfPending(key)

		res, err := s.Cache.Ensure(ctx, target)
		if err != nil {
			s.logger.Debug("precache render failed", "target", key, "err", err)
			s.Status.Advance(key, StatusError)
			continue
		}
		s.Status.Advance(key, res.Verdict)
	}
}

// Close cancels the worker, joins it with a bounded wait, and removes every
// file the session created. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(joinTimeout):
			s.logger.Warn("precache worker did not stop in time, abandoning temp files")
			s.closeErr = errors.New(errors.ErrCodeTimeout, "precache worker join timed out")
			return
		}

		if err := os.RemoveAll(s.root); err != nil {
			s.closeErr = errors.Wrap(errors.ErrCodeInternal, err, "remove session dir")
		}
	})
	return s.closeErr
}
