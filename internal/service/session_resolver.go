package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campushq/attendance-api/internal/models"
	appErrors "github.com/campushq/attendance-api/pkg/errors"
)

type activeSessionReader interface {
	FindActive(ctx context.Context, now time.Time) (*models.ActiveSessionView, error)
}

// SessionResolver locates the currently valid attendance session, consulting
// the in-process cache before storage. Both outcomes of a storage read (a
// session or none) are cached, so a burst of requests during a quiet period
// costs one query.
type SessionResolver struct {
	repo   activeSessionReader
	cache  *SessionCache
	logger *zap.Logger
}

// NewSessionResolver constructs a resolver.
func NewSessionResolver(repo activeSessionReader, cache *SessionCache, logger *zap.Logger) *SessionResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionResolver{repo: repo, cache: cache, logger: logger}
}

// ResolveActive returns the active session view or ErrNoActiveSession.
func (r *SessionResolver) ResolveActive(ctx context.Context) (*models.ActiveSessionView, error) {
	if view, found := r.cache.Get(); found {
		if view == nil {
			return nil, appErrors.ErrNoActiveSession
		}
		return view, nil
	}

	view, err := r.repo.FindActive(ctx, time.Now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to query active session")
	}

	r.cache.Put(view)
	if view == nil {
		return nil, appErrors.ErrNoActiveSession
	}
	return view, nil
}

// InvalidateCache clears the cached session snapshot. Exposed for session
// lifecycle operations and the HTTP surface.
func (r *SessionResolver) InvalidateCache() {
	r.cache.Invalidate()
}
