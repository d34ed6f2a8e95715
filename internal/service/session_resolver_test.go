package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/attendance-api/internal/models"
	appErrors "github.com/campushq/attendance-api/pkg/errors"
)

type mockSessionReader struct {
	view  *models.ActiveSessionView
	err   error
	calls int
}

func (m *mockSessionReader) FindActive(ctx context.Context, now time.Time) (*models.ActiveSessionView, error) {
	m.calls++
	return m.view, m.err
}

func TestResolveActiveCachesPositiveResult(t *testing.T) {
	reader := &mockSessionReader{view: &models.ActiveSessionView{ID: "s1"}}
	resolver := NewSessionResolver(reader, NewSessionCache(time.Minute), nil)

	for i := 0; i < 3; i++ {
		view, err := resolver.ResolveActive(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "s1", view.ID)
	}
	assert.Equal(t, 1, reader.calls, "repeat resolves must hit the cache")
}

func TestResolveActiveCachesNegativeResult(t *testing.T) {
	reader := &mockSessionReader{view: nil}
	resolver := NewSessionResolver(reader, NewSessionCache(time.Minute), nil)

	for i := 0; i < 3; i++ {
		_, err := resolver.ResolveActive(context.Background())
		require.Error(t, err)

		var appErr *appErrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrNoActiveSession.Code, appErr.Code)
	}
	assert.Equal(t, 1, reader.calls, "negative lookups must be cached too")
}

func TestResolveActiveStorageError(t *testing.T) {
	reader := &mockSessionReader{err: errors.New("connection refused")}
	resolver := NewSessionResolver(reader, NewSessionCache(time.Minute), nil)

	_, err := resolver.ResolveActive(context.Background())
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)

	// Errors must not be cached; the next resolve retries storage.
	_, _ = resolver.ResolveActive(context.Background())
	assert.Equal(t, 2, reader.calls)
}

func TestInvalidateCacheForcesRefetch(t *testing.T) {
	reader := &mockSessionReader{view: &models.ActiveSessionView{ID: "s1"}}
	resolver := NewSessionResolver(reader, NewSessionCache(time.Minute), nil)

	_, err := resolver.ResolveActive(context.Background())
	require.NoError(t, err)

	resolver.InvalidateCache()
	reader.view = &models.ActiveSessionView{ID: "s2"}

	view, err := resolver.ResolveActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s2", view.ID)
	assert.Equal(t, 2, reader.calls)
}
