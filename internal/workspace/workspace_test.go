package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetdesk/jetadmin/internal/domain"
	"github.com/jetdesk/jetadmin/internal/listctl"
)

// stubGateway serves a fixed collection and records the filters it saw.
type stubGateway[T domain.Document] struct {
	mu      sync.Mutex
	docs    []T
	filters []domain.ListFilter
	err     error
}

func (s *stubGateway[T]) List(_ context.Context, f domain.ListFilter) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = append(s.filters, f)
	return s.docs, s.err
}

func (s *stubGateway[T]) GetByID(context.Context, string) (T, error) {
	var zero T
	return zero, domain.ErrNotFound
}

func (s *stubGateway[T]) Create(context.Context, domain.Body) (T, error) {
	var zero T
	return zero, domain.ErrInternal
}

func (s *stubGateway[T]) Update(context.Context, string, domain.Body) (T, error) {
	var zero T
	return zero, domain.ErrInternal
}

func (s *stubGateway[T]) Delete(context.Context, string) error { return nil }

func (s *stubGateway[T]) BulkDelete(_ context.Context, ids []string) (domain.BulkResult, error) {
	return domain.BulkResult{DeletedIDs: ids}, nil
}

func newTestRegistry(opts Options) (*Registry, *stubGateway[domain.Aircraft], *stubGateway[domain.Brand]) {
	aircraft := &stubGateway[domain.Aircraft]{docs: []domain.Aircraft{
		{Identity: domain.Identity{MongoID: "a1"}, Title: "Citation CJ4"},
	}}
	opts.AircraftFilter = domain.ListFilter{Page: 1, PageSize: 100}
	brands := &stubGateway[domain.Brand]{err: domain.NewAppError(domain.CodeNetwork, "backend unreachable", nil)}
	r := NewRegistry(Gateways{
		Aircraft:   aircraft,
		Brands:     brands,
		Authors:    &stubGateway[domain.Author]{},
		Categories: &stubGateway[domain.Category]{},
	}, opts)
	return r, aircraft, brands
}

func TestRegistry_GetIsStablePerSession(t *testing.T) {
	r, _, _ := newTestRegistry(Options{IdleTTL: time.Minute})

	a := r.Get("s1")
	assert.Same(t, a, r.Get("s1"))
	assert.NotSame(t, a, r.Get("s2"))
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_ControllersAreWired(t *testing.T) {
	r, aircraft, _ := newTestRegistry(Options{IdleTTL: time.Minute})
	ws := r.Get("s1")

	require.NoError(t, ws.Aircraft.Refresh(context.Background()))
	assert.Equal(t, []domain.ListFilter{{Page: 1, PageSize: 100}}, aircraft.filters)

	require.True(t, ws.Aircraft.RequestDelete("a1"))
	st := ws.Aircraft.Snapshot()
	require.NotNil(t, st.Confirmation)
	assert.Equal(t, "Citation CJ4", st.Confirmation.Label)
}

func TestRegistry_NoticesAreScopedToSession(t *testing.T) {
	r, _, _ := newTestRegistry(Options{IdleTTL: time.Minute})
	one, two := r.Get("s1"), r.Get("s2")

	err := one.Brands.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsNetwork(err))

	notices := one.Notices.Drain()
	require.Len(t, notices, 1)
	assert.Equal(t, listctl.LevelError, notices[0].Level)
	assert.Contains(t, notices[0].Message, "Could not load brands")
	assert.Zero(t, two.Notices.Len())
}

func TestRegistry_IdleWorkspaceIsClosedAndReplaced(t *testing.T) {
	r, _, _ := newTestRegistry(Options{IdleTTL: 50 * time.Millisecond})
	t.Cleanup(r.Close)

	stale := r.Get("stale")
	require.Eventually(t, stale.Closed, 2*time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, stale.Aircraft.Refresh(context.Background()), listctl.ErrClosed)
	assert.Zero(t, r.Len())

	fresh := r.Get("stale")
	assert.NotSame(t, stale, fresh)
	assert.False(t, fresh.Closed())
}

func TestRegistry_GetSlidesIdleDeadline(t *testing.T) {
	r, _, _ := newTestRegistry(Options{IdleTTL: 300 * time.Millisecond})
	t.Cleanup(r.Close)

	ws := r.Get("busy")
	for range 5 {
		time.Sleep(100 * time.Millisecond)
		require.Same(t, ws, r.Get("busy"))
	}
	assert.False(t, ws.Closed())
}

func TestRegistry_MaxWorkspacesBoundsLiveSessions(t *testing.T) {
	r, _, _ := newTestRegistry(Options{IdleTTL: time.Minute, MaxWorkspaces: shardCount})
	t.Cleanup(r.Close)

	spaces := make([]*Workspace, 0, 200)
	for i := range 200 {
		spaces = append(spaces, r.Get(fmt.Sprintf("session-%d", i)))
	}

	assert.LessOrEqual(t, r.Len(), shardCount)
	closed := 0
	for _, ws := range spaces {
		if ws.Closed() {
			closed++
		}
	}
	assert.Equal(t, 200-r.Len(), closed)
	assert.False(t, spaces[len(spaces)-1].Closed())
}

func TestRegistry_DetachedIsNotTracked(t *testing.T) {
	r, _, _ := newTestRegistry(Options{IdleTTL: time.Minute})
	t.Cleanup(r.Close)

	ws := r.Detached()
	require.NoError(t, ws.Aircraft.Refresh(context.Background()))
	assert.Zero(t, r.Len())

	ws.Close()
	assert.True(t, ws.Closed())
	assert.NotSame(t, ws, r.Get("s1"))
}

func TestRegistry_CloseClosesEveryWorkspace(t *testing.T) {
	r, _, _ := newTestRegistry(Options{IdleTTL: time.Minute})
	one, two := r.Get("s1"), r.Get("s2")

	r.Close()
	r.Close()

	assert.True(t, one.Closed())
	assert.True(t, two.Closed())
	assert.Zero(t, r.Len())
	assert.True(t, r.Get("s1").Closed())
	assert.Zero(t, r.Len())
}

func TestRegistry_RunClosesOnCancel(t *testing.T) {
	r, _, _ := newTestRegistry(Options{IdleTTL: time.Minute})
	ws := r.Get("s1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Zero(t, r.Len())
	assert.True(t, errors.Is(ws.Brands.Refresh(context.Background()), listctl.ErrClosed))
	assert.ErrorIs(t, r.Get("late").Aircraft.Refresh(context.Background()), listctl.ErrClosed)
}
