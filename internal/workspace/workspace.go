// Package workspace keeps one set of list controllers per admin session.
package workspace

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	shardedcache "github.com/simp-lee/cache"

	"github.com/jetdesk/jetadmin/internal/domain"
	"github.com/jetdesk/jetadmin/internal/listctl"
)

// Defaults used when the matching Options field is not positive.
const (
	DefaultIdleTTL       = 30 * time.Minute
	DefaultMaxWorkspaces = 1024
)

const shardCount = 16

// Gateways are the backend collections every workspace manages.
type Gateways struct {
	Aircraft   domain.AircraftGateway
	Brands     domain.BrandGateway
	Authors    domain.AuthorGateway
	Categories domain.CategoryGateway
}

// Options configures a Registry.
type Options struct {
	IdleTTL time.Duration
	// MaxWorkspaces bounds the live workspaces. When a shard is full the
	// least recently used workspace in it is closed.
	MaxWorkspaces  int
	AircraftFilter domain.ListFilter
	Logger         *slog.Logger
}

// Workspace is the in-memory state of one admin session.
type Workspace struct {
	Aircraft   *listctl.Controller[domain.Aircraft]
	Brands     *listctl.Controller[domain.Brand]
	Authors    *listctl.Controller[domain.Author]
	Categories *listctl.Controller[domain.Category]
	Notices    *listctl.NoticeQueue

	closed atomic.Bool
}

// Close stops every controller in the workspace.
func (w *Workspace) Close() {
	w.closed.Store(true)
	w.Aircraft.Close()
	w.Brands.Close()
	w.Authors.Close()
	w.Categories.Close()
}

// Closed reports whether Close has run.
func (w *Workspace) Closed() bool {
	return w.closed.Load()
}

// Registry hands out workspaces keyed by session id. Workspaces live in a
// sharded cache: every Get slides the idle deadline, and expiry, capacity
// eviction or Close all close the evicted workspace.
type Registry struct {
	gw     Gateways
	opts   Options
	logger *slog.Logger

	spaces shardedcache.CacheInterface

	// mu serializes Get so a workspace closed between lookup and refresh is
	// replaced exactly once.
	mu     sync.Mutex
	closed bool
}

// NewRegistry returns an empty registry.
func NewRegistry(gw Gateways, opts Options) *Registry {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.MaxWorkspaces <= 0 {
		opts.MaxWorkspaces = DefaultMaxWorkspaces
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	r := &Registry{
		gw:     gw,
		opts:   opts,
		logger: opts.Logger,
		spaces: shardedcache.NewCache(shardedcache.Options{
			MaxSize:           (opts.MaxWorkspaces + shardCount - 1) / shardCount,
			DefaultExpiration: opts.IdleTTL,
			CleanupInterval:   max(opts.IdleTTL/2, 100*time.Millisecond),
			ShardCount:        shardCount,
		}),
	}
	// Runs under a shard lock: must not call back into r.spaces.
	r.spaces.OnEvicted(func(_ string, v interface{}) {
		if ws, ok := v.(*Workspace); ok {
			ws.Close()
			r.logger.Debug("workspace evicted")
		}
	})
	return r
}

// Get returns the workspace of sessionID, creating it on first use. After
// Close it returns a fresh, already closed workspace.
func (r *Registry) Get(sessionID string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		ws := r.build()
		ws.Close()
		return ws
	}
	if v, ok := r.spaces.Get(sessionID); ok {
		ws := v.(*Workspace)
		r.spaces.Set(sessionID, ws)
		if !ws.Closed() {
			return ws
		}
	}
	ws := r.build()
	r.spaces.Set(sessionID, ws)
	r.logger.Debug("workspace created", slog.Int("workspaces", r.spaces.Count()))
	return ws
}

// Detached builds a workspace the registry does not track. The caller must
// Close it.
func (r *Registry) Detached() *Workspace {
	return r.build()
}

func (r *Registry) build() *Workspace {
	notices := listctl.NewNoticeQueue(0)
	return &Workspace{
		Notices: notices,
		Aircraft: listctl.New[domain.Aircraft](r.gw.Aircraft, listctl.Options[domain.Aircraft]{
			Noun:     "aircraft",
			Plural:   "aircraft",
			Filter:   r.opts.AircraftFilter,
			Label:    func(a domain.Aircraft) string { return a.Title },
			Notifier: notices,
			Logger:   r.logger,
		}),
		Brands: listctl.New[domain.Brand](r.gw.Brands, listctl.Options[domain.Brand]{
			Noun:     "brand",
			Label:    func(b domain.Brand) string { return b.Title },
			Notifier: notices,
			Logger:   r.logger,
		}),
		Authors: listctl.New[domain.Author](r.gw.Authors, listctl.Options[domain.Author]{
			Noun:     "author",
			Label:    func(a domain.Author) string { return a.Name },
			Notifier: notices,
			Logger:   r.logger,
		}),
		Categories: listctl.New[domain.Category](r.gw.Categories, listctl.Options[domain.Category]{
			Noun:     "category",
			Plural:   "categories",
			Label:    func(c domain.Category) string { return c.Name },
			Notifier: notices,
			Logger:   r.logger,
		}),
	}
}

// Run waits until ctx is done, then closes the registry. Idle workspaces are
// evicted by the cache cleaner in the meantime.
func (r *Registry) Run(ctx context.Context) error {
	<-ctx.Done()
	r.Close()
	return nil
}

// Len reports the number of live workspaces.
func (r *Registry) Len() int {
	return r.spaces.Count()
}

// Close closes every workspace and stops the cleaner. Later Get calls return
// closed workspaces.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	n := r.spaces.Count()
	r.spaces.Clear()
	r.spaces.Close()
	r.logger.Info("workspaces closed", slog.Int("closed", n))
}
