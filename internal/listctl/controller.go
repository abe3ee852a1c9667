// Package listctl implements the list-management client pattern: fetch,
// optimistic delete behind a confirmation gate, and resync from the backend.
//
// A Controller never patches its way back after a failed mutation. It removes
// rows optimistically and then always reloads the authoritative collection.
package listctl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/jetdesk/jetadmin/internal/domain"
)

// Source is the part of a gateway a Controller needs.
type Source[T domain.Document] interface {
	List(ctx context.Context, filter domain.ListFilter) ([]T, error)
	Delete(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) (domain.BulkResult, error)
}

var (
	ErrBusy           = errors.New("listctl: a delete is already in progress")
	ErrNoConfirmation = errors.New("listctl: no delete is awaiting confirmation")
	ErrClosed         = errors.New("listctl: controller closed")
)

// Options configures a Controller.
type Options[T domain.Document] struct {
	// Noun and Plural name the entity in notices, e.g. "brand" and "brands".
	Noun   string
	Plural string
	Filter domain.ListFilter
	// Label names a document in confirmation dialogs. Defaults to its id.
	Label    func(T) string
	Notifier Notifier
	Logger   *slog.Logger
}

// Controller owns the in-memory collection of one entity. It is safe for
// concurrent use; no lock is held across gateway calls.
type Controller[T domain.Document] struct {
	src    Source[T]
	noun   string
	plural string
	filter domain.ListFilter
	label  func(T) string
	notify Notifier
	logger *slog.Logger

	mu        sync.Mutex
	items     []T
	selection map[string]struct{}
	inflight  int
	gate      Gate
	busy      bool
	loaded    bool
	closed    bool
	// issued counts refresh tokens handed out; applied is the newest token
	// whose state the collection reflects. Local mutations take a token too.
	issued  uint64
	applied uint64
}

// State is a point-in-time copy of a controller's state.
type State[T domain.Document] struct {
	Items        []T
	Selection    []string
	Loading      bool
	Busy         bool
	Loaded       bool
	Confirmation *ConfirmationRequest
}

// Selected reports whether id is in the selection.
func (s State[T]) Selected(id string) bool {
	return slices.Contains(s.Selection, id)
}

// Outcome reports what a confirmed delete did.
type Outcome struct {
	Mode      Mode
	Requested []string
	Deleted   []string
	Failed    []string
}

// New returns a controller over src.
func New[T domain.Document](src Source[T], opts Options[T]) *Controller[T] {
	c := &Controller[T]{
		src:       src,
		noun:      opts.Noun,
		plural:    opts.Plural,
		filter:    opts.Filter,
		label:     opts.Label,
		notify:    opts.Notifier,
		logger:    opts.Logger,
		selection: make(map[string]struct{}),
	}
	if c.noun == "" {
		c.noun = "item"
	}
	if c.plural == "" {
		c.plural = c.noun + "s"
	}
	if c.label == nil {
		c.label = func(doc T) string { return doc.DocumentID() }
	}
	if c.notify == nil {
		c.notify = discard{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With(slog.String("entity", c.plural))
	return c
}

// Refresh reloads the collection. On failure the previous collection stays in
// place and the failure goes to the notifier. A response older than the state
// already applied is discarded.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.issued++
	token := c.issued
	c.inflight++
	c.mu.Unlock()

	docs, err := c.src.List(ctx, c.filter)

	c.mu.Lock()
	c.inflight--
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		c.mu.Unlock()
		c.logger.ErrorContext(ctx, "refresh failed", slog.Any("error", err))
		c.notify.Notify(Notice{Level: LevelError, Message: fmt.Sprintf("Could not load %s: %s", c.plural, userMessage(err))})
		return err
	}
	if token <= c.applied {
		c.mu.Unlock()
		c.logger.DebugContext(ctx, "discarding stale list response",
			slog.Uint64("token", token),
			slog.Uint64("applied", c.applied),
		)
		return nil
	}
	dropped := c.applyLocked(docs, token)
	c.mu.Unlock()

	if dropped > 0 {
		c.logger.WarnContext(ctx, "dropped documents without a unique id", slog.Int("count", dropped))
	}
	return nil
}

// applyLocked replaces the collection, dropping documents whose id is empty or
// repeated, and prunes the selection to ids still present.
func (c *Controller[T]) applyLocked(docs []T, token uint64) int {
	seen := make(map[string]struct{}, len(docs))
	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		id := doc.DocumentID()
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		items = append(items, doc)
	}
	c.items = items
	c.applied = token
	c.loaded = true
	for id := range c.selection {
		if _, ok := seen[id]; !ok {
			delete(c.selection, id)
		}
	}
	return len(docs) - len(items)
}

// RequestDelete opens the gate for one document. It reports false and changes
// nothing when id is not in the collection or a delete is in flight.
func (c *Controller[T]) RequestDelete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.busy {
		return false
	}
	i := c.indexLocked(id)
	if i < 0 {
		return false
	}
	c.gate.Open(ConfirmationRequest{Mode: ModeSingle, IDs: []string{id}, Label: c.label(c.items[i])})
	return true
}

// RequestBulkDelete opens the gate for the current selection. It is a no-op
// when nothing is selected.
func (c *Controller[T]) RequestBulkDelete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.busy || len(c.selection) == 0 {
		return false
	}
	ids := c.selectionLocked()
	c.gate.Open(ConfirmationRequest{
		Mode:  ModeBulk,
		IDs:   ids,
		Label: fmt.Sprintf("%d %s", len(ids), c.pluralize(len(ids))),
	})
	return true
}

// CancelConfirmation closes the gate. It is refused while a delete is in flight.
func (c *Controller[T]) CancelConfirmation() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return false
	}
	c.gate.Close()
	return true
}

// ConfirmDelete runs the pending delete:
//
//  1. snapshot the collection
//  2. remove the target rows locally
//  3. call Delete or BulkDelete
//  4. drop deleted ids from the selection
//  5. refresh, whatever the outcome
//  6. close the gate and clear busy
//
// A partial bulk failure returns an error with domain.CodePartialBulk. If the
// final refresh fails too, rows that may still exist are put back from the
// snapshot.
func (c *Controller[T]) ConfirmDelete(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Outcome{}, ErrClosed
	}
	if c.busy {
		c.mu.Unlock()
		return Outcome{}, ErrBusy
	}
	req, ok := c.gate.Pending()
	if !ok {
		c.mu.Unlock()
		return Outcome{}, ErrNoConfirmation
	}
	c.busy = true
	snapshot := c.items
	c.items = without(c.items, req.IDs)
	// Refreshes issued before the removal must not resurrect the rows.
	c.issued++
	c.applied = c.issued
	c.mu.Unlock()

	out := Outcome{Mode: req.Mode, Requested: req.IDs}
	var callErr error
	switch req.Mode {
	case ModeBulk:
		res, err := c.src.BulkDelete(ctx, req.IDs)
		if err != nil {
			callErr = err
		} else {
			out.Deleted, out.Failed = res.DeletedIDs, res.FailedIDs
		}
	default:
		if err := c.src.Delete(ctx, req.IDs[0]); err != nil && !domain.IsNotFound(err) {
			callErr = err
		} else {
			out.Deleted = req.IDs
		}
	}
	if callErr != nil {
		out.Deleted, out.Failed = nil, req.IDs
		c.logger.ErrorContext(ctx, "delete failed",
			slog.String("mode", string(req.Mode)),
			slog.Any("ids", req.IDs),
			slog.Any("error", callErr),
		)
	} else if len(out.Failed) > 0 {
		c.logger.WarnContext(ctx, "bulk delete partially failed",
			slog.Any("deleted", out.Deleted),
			slog.Any("failed", out.Failed),
		)
	}

	c.mu.Lock()
	for _, id := range out.Deleted {
		delete(c.selection, id)
	}
	c.mu.Unlock()

	refreshErr := c.Refresh(context.WithoutCancel(ctx))

	c.mu.Lock()
	if refreshErr != nil && !errors.Is(refreshErr, ErrClosed) && len(out.Failed) > 0 {
		c.items = restore(c.items, snapshot, out.Failed)
	}
	c.gate.Close()
	c.busy = false
	c.mu.Unlock()

	return out, c.report(req, out, callErr)
}

func (c *Controller[T]) report(req ConfirmationRequest, out Outcome, callErr error) error {
	switch {
	case callErr != nil:
		c.notify.Notify(Notice{Level: LevelError, Message: fmt.Sprintf("Could not delete %s: %s", c.subject(req), userMessage(callErr))})
		return callErr
	case len(out.Failed) == 0:
		c.notify.Notify(Notice{Level: LevelSuccess, Message: fmt.Sprintf("Deleted %s", c.subject(req))})
		return nil
	case len(out.Deleted) == 0:
		msg := fmt.Sprintf("No %s deleted, %d failed", c.plural, len(out.Failed))
		c.notify.Notify(Notice{Level: LevelError, Message: msg})
		return domain.NewAppError(domain.CodeInternal, msg, nil)
	default:
		msg := fmt.Sprintf("%d of %d deleted, %d failed", len(out.Deleted), len(out.Requested), len(out.Failed))
		c.notify.Notify(Notice{Level: LevelWarning, Message: msg})
		return domain.NewAppError(domain.CodePartialBulk, msg, nil)
	}
}

func (c *Controller[T]) subject(req ConfirmationRequest) string {
	if req.Mode == ModeBulk {
		return fmt.Sprintf("%d %s", len(req.IDs), c.pluralize(len(req.IDs)))
	}
	if req.Label != "" {
		return fmt.Sprintf("%s %q", c.noun, req.Label)
	}
	return c.noun
}

func (c *Controller[T]) pluralize(n int) string {
	if n == 1 {
		return c.noun
	}
	return c.plural
}

// Patch applies fn to the document with id and reports whether it was found.
// Refreshes issued before the patch are discarded when they complete.
func (c *Controller[T]) Patch(id string, fn func(*T)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	i := c.indexLocked(id)
	if i < 0 {
		return false
	}
	items := slices.Clone(c.items)
	fn(&items[i])
	c.items = items
	c.issued++
	c.applied = c.issued
	return true
}

// Select replaces the selection with the given ids that exist in the collection.
func (c *Controller[T]) Select(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.selection)
	for _, id := range ids {
		if c.indexLocked(id) >= 0 {
			c.selection[id] = struct{}{}
		}
	}
}

// Toggle flips id in the selection and reports whether it is now selected.
func (c *Controller[T]) Toggle(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.selection[id]; ok {
		delete(c.selection, id)
		return false
	}
	if c.indexLocked(id) < 0 {
		return false
	}
	c.selection[id] = struct{}{}
	return true
}

// Selection returns the selected ids in sorted order.
func (c *Controller[T]) Selection() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectionLocked()
}

// Find returns the cached document with id.
func (c *Controller[T]) Find(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Snapshot copies the current state.
func (c *Controller[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State[T]{
		Items:     slices.Clone(c.items),
		Selection: c.selectionLocked(),
		Loading:   c.inflight > 0,
		Busy:      c.busy,
		Loaded:    c.loaded,
	}
	if req, ok := c.gate.Pending(); ok {
		st.Confirmation = &req
	}
	if st.Items == nil {
		st.Items = []T{}
	}
	return st
}

// Loaded reports whether a refresh has ever succeeded.
func (c *Controller[T]) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Close stops the controller. Responses that arrive afterwards are ignored.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.gate.Close()
}

func (c *Controller[T]) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(c.items, func(doc T) bool { return doc.DocumentID() == id })
}

func (c *Controller[T]) selectionLocked() []string {
	ids := make([]string, 0, len(c.selection))
	for id := range c.selection {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func without[T domain.Document](items []T, ids []string) []T {
	out := make([]T, 0, len(items))
	for _, doc := range items {
		if !slices.Contains(ids, doc.DocumentID()) {
			out = append(out, doc)
		}
	}
	return out
}

// restore puts back snapshot documents named in ids that are missing from
// items, keeping snapshot order.
func restore[T domain.Document](items, snapshot []T, ids []string) []T {
	current := make(map[string]T, len(items))
	for _, doc := range items {
		current[doc.DocumentID()] = doc
	}
	out := make([]T, 0, len(items)+len(ids))
	placed := make(map[string]bool, len(items))
	for _, doc := range snapshot {
		id := doc.DocumentID()
		if cur, ok := current[id]; ok {
			out = append(out, cur)
			placed[id] = true
		} else if slices.Contains(ids, id) {
			out = append(out, doc)
			placed[id] = true
		}
	}
	for _, doc := range items {
		if !placed[doc.DocumentID()] {
			out = append(out, doc)
		}
	}
	return out
}

// userMessage returns the part of err that is safe to show in a toast.
func userMessage(err error) string {
	var appErr *domain.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	return "unexpected error"
}
