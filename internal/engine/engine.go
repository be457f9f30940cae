// internal/engine/engine.go
//
// The engine keeps the local task replica responsive while the real store
// is a network away. Every user intent is applied to the replica
// immediately where possible, the matching remote call is issued in the
// background, and the eventual outcome is reconciled back in — including
// rolling back the optimistic write when the call fails.
//
// The engine is single-threaded by contract: all methods, including
// Apply, must run on one goroutine (in the TUI that is the bubbletea
// update loop). Commands returned by dispatcher methods are the only work
// that runs elsewhere, and they communicate back exclusively through the
// Event they produce.

package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/taskdeck/taskdeck/internal/gateway"
	"github.com/taskdeck/taskdeck/internal/replica"
	"github.com/taskdeck/taskdeck/internal/task"
)

// Logger is the subset of the journal the engine writes to.
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Confirmer answers the yes/no gate in front of destructive intents.
// Declining is a no-op, not an error.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmerFunc) Confirm(prompt string) bool { return f(prompt) }

// Option customizes engine construction.
type Option func(*Engine)

// WithLogger attaches a logger. The default discards everything.
func WithLogger(l Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithConfirmer overrides the destructive-action gate. The default accepts,
// which suits callers that put their own confirmation UI in front of the
// delete intents.
func WithConfirmer(c Confirmer) Option {
	return func(e *Engine) {
		if c != nil {
			e.confirm = c
		}
	}
}

// Engine owns the replica, the in-flight registry, and the edit buffer,
// and is the only code that mutates them.
type Engine struct {
	store   *replica.Store
	flight  *replica.FlightSet
	edit    *replica.EditBuffer
	gw      gateway.Gateway
	confirm Confirmer
	log     Logger

	loading bool
	lastErr string
}

// New returns an engine dispatching against gw.
func New(gw gateway.Gateway, opts ...Option) *Engine {
	e := &Engine{
		store:   replica.NewStore(),
		flight:  replica.NewFlightSet(),
		edit:    replica.NewEditBuffer(),
		gw:      gw,
		confirm: ConfirmerFunc(func(string) bool { return true }),
		log:     nopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// EditState describes the open edit buffer in a snapshot.
type EditState struct {
	ID          string
	Title       string
	Description string
}

// Snapshot is the read-only view handed to the presentation layer. It is
// re-derived after every intent and every reconciled event; the receiver
// must not mutate it (and cannot affect the engine by doing so — every
// field is a copy).
type Snapshot struct {
	Tasks    []task.Task
	InFlight map[string]struct{}
	Editing  *EditState
	Loading  bool
	LastErr  string
}

// Snapshot derives the current presentation view. Tasks are sorted by
// title so the list is stable across renders; the store itself is
// unordered.
func (e *Engine) Snapshot() Snapshot {
	tasks := e.store.List()
	sort.Slice(tasks, func(i, j int) bool {
		ti, tj := strings.ToLower(tasks[i].Title), strings.ToLower(tasks[j].Title)
		if ti != tj {
			return ti < tj
		}
		return tasks[i].ID < tasks[j].ID
	})
	snap := Snapshot{
		Tasks:    tasks,
		InFlight: e.flight.Snapshot(),
		Loading:  e.loading,
		LastErr:  e.lastErr,
	}
	if e.edit.IsOpen() {
		title, description := e.edit.Drafts()
		snap.Editing = &EditState{ID: e.edit.ID(), Title: title, Description: description}
	}
	return snap
}

// InFlight reports whether id has a mutation outstanding.
func (e *Engine) InFlight(id string) bool {
	return e.flight.InFlight(id)
}

// Load fetches the full task listing, replacing the replica when it
// arrives. Used for initial load and manual refresh.
func (e *Engine) Load() Command {
	e.loading = true
	gw := e.gw
	return func(ctx context.Context) Event {
		tasks, err := gw.ListTasks(ctx)
		return TasksLoaded{Tasks: tasks, Err: err}
	}
}

// Create dispatches a new task. An empty trimmed title is rejected
// locally and never reaches the gateway. Nothing is inserted into the
// replica until the service responds: the ID is assigned remotely.
func (e *Engine) Create(title, description string) Command {
	if strings.TrimSpace(title) == "" {
		return nil
	}
	gw := e.gw
	return func(ctx context.Context) Event {
		created, err := gw.CreateTask(ctx, title, description)
		return MutationResult{Kind: KindCreate, ID: created.ID, Task: created, Err: err}
	}
}

// ToggleCompletion flips the completed flag optimistically, then issues a
// remote update carrying only the completion field so the service
// preserves title and description. Unknown IDs and IDs with a mutation
// already outstanding are rejected.
func (e *Engine) ToggleCompletion(id string) Command {
	prior, ok := e.store.Get(id)
	if !ok {
		return nil
	}
	if e.flight.InFlight(id) {
		e.log.Warn("toggle rejected, mutation outstanding for %s", id)
		return nil
	}
	next := prior
	next.Completed = !prior.Completed
	e.flight.Mark(id)
	e.store.Put(next)
	patch := task.Patch{Completed: task.Bool(next.Completed)}
	gw := e.gw
	return func(ctx context.Context) Event {
		updated, err := gw.UpdateTask(ctx, id, patch)
		return MutationResult{Kind: KindToggle, ID: id, Task: updated, Prior: prior, Err: err}
	}
}

// BeginEdit opens the edit buffer for id, discarding any prior unsaved
// buffer. Unknown IDs are ignored.
func (e *Engine) BeginEdit(id string) {
	t, ok := e.store.Get(id)
	if !ok {
		return
	}
	e.edit.Open(id, t.Title, t.Description)
}

// SetEditTitle updates the draft title of the open buffer.
func (e *Engine) SetEditTitle(v string) {
	e.edit.SetTitle(v)
}

// SetEditDescription updates the draft description of the open buffer.
func (e *Engine) SetEditDescription(v string) {
	e.edit.SetDescription(v)
}

// SaveEdit commits the drafts for id. The intent is ignored entirely
// unless the open buffer belongs to id, which guards against saves that
// arrive after the buffer was closed or reopened for another task. The
// buffer is closed before dispatch so a repeated save cannot go out twice.
func (e *Engine) SaveEdit(id string) Command {
	if !e.edit.IsFor(id) {
		return nil
	}
	if e.flight.InFlight(id) {
		// Keep the buffer open so the drafts survive for a retry.
		e.log.Warn("save rejected, mutation outstanding for %s", id)
		return nil
	}
	prior, ok := e.store.Get(id)
	if !ok {
		e.edit.Close()
		return nil
	}
	title, description := e.edit.Drafts()
	e.edit.Close()
	e.flight.Mark(id)
	patch := task.Patch{Title: task.String(title), Description: task.String(description)}
	gw := e.gw
	return func(ctx context.Context) Event {
		updated, err := gw.UpdateTask(ctx, id, patch)
		return MutationResult{Kind: KindSave, ID: id, Task: updated, Prior: prior, Err: err}
	}
}

// CancelEdit closes the edit buffer and discards the drafts.
func (e *Engine) CancelEdit() {
	e.edit.Close()
}

// DeleteTask removes id after the confirmation gate. The replica entry is
// removed before the remote call is issued; if the call fails the entry is
// reinserted.
func (e *Engine) DeleteTask(id string) Command {
	t, ok := e.store.Get(id)
	if !ok {
		return nil
	}
	if e.flight.InFlight(id) {
		e.log.Warn("delete rejected, mutation outstanding for %s", id)
		return nil
	}
	if !e.confirm.Confirm(fmt.Sprintf("Delete %q?", t.Title)) {
		return nil
	}
	return e.dispatchDelete(t)
}

// DeleteCompleted removes every completed task after a single
// confirmation. Each delete is its own command so the remote calls run in
// parallel and reconcile independently.
func (e *Engine) DeleteCompleted() []Command {
	var victims []task.Task
	for _, t := range e.store.List() {
		if t.Completed && !e.flight.InFlight(t.ID) {
			victims = append(victims, t)
		}
	}
	if len(victims) == 0 {
		return nil
	}
	if !e.confirm.Confirm(fmt.Sprintf("Delete %d completed task(s)?", len(victims))) {
		return nil
	}
	cmds := make([]Command, 0, len(victims))
	for _, t := range victims {
		cmds = append(cmds, e.dispatchDelete(t))
	}
	return cmds
}

func (e *Engine) dispatchDelete(t task.Task) Command {
	e.flight.Mark(t.ID)
	e.store.Remove(t.ID)
	gw := e.gw
	id := t.ID
	return func(ctx context.Context) Event {
		err := gw.DeleteTask(ctx, id)
		return MutationResult{Kind: KindDelete, ID: id, Prior: t, Err: err}
	}
}

// Apply reconciles an event into the replica. Must run on the same
// goroutine as the dispatcher methods.
func (e *Engine) Apply(ev Event) {
	switch msg := ev.(type) {
	case TasksLoaded:
		e.loading = false
		if msg.Err != nil {
			e.fail("load tasks: %v", msg.Err)
			return
		}
		e.lastErr = ""
		e.store.ReplaceAll(msg.Tasks)
		e.log.Info("loaded %d task(s)", len(msg.Tasks))
	case MutationResult:
		e.reconcile(msg)
	}
}

func (e *Engine) reconcile(res MutationResult) {
	switch res.Kind {
	case KindCreate:
		// Nothing was inserted optimistically, so failure needs no
		// store correction.
		if res.Err != nil {
			e.fail("create task: %v", res.Err)
			return
		}
		e.store.Put(res.Task)
		e.log.Info("created %q (%s)", res.Task.Title, res.Task.ID)

	case KindToggle, KindSave:
		// A result for an id that is no longer in flight is stale: the
		// mutation it answers was already reconciled. Dropping it keeps a
		// late duplicate from overwriting newer state.
		if !e.flight.InFlight(res.ID) {
			e.log.Warn("stale %s result for %s ignored", res.Kind, res.ID)
			return
		}
		e.flight.Clear(res.ID)
		if res.Err != nil {
			e.store.Put(res.Prior)
			e.fail("%s %s: %v", res.Kind, res.ID, res.Err)
			return
		}
		// Stale-response suppression: adopt the authoritative value only
		// when it differs from what the replica holds now. A delayed
		// response whose fields match the current state — because a newer
		// mutation already landed — must not clobber it.
		if cur, ok := e.store.Get(res.ID); ok && !cur.SameState(res.Task) {
			e.store.Put(res.Task)
		}

	case KindDelete:
		if !e.flight.InFlight(res.ID) {
			e.log.Warn("stale delete result for %s ignored", res.ID)
			return
		}
		e.flight.Clear(res.ID)
		if res.Err != nil {
			// The remote store still holds the task, so the optimistic
			// removal is undone.
			e.store.Put(res.Prior)
			e.fail("delete %s: %v", res.ID, res.Err)
			return
		}
		e.log.Info("deleted %s", res.ID)
	}
}

func (e *Engine) fail(format string, args ...any) {
	e.lastErr = fmt.Sprintf(format, args...)
	e.log.Error(format, args...)
}
