package engine

import (
	"context"

	"github.com/taskdeck/taskdeck/internal/task"
)

// MutationKind identifies which dispatcher operation produced a remote call.
type MutationKind string

const (
	KindCreate MutationKind = "create"
	KindToggle MutationKind = "toggle"
	KindSave   MutationKind = "save"
	KindDelete MutationKind = "delete"
)

// Event is the outcome of a gateway call, fed back into Engine.Apply on
// the update goroutine. Responses may arrive in any order; the reconciler
// decides what, if anything, they change.
type Event interface {
	event()
}

// TasksLoaded carries the result of a full listing.
type TasksLoaded struct {
	Tasks []task.Task
	Err   error
}

func (TasksLoaded) event() {}

// MutationResult carries the outcome of a single mutation together with
// the pre-optimistic snapshot needed for rollback.
type MutationResult struct {
	Kind MutationKind

	// ID of the mutated task. Empty for create, where the ID is not known
	// until the service responds.
	ID string

	// Task is the authoritative value returned by the service on success.
	// Unset for delete.
	Task task.Task

	// Prior is the replica's value immediately before the optimistic
	// write, used to undo it when the remote call fails.
	Prior task.Task

	Err error
}

func (MutationResult) event() {}

// Command is deferred gateway work. The caller schedules it off the update
// goroutine and routes the returned Event back into Engine.Apply. A nil
// Command means the intent was rejected or was a pure local edit.
type Command func(ctx context.Context) Event
