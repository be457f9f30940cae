// internal/server/storage/storage.go
//
// Persistence backends for taskdeckd. The repository assigns task
// identity: clients never choose IDs.

package storage

import (
	"context"
	"errors"

	"github.com/taskdeck/taskdeck/internal/task"
)

// ErrNotFound is returned when a task ID does not exist.
var ErrNotFound = errors.New("storage: task not found")

// Repository is the CRUD surface the HTTP handlers run against.
type Repository interface {
	// List returns every stored task, in no particular order.
	List(ctx context.Context) ([]task.Task, error)

	// Get returns the task with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (task.Task, error)

	// Create stores a new task with a freshly assigned ID and returns it.
	Create(ctx context.Context, title, description string) (task.Task, error)

	// Update merges patch into the stored task and returns the result.
	// Nil patch fields are left unchanged.
	Update(ctx context.Context, id string, patch task.Patch) (task.Task, error)

	// Delete removes the task with the given ID, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
