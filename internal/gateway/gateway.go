// internal/gateway/gateway.go
//
// The gateway is the only path between the client and the persistence
// service. The engine dispatches mutations against this interface and
// never sees transport details.

package gateway

import (
	"context"

	"github.com/taskdeck/taskdeck/internal/task"
)

// Gateway is the remote CRUD surface consumed by the engine.
type Gateway interface {
	// ListTasks fetches the full collection, for initial load and refresh.
	ListTasks(ctx context.Context) ([]task.Task, error)

	// CreateTask stores a new task and returns it with its
	// service-assigned ID.
	CreateTask(ctx context.Context, title, description string) (task.Task, error)

	// UpdateTask applies a partial update and returns the resulting task.
	// Fields absent from the patch are left unchanged by the service.
	UpdateTask(ctx context.Context, id string, patch task.Patch) (task.Task, error)

	// DeleteTask removes the task with the given ID.
	DeleteTask(ctx context.Context, id string) error
}
