package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck/internal/task"
)

// Memory is an in-process repository, the default backend for local use
// and tests.
type Memory struct {
	mu    sync.RWMutex
	tasks map[string]task.Task
}

// NewMemory returns an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{tasks: map[string]task.Task{}}
}

// List implements Repository.
func (m *Memory) List(ctx context.Context) ([]task.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]task.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	return out, nil
}

// Get implements Repository.
func (m *Memory) Get(ctx context.Context, id string) (task.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return task.Task{}, ErrNotFound
	}
	return t, nil
}

// Create implements Repository.
func (m *Memory) Create(ctx context.Context, title, description string) (task.Task, error) {
	t := task.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = t
	return t, nil
}

// Update implements Repository.
func (m *Memory) Update(ctx context.Context, id string, patch task.Patch) (task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.tasks[id]
	if !ok {
		return task.Task{}, ErrNotFound
	}
	updated := patch.Apply(cur)
	m.tasks[id] = updated
	return updated, nil
}

// Delete implements Repository.
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

// Close implements Repository.
func (m *Memory) Close(ctx context.Context) error {
	return nil
}
