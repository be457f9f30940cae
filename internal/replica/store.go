// internal/replica/store.go
//
// The replica package holds the client-side copy of the remote task
// collection plus the bookkeeping around it: which tasks have a mutation
// outstanding, and the draft buffer for the task being edited.
//
// None of these types synchronize. They are owned by the engine and only
// ever touched from the single update goroutine; readers get copies.

package replica

import "github.com/taskdeck/taskdeck/internal/task"

// Store maps task ID to the locally known task value. Entries are replaced
// wholesale or removed, never mutated in place.
type Store struct {
	tasks map[string]task.Task
}

// NewStore returns an empty replica store.
func NewStore() *Store {
	return &Store{tasks: map[string]task.Task{}}
}

// Get returns the task for id, if known.
func (s *Store) Get(id string) (task.Task, bool) {
	t, ok := s.tasks[id]
	return t, ok
}

// List returns a copy of every known task, in no particular order.
func (s *Store) List() []task.Task {
	out := make([]task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	return out
}

// Put inserts or replaces the entry for t.ID.
func (s *Store) Put(t task.Task) {
	s.tasks[t.ID] = t
}

// Remove deletes the entry for id. Removing an unknown id is a no-op.
func (s *Store) Remove(id string) {
	delete(s.tasks, id)
}

// ReplaceAll drops the current contents and adopts tasks as the new
// replica. Used when a full listing arrives from the remote store.
func (s *Store) ReplaceAll(tasks []task.Task) {
	s.tasks = make(map[string]task.Task, len(tasks))
	for _, t := range tasks {
		s.tasks[t.ID] = t
	}
}

// Len reports how many tasks the replica holds.
func (s *Store) Len() int {
	return len(s.tasks)
}
