// internal/task/task.go
//
// Shared task types for the client replica, the gateway wire format, and
// the persistence service. The JSON field names are the service's REST
// contract, so both sides import this package instead of redeclaring them.

package task

// Task is one unit of user-visible work. The ID is assigned by the
// persistence service at creation and never changes afterwards.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// SameState reports whether the mutable fields of two tasks match.
// Identity is deliberately excluded: the replica compares candidate values
// for the same ID.
func (t Task) SameState(other Task) bool {
	return t.Title == other.Title &&
		t.Description == other.Description &&
		t.Completed == other.Completed
}

// Patch is a partial update. Nil fields are omitted from the request body
// and must be left unchanged by the store.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// IsZero reports whether the patch carries no changes at all.
func (p Patch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil
}

// Apply merges the patch into a task value, leaving nil fields untouched.
func (p Patch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}

// String returns a pointer to v, for building patches inline.
func String(v string) *string { return &v }

// Bool returns a pointer to v, for building patches inline.
func Bool(v bool) *bool { return &v }
