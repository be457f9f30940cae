package replica

// EditBuffer holds the draft title and description for the single task
// being edited. At most one buffer is open at a time; opening a new one
// discards any unsaved drafts.
type EditBuffer struct {
	open        bool
	id          string
	title       string
	description string
}

// NewEditBuffer returns a closed edit buffer.
func NewEditBuffer() *EditBuffer {
	return &EditBuffer{}
}

// Open starts an edit session for id, seeding the drafts from the
// committed values.
func (b *EditBuffer) Open(id, title, description string) {
	b.open = true
	b.id = id
	b.title = title
	b.description = description
}

// Close ends the edit session and discards the drafts.
func (b *EditBuffer) Close() {
	*b = EditBuffer{}
}

// IsOpen reports whether an edit session is active.
func (b *EditBuffer) IsOpen() bool {
	return b.open
}

// IsFor reports whether the open buffer belongs to id. A closed buffer
// matches nothing, which is what guards stale save intents.
func (b *EditBuffer) IsFor(id string) bool {
	return b.open && b.id == id
}

// ID returns the id of the task being edited, or "" when closed.
func (b *EditBuffer) ID() string {
	if !b.open {
		return ""
	}
	return b.id
}

// SetTitle updates the draft title. Ignored when no buffer is open.
func (b *EditBuffer) SetTitle(v string) {
	if b.open {
		b.title = v
	}
}

// SetDescription updates the draft description. Ignored when no buffer is open.
func (b *EditBuffer) SetDescription(v string) {
	if b.open {
		b.description = v
	}
}

// Drafts returns the current draft title and description.
func (b *EditBuffer) Drafts() (title, description string) {
	return b.title, b.description
}
