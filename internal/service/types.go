// Package service defines the task model and the contract every view consumes.
package service

import "strconv"

// ID identifies a task. IDs are allocated by the repository and never reused
// while it is open.
type ID int64

// String returns the decimal form of the id.
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Task represents a single task item.
type Task struct {
	ID     ID
	Text   string
	IsDone bool
}

// Patch lists the task fields a caller may change. Nil fields are left alone.
// The id is deliberately absent: it cannot be changed after creation.
type Patch struct {
	Text   *string
	IsDone *bool
}

// Empty reports whether the patch names no field.
func (p Patch) Empty() bool {
	return p.Text == nil && p.IsDone == nil
}

// SetText returns a patch that replaces the task text.
func SetText(text string) Patch {
	return Patch{Text: &text}
}

// SetDone returns a patch that sets the completion flag.
func SetDone(done bool) Patch {
	return Patch{IsDone: &done}
}

// EventKind names the mutation an Event reports.
type EventKind string

const (
	EventAdded   EventKind = "added"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// Event is delivered to observers after a mutation has been persisted.
// For EventDeleted, Task holds the task as it was before removal.
type Event struct {
	Kind EventKind
	Task Task
}
