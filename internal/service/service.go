package service

// Service is the task repository contract.
// The CLI, the terminal UI and the web server all work through it and never
// touch the storage slot directly.
type Service interface {
	// List returns all tasks in insertion order.
	List() []Task

	// Get returns the task with the given id.
	// Returns ErrNotFound if no task has that id.
	Get(id ID) (Task, error)

	// Add creates a task and persists the whole collection.
	// Returns ErrInvalidArgument if text is blank.
	Add(text string, isDone bool) (Task, error)

	// Update applies the fields present in p that differ from the stored task.
	// Returns ErrNotFound if no task has that id.
	Update(id ID, p Patch) error

	// Delete removes a task and persists the remaining collection.
	// Returns ErrNotFound if no task has that id.
	Delete(id ID) error

	// Subscribe registers fn to receive every persisted mutation.
	// The returned function removes the registration.
	Subscribe(fn func(Event)) (cancel func())

	// Close releases the underlying storage.
	Close() error
}
