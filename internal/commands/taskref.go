package commands

import (
	"errors"

	"simpletodo/internal/service"
)

// ErrTaskRefRequired indicates no task id was provided.
var ErrTaskRefRequired = errors.New("task id required")

// ParseTaskIDs parses every positional argument as a task id.
// All arguments are validated before any is used; LookupTasks then checks
// that each one exists, so a typo never leaves a command half applied.
func ParseTaskIDs(args []string) ([]service.ID, error) {
	if len(args) == 0 {
		return nil, ErrTaskRefRequired
	}
	ids := make([]service.ID, 0, len(args))
	for _, arg := range args {
		id, err := service.ParseID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseTaskID parses the first argument as a task id and returns the rest.
func ParseTaskID(args []string) (service.ID, []string, error) {
	if len(args) == 0 {
		return 0, nil, ErrTaskRefRequired
	}
	id, err := service.ParseID(args[0])
	if err != nil {
		return 0, nil, err
	}
	return id, args[1:], nil
}

// LookupTasks fetches the task for every id before anything is changed.
// Repeated ids are looked up once.
func LookupTasks(svc service.Service, ids []service.ID) ([]service.Task, error) {
	seen := make(map[service.ID]bool, len(ids))
	tasks := make([]service.Task, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		task, err := svc.Get(id)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
