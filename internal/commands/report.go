package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"simpletodo/internal/exitcode"
	"simpletodo/internal/service"
)

// report prints err in the CLI's error format and returns the exit code.
// NotFound and InvalidArgument are user errors; anything else is a backend
// failure.
func report(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, ErrTaskRefRequired):
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	case errors.Is(err, service.ErrInvalidArgument):
		msg := strings.TrimPrefix(err.Error(), service.ErrInvalidArgument.Error()+": ")
		fmt.Fprintf(errOut, "error: %s\n", msg)
		return exitcode.UserError
	case errors.Is(err, service.ErrNotFound):
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}
