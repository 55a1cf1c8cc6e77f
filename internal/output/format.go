// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"simpletodo/internal/service"
)

const (
	// Separator frames the details block printed by show.
	Separator = "------------"

	// NoTasks is printed when a listing is empty.
	NoTasks = "no tasks found"
)

// FormatTask formats a task line.
// Format: "{ID:>4}  [x] {TEXT}\n" (4-wide right-aligned id, two spaces, checkbox, text)
func FormatTask(w io.Writer, task service.Task) {
	fmt.Fprintf(w, "%4d  %s %s\n", task.ID, Checkbox(task.IsDone), NormalizeText(task.Text))
}

// FormatDetails formats a single task for the show command.
func FormatDetails(w io.Writer, task service.Task) {
	status := "open"
	if task.IsDone {
		status = "done"
	}
	fmt.Fprintln(w, Separator)
	fmt.Fprintf(w, "id:     %d\n", task.ID)
	fmt.Fprintf(w, "status: %s\n", status)
	fmt.Fprintf(w, "text:   %s\n", NormalizeText(task.Text))
	fmt.Fprintln(w, Separator)
}

// Checkbox renders the completion flag.
func Checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

// NormalizeText normalizes task text for single-line display.
// - Empty or whitespace-only text becomes "(untitled)"
// - Newlines are replaced with spaces
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")

	if strings.TrimSpace(text) == "" {
		return "(untitled)"
	}
	return text
}
