package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"simpletodo/internal/config"
	"simpletodo/internal/exitcode"
	"simpletodo/internal/export"
	"simpletodo/internal/service"
)

func init() {
	Register(&ExportCmd{})
}

// ExportCmd writes all tasks in a portable format.
type ExportCmd struct {
	format string
	output string
}

func (c *ExportCmd) Name() string      { return "export" }
func (c *ExportCmd) Aliases() []string { return nil }
func (c *ExportCmd) Synopsis() string  { return "Export tasks (json, yaml, toml, pdf)" }
func (c *ExportCmd) Usage() string {
	return "todo export [--format json|yaml|toml|pdf] [--output <file>]"
}
func (c *ExportCmd) NeedsStore() bool { return true }

func (c *ExportCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.format, "format", "", "")
	fs.StringVar(&c.format, "f", "", "")
	fs.StringVar(&c.output, "output", "", "")
	fs.StringVar(&c.output, "o", "", "")
}

func (c *ExportCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	format := c.format
	if format == "" {
		format = formatFromPath(c.output)
	}
	if !knownFormat(format) {
		fmt.Fprintf(errOut, "error: unknown format: %s\n", format)
		return exitcode.UserError
	}
	if format == export.FormatPDF && c.output == "" {
		fmt.Fprintln(errOut, "error: pdf export needs --output")
		return exitcode.UserError
	}

	tasks := svc.List()

	if c.output == "" {
		if err := export.Write(out, tasks, format); err != nil {
			fmt.Fprintf(errOut, "error: export failed: %v\n", err)
			return exitcode.BackendError
		}
		return exitcode.Success
	}

	f, err := os.Create(c.output)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if err := export.Write(f, tasks, format); err != nil {
		f.Close()
		fmt.Fprintf(errOut, "error: export failed: %v\n", err)
		return exitcode.BackendError
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(errOut, "error: export failed: %v\n", err)
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "ok %d\n", len(tasks))
	}
	return exitcode.Success
}

// formatFromPath picks a format from a file extension, defaulting to json.
func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return export.FormatYAML
	case ".toml":
		return export.FormatTOML
	case ".pdf":
		return export.FormatPDF
	default:
		return export.FormatJSON
	}
}

func knownFormat(format string) bool {
	for _, f := range export.Formats {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return strings.EqualFold(format, "yml")
}
