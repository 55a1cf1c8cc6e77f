package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"simpletodo/internal/backend/googletasks"
	"simpletodo/internal/config"
	"simpletodo/internal/exitcode"
	"simpletodo/internal/export"
	"simpletodo/internal/logging"
	"simpletodo/internal/service"
)

func init() {
	Register(&ImportCmd{})
}

// GoogleSource is the read side of Google Tasks the import needs.
type GoogleSource interface {
	ResolveList(ctx context.Context, name string) (googletasks.TaskList, error)
	OpenTasks(ctx context.Context, listID string) ([]googletasks.RemoteTask, error)
}

// ImportCmd adds tasks from an export file or from Google Tasks.
// Imported tasks always get fresh ids.
type ImportCmd struct {
	format   string
	google   bool
	listName string

	source GoogleSource
}

// SetGoogleSource replaces the Google client (for testing).
func (c *ImportCmd) SetGoogleSource(src GoogleSource) {
	c.source = src
}

func (c *ImportCmd) Name() string      { return "import" }
func (c *ImportCmd) Aliases() []string { return nil }
func (c *ImportCmd) Synopsis() string  { return "Import tasks from a file or Google Tasks" }
func (c *ImportCmd) Usage() string {
	return "todo import [--format json|yaml|toml] <file> | todo import --google [--list <list-name>]"
}
func (c *ImportCmd) NeedsStore() bool { return true }

func (c *ImportCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.format, "format", "", "")
	fs.StringVar(&c.format, "f", "", "")
	fs.BoolVar(&c.google, "google", false, "")
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
}

func (c *ImportCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if c.google {
		if len(args) > 0 {
			fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
			return exitcode.UserError
		}
		return c.importGoogle(ctx, cfg, svc, out, errOut)
	}
	if c.listName != "" {
		fmt.Fprintln(errOut, "error: --list requires --google")
		return exitcode.UserError
	}
	if len(args) != 1 {
		fmt.Fprintln(errOut, "error: exactly one file required")
		return exitcode.UserError
	}
	return c.importFile(cfg, svc, args[0], out, errOut)
}

func (c *ImportCmd) importFile(cfg *config.Config, svc service.Service, path string, out, errOut io.Writer) int {
	format := c.format
	if format == "" {
		format = formatFromPath(path)
	}
	if !knownFormat(format) || strings.EqualFold(format, export.FormatPDF) {
		fmt.Fprintf(errOut, "error: unknown format: %s\n", format)
		return exitcode.UserError
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	defer f.Close()

	records, err := export.Read(f, format)
	if err != nil {
		fmt.Fprintf(errOut, "error: invalid %s file: %v\n", format, err)
		return exitcode.UserError
	}

	// Validate everything first so a bad record adds nothing.
	for i, r := range records {
		if strings.TrimSpace(r.Text) == "" {
			fmt.Fprintf(errOut, "error: record %d has no text\n", i+1)
			return exitcode.UserError
		}
	}

	for _, r := range records {
		if _, err := svc.Add(r.Text, r.IsDone); err != nil {
			return report(errOut, err)
		}
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "ok %d\n", len(records))
	}
	return exitcode.Success
}

func (c *ImportCmd) importGoogle(ctx context.Context, cfg *config.Config, svc service.Service, out, errOut io.Writer) int {
	log := cfg.Logger().WithComponent("import")

	src := c.source
	if src == nil {
		if !cfg.HasOAuthClient() {
			fmt.Fprintf(errOut, "error: oauth_client.json not found in %s\n", cfg.Dir)
			return exitcode.AuthError
		}
		if !cfg.HasToken() {
			fmt.Fprintln(errOut, "error: not logged in (run: todo login)")
			return exitcode.AuthError
		}
		client, err := googletasks.New(ctx, cfg)
		if err != nil {
			fmt.Fprintf(errOut, "error: auth error: %v\n", err)
			return exitcode.AuthError
		}
		src = client
	}

	list, err := src.ResolveList(ctx, c.listName)
	if err != nil {
		return reportGoogle(errOut, err, c.listName)
	}
	remote, err := src.OpenTasks(ctx, list.ID)
	if err != nil {
		return reportGoogle(errOut, err, c.listName)
	}

	added, skipped := 0, 0
	for _, rt := range remote {
		if strings.TrimSpace(rt.Title) == "" {
			skipped++
			continue
		}
		if _, err := svc.Add(rt.Title, false); err != nil {
			return report(errOut, err)
		}
		added++
	}
	log.Info("imported google tasks", logging.Fields{"list": list.ID, "added": added, "skipped": skipped})

	if !cfg.Quiet {
		fmt.Fprintf(out, "ok %d\n", added)
	}
	return exitcode.Success
}

func reportGoogle(errOut io.Writer, err error, listName string) int {
	switch {
	case errors.Is(err, googletasks.ErrAuth):
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	case errors.Is(err, googletasks.ErrListNotFound):
		fmt.Fprintf(errOut, "error: list not found: %s\n", listName)
		return exitcode.UserError
	case errors.Is(err, googletasks.ErrAmbiguousList):
		fmt.Fprintf(errOut, "error: ambiguous list name: %s\n", listName)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}
