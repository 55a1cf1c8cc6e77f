package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"simpletodo/internal/config"
	"simpletodo/internal/exitcode"
	"simpletodo/internal/logging"
	"simpletodo/internal/output"
	"simpletodo/internal/search"
	"simpletodo/internal/service"
)

func init() {
	Register(&FindCmd{})
}

// FindCmd searches task text.
type FindCmd struct {
	open  bool
	done  bool
	limit int
}

func (c *FindCmd) Name() string      { return "find" }
func (c *FindCmd) Aliases() []string { return []string{"search"} }
func (c *FindCmd) Synopsis() string  { return "Search tasks by text" }
func (c *FindCmd) Usage() string     { return "todo find [--open|--done] [--limit <n>] <query...>" }
func (c *FindCmd) NeedsStore() bool  { return true }

func (c *FindCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.open, "open", false, "")
	fs.BoolVar(&c.done, "done", false, "")
	fs.IntVar(&c.limit, "limit", 0, "")
}

func (c *FindCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	query := strings.Join(args, " ")
	if strings.TrimSpace(query) == "" {
		fmt.Fprintln(errOut, "error: search query required")
		return exitcode.UserError
	}
	if c.open && c.done {
		fmt.Fprintln(errOut, "error: cannot use both --open and --done")
		return exitcode.UserError
	}
	if c.limit < 0 {
		fmt.Fprintf(errOut, "error: invalid limit: %d\n", c.limit)
		return exitcode.UserError
	}

	opts := search.Options{Limit: c.limit}
	switch {
	case c.open:
		opts.Status = "open"
	case c.done:
		opts.Status = "done"
	}

	cfg.Logger().WithComponent("find").Debug("search", logging.Fields{"query": query, "status": opts.Status})
	hits, err := search.Find(svc.List(), query, opts)
	if err != nil {
		return report(errOut, err)
	}

	for _, task := range hits {
		output.FormatTask(out, task)
	}
	if len(hits) == 0 && !cfg.Quiet {
		fmt.Fprintln(out, output.NoTasks)
	}
	return exitcode.Success
}
