package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"simpletodo/internal/config"
	"simpletodo/internal/exitcode"
	"simpletodo/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "todo help" }
func (c *HelpCmd) NeedsStore() bool  { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  todo                                         List all tasks
  todo list [common flags] [--open|--done]     List tasks (alias: ls)
  todo add [common flags] [--done] <text...>   Create a task (alias: create)
  todo show [common flags] <id>                Show one task
  todo done [common flags] <id...>             Mark tasks completed
  todo undo [common flags] <id...>             Mark tasks open again (alias: reopen)
  todo toggle [common flags] <id...>           Flip tasks between open and done
  todo edit [common flags] <id> <text...>      Change the text of a task
  todo rm [common flags] <id...>               Delete tasks (alias: delete)
  todo find [common flags] [--open|--done] [--limit <n>] <query...>
  todo export [common flags] [--format json|yaml|toml|pdf] [--output <file>]
  todo import [common flags] [--format json|yaml|toml] <file>
  todo import [common flags] --google [--list <list-name>]
  todo ui [common flags]                       Interactive terminal view
  todo serve [common flags] [--addr <host:port>]
  todo login [common flags]
  todo logout [common flags]
  todo help
  todo version

Common flags:
  --config <dir>       Override config directory
  --namespace <key>    Storage key the tasks live under (default simpleDB)
  --quiet              Suppress informational output
  --debug              Print debug logs to stderr
`
