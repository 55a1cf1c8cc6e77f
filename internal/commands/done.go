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
	Register(&DoneCmd{})
	Register(&UndoCmd{})
	Register(&ToggleCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"complete"} }
func (c *DoneCmd) Synopsis() string  { return "Mark tasks completed" }
func (c *DoneCmd) Usage() string     { return "todo done <id...>" }
func (c *DoneCmd) NeedsStore() bool  { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	return runSetDone(cfg, svc, args, func(service.Task) bool { return true }, out, errOut)
}

// UndoCmd reopens completed tasks.
type UndoCmd struct{}

func (c *UndoCmd) Name() string      { return "undo" }
func (c *UndoCmd) Aliases() []string { return []string{"reopen"} }
func (c *UndoCmd) Synopsis() string  { return "Mark tasks open again" }
func (c *UndoCmd) Usage() string     { return "todo undo <id...>" }
func (c *UndoCmd) NeedsStore() bool  { return true }

func (c *UndoCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UndoCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	return runSetDone(cfg, svc, args, func(service.Task) bool { return false }, out, errOut)
}

// ToggleCmd flips the completion flag.
type ToggleCmd struct{}

func (c *ToggleCmd) Name() string      { return "toggle" }
func (c *ToggleCmd) Aliases() []string { return nil }
func (c *ToggleCmd) Synopsis() string  { return "Flip tasks between open and done" }
func (c *ToggleCmd) Usage() string     { return "todo toggle <id...>" }
func (c *ToggleCmd) NeedsStore() bool  { return true }

func (c *ToggleCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ToggleCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	return runSetDone(cfg, svc, args, func(t service.Task) bool { return !t.IsDone }, out, errOut)
}

// runSetDone is the shared implementation for done, undo and toggle.
// want computes the new flag from the stored task.
func runSetDone(cfg *config.Config, svc service.Service, args []string, want func(service.Task) bool, out, errOut io.Writer) int {
	ids, err := ParseTaskIDs(args)
	if err != nil {
		return report(errOut, err)
	}

	tasks, err := LookupTasks(svc, ids)
	if err != nil {
		return report(errOut, err)
	}
	for _, task := range tasks {
		if err := svc.Update(task.ID, service.SetDone(want(task))); err != nil {
			return report(errOut, err)
		}
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
