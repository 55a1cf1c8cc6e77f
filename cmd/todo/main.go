// Package main is the entry point for the todo CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"simpletodo/internal/cli"
	"simpletodo/internal/commands"
	"simpletodo/internal/config"
	"simpletodo/internal/repository"
	"simpletodo/internal/service"
	"simpletodo/internal/storage"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, openRepository)

	// Run and exit with code
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// openRepository opens the configured storage slot and loads the tasks in it.
func openRepository(ctx context.Context, cfg *config.Config) (service.Service, error) {
	store, err := storage.Open(cfg.Storage())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", service.ErrStorage, err)
	}
	repo, err := repository.New(store, repository.Options{
		Namespace: cfg.Namespace,
		Logger:    cfg.Logger(),
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	return repo, nil
}
