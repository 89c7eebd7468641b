package main

import (
	"fmt"
	"os"

	"facelapse/internal/cli"
	"facelapse/internal/config"
	"facelapse/internal/logging"
	"facelapse/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "facelapse: load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.Setup(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "facelapse: setup logging: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.New(cfg.Paths.DatabasePath)
	if err != nil {
		// Run history is a convenience; the pipeline works without it.
		log.Warn("run history disabled", "path", cfg.Paths.DatabasePath, "error", err)
		store = nil
	}
	defer store.Close()

	if err := cli.NewRootCmd(cfg, log, store).Execute(); err != nil {
		os.Exit(1)
	}
}
