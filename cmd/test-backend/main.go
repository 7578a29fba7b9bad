package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"testbackend/internal/cli"
	"testbackend/internal/cli/commands"
	"testbackend/internal/config"
)

var version = "dev"

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:     "test-backend [tests...]",
		Short:   "Run the backend test suite",
		Long:    `Resolve shorthand test names (class names, module names, paths) into suite identifiers and run them with the project's test runner, optionally measuring and enforcing coverage.`,
		Version: version,
	}

	// Create initial config with defaults
	cfg := config.New()

	// Create flags struct (will be populated by command flags)
	var flags cli.Flags

	// Create commands with dependencies
	cmds := commands.NewCommands(cfg)

	// Register all commands
	cmds.Register(rootCmd, &flags, cfg)

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, commands.ErrTestsFailed) && !errors.Is(err, commands.ErrNotProvisioned) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
