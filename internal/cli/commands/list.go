package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"testbackend/internal/config"
	"testbackend/internal/discovery"
	"testbackend/internal/storage"
	"testbackend/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	config    *config.Config
	scanner   *discovery.Scanner
	formatter *ui.Formatter
	storage   storage.Storage
}

// NewListCommand creates a new ListCommand
func NewListCommand(
	cfg *config.Config,
	scanner *discovery.Scanner,
	formatter *ui.Formatter,
	st storage.Storage,
) *ListCommand {
	return &ListCommand{
		config:    cfg,
		scanner:   scanner,
		formatter: formatter,
		storage:   st,
	}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	root := lc.config.TestSourceDir
	if len(args) > 0 {
		root = args[0]
	}
	modules, err := lc.scanner.Scan(root)
	if err != nil {
		return err
	}

	if len(modules) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("No test modules found"))
		return nil
	}

	failed, err := lc.storage.Load()
	if err != nil {
		return fmt.Errorf("failed to load failed tests: %w", err)
	}
	marked := make(map[string]bool, len(failed))
	for _, id := range failed {
		marked[id] = true
	}

	return lc.formatter.PrintTestList(modules, lc.config.Flags.TestCases, marked)
}
