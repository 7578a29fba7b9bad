package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"testbackend/internal/config"
	"testbackend/internal/storage"
	"testbackend/internal/ui"
)

// FailuresCommand shows the failed tests cached by the last run
type FailuresCommand struct {
	config    *config.Config
	storage   storage.Storage
	formatter *ui.Formatter
	picker    ui.Picker
	rerun     func(cmd *cobra.Command, args []string) error
}

// NewFailuresCommand creates a new FailuresCommand. rerun is called with the
// picked identifier when --pick is set.
func NewFailuresCommand(
	cfg *config.Config,
	st storage.Storage,
	formatter *ui.Formatter,
	picker ui.Picker,
	rerun func(cmd *cobra.Command, args []string) error,
) *FailuresCommand {
	return &FailuresCommand{
		config:    cfg,
		storage:   st,
		formatter: formatter,
		picker:    picker,
		rerun:     rerun,
	}
}

// Execute runs the command
func (fc *FailuresCommand) Execute(cmd *cobra.Command, args []string) error {
	ids, err := fc.storage.Load()
	if err != nil {
		return fmt.Errorf("failed to load failed tests: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("No failed tests recorded"))
		return nil
	}

	if !fc.config.Flags.Pick {
		fc.formatter.PrintHeader(fmt.Sprintf("Failed tests (%d)", len(ids)))
		fc.formatter.PrintSuiteTree(ids)
		return nil
	}

	picked, err := fc.picker.Pick(ids)
	if err != nil {
		return fmt.Errorf("failure picker: %w", err)
	}
	if picked == "" {
		return nil
	}
	return fc.rerun(cmd, []string{picked})
}
