package commands

import (
	"io/fs"

	"github.com/spf13/cobra"

	"testbackend/internal/config"
	"testbackend/internal/coverage"
	"testbackend/internal/ui"
)

// AllowlistCommand prints the files required to stay fully covered
type AllowlistCommand struct {
	config    *config.Config
	fsys      fs.FS
	formatter *ui.Formatter
}

// NewAllowlistCommand creates a new AllowlistCommand
func NewAllowlistCommand(cfg *config.Config, fsys fs.FS, formatter *ui.Formatter) *AllowlistCommand {
	return &AllowlistCommand{config: cfg, fsys: fsys, formatter: formatter}
}

// Execute runs the command
func (ac *AllowlistCommand) Execute(cmd *cobra.Command, args []string) error {
	files, err := coverage.Allowlist(ac.fsys, ac.config.CoverageTargets, ac.config.CoverageExclusions)
	if err != nil {
		return err
	}
	ac.formatter.PrintAllowlist(files)
	return nil
}
