package execution

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"testbackend/internal/config"
	"testbackend/internal/ui"
)

// Builder runs the asset build the backend tests depend on
type Builder struct {
	config   *config.Config
	log      zerolog.Logger
	out      io.Writer
	progress io.Writer
}

// NewBuilder creates a new Builder
func NewBuilder(cfg *config.Config, log zerolog.Logger) *Builder {
	return &Builder{config: cfg, log: log, out: os.Stdout, progress: os.Stderr}
}

// SetOutput redirects the build log (shown on failure) and the spinner
func (b *Builder) SetOutput(out, progress io.Writer) {
	b.out = out
	b.progress = progress
}

// Build runs the configured build command and blocks until it exits.
// A failing build is returned as an error, with its output printed.
func (b *Builder) Build(ctx context.Context, env []string) error {
	argv := b.config.BuildCommand
	if len(argv) == 0 {
		b.log.Debug().Msg("no build command configured")
		return nil
	}
	b.log.Debug().Strs("argv", argv).Msg("running build step")

	spinner := ui.NewSpinner(b.progress, "Building:")
	output, err := Capture(ctx, argv, b.config.ProjectPath, env, spinner)
	spinner.Finish()
	if err != nil {
		fmt.Fprint(b.out, output)
		return fmt.Errorf("build step %q failed: %w", strings.Join(argv, " "), err)
	}
	return nil
}
