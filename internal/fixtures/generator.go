package fixtures

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"testbackend/internal/config"
	"testbackend/internal/execution"
	"testbackend/internal/ui"
)

// Generator keeps the test fixtures and template database up to date
type Generator interface {
	// Ensure regenerates fixtures when forced or stale and reports whether it did.
	Ensure(ctx context.Context, env []string, force bool) (bool, error)
}

// CommandGenerator regenerates fixtures by running the configured command
type CommandGenerator struct {
	config   *config.Config
	status   *Status
	log      zerolog.Logger
	out      io.Writer
	progress io.Writer
}

// NewCommandGenerator creates a new CommandGenerator
func NewCommandGenerator(cfg *config.Config, status *Status, log zerolog.Logger) *CommandGenerator {
	return &CommandGenerator{config: cfg, status: status, log: log, out: os.Stdout, progress: os.Stderr}
}

// SetOutput redirects status lines and the spinner
func (g *CommandGenerator) SetOutput(out, progress io.Writer) {
	g.out = out
	g.progress = progress
}

// Ensure implements Generator
func (g *CommandGenerator) Ensure(ctx context.Context, env []string, force bool) (bool, error) {
	if !force {
		fresh, reason, err := g.status.Fresh(ctx)
		if err != nil {
			return false, fmt.Errorf("check template database: %w", err)
		}
		if fresh {
			g.log.Debug().Str("database", g.config.TemplateDatabase).Msg("template database is current")
			return false, nil
		}
		fmt.Fprintln(g.out, color.YellowString("Regenerating test fixtures: %s", reason))
	} else {
		fmt.Fprintln(g.out, color.YellowString("Regenerating test fixtures (forced)"))
	}

	argv := append([]string(nil), g.config.FixtureCommand...)
	if len(argv) == 0 {
		return false, fmt.Errorf("no fixture command configured")
	}
	if force {
		argv = append(argv, g.config.FixtureForceArgs...)
	}

	spinner := ui.NewSpinner(g.progress, "Generating fixtures:")
	output, err := execution.Capture(ctx, argv, g.config.ProjectPath, env, spinner)
	spinner.Finish()
	if err != nil {
		fmt.Fprint(g.out, output)
		return false, fmt.Errorf("fixture generation %q failed: %w", strings.Join(argv, " "), err)
	}

	digest, err := g.status.Digest()
	if err != nil {
		return true, err
	}
	if err := g.status.Record(digest); err != nil {
		return true, fmt.Errorf("record template status: %w", err)
	}
	fmt.Fprintln(g.out, color.GreenString("✓ Fixtures regenerated"))
	return true, nil
}
