package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/schollz/progressbar/v3"
)

const maxStatusWidth = 60

// Spinner shows activity for a step of unknown length
type Spinner struct {
	bar   *progressbar.ProgressBar
	title string
}

// NewSpinner creates a spinner titled title writing to w (stderr when nil)
func NewSpinner(w io.Writer, title string) *Spinner {
	if w == nil {
		w = os.Stderr
	}
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(title)),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &Spinner{bar: bar, title: title}
}

// Update advances the spinner and shows status next to the title
func (s *Spinner) Update(status string) {
	s.bar.Describe(color.CyanString(s.title) + " " + truncateStatus(status))
	s.bar.Add(1)
}

// Finish completes the spinner
func (s *Spinner) Finish() {
	s.bar.Finish()
}

// truncateStatus shortens status to maxStatusWidth terminal cells without
// splitting a rune
func truncateStatus(status string) string {
	return runewidth.Truncate(status, maxStatusWidth, "...")
}
