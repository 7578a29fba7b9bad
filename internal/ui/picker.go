package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// FailurePicker shows cached failed suites and lets the user pick one to rerun
type FailurePicker struct {
	app *tview.Application
}

// NewFailurePicker creates a new FailurePicker
func NewFailurePicker() *FailurePicker {
	return &FailurePicker{}
}

// Pick blocks until the user selects an identifier or quits. An empty
// string means nothing was picked.
func (p *FailurePicker) Pick(ids []string) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}

	p.app = tview.NewApplication()
	var picked string

	details := tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true)
	details.SetBorder(true).SetTitle(" Details ")

	list := tview.NewList().ShowSecondaryText(false)
	list.SetBorder(true).SetTitle(fmt.Sprintf(" Failed suites (%d) ", len(ids)))
	for _, id := range ids {
		list.AddItem(id, "", 0, nil)
	}

	showDetails := func(index int) {
		if index >= 0 && index < len(ids) {
			details.SetText(describeSuite(ids[index]))
			details.ScrollToBeginning()
		}
	}
	list.SetChangedFunc(func(index int, _, _ string, _ rune) {
		showDetails(index)
	})
	list.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		picked = ids[index]
		p.app.Stop()
	})
	showDetails(0)

	header := tview.NewTextView().
		SetDynamicColors(true).
		SetText("[yellow]Enter[white]: rerun  [yellow]↑/↓[white]: navigate  [yellow]Esc/q[white]: quit")

	content := tview.NewFlex().
		AddItem(list, 0, 1, true).
		AddItem(details, 0, 1, false)
	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(header, 1, 0, false).
		AddItem(content, 0, 1, true)

	p.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyEscape, event.Key() == tcell.KeyCtrlC, event.Rune() == 'q':
			picked = ""
			p.app.Stop()
			return nil
		}
		return event
	})

	if err := p.app.SetRoot(layout, true).SetFocus(list).Run(); err != nil {
		return "", err
	}
	return picked, nil
}

// describeSuite breaks a dotted identifier into module, class and method
func describeSuite(id string) string {
	var module, method []string
	var class string
	for _, part := range strings.Split(id, ".") {
		switch {
		case class != "":
			method = append(method, part)
		case startsUpper(part):
			class = part
		default:
			module = append(module, part)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[yellow]Identifier:[white] %s\n\n", tview.Escape(id))
	fmt.Fprintf(&b, "[yellow]Module:[white] %s\n", tview.Escape(strings.Join(module, ".")))
	if class != "" {
		fmt.Fprintf(&b, "[yellow]Class:[white] %s\n", tview.Escape(class))
	}
	if len(method) > 0 {
		fmt.Fprintf(&b, "[yellow]Test:[white] %s\n", tview.Escape(strings.Join(method, ".")))
	}
	if len(module) > 0 {
		fmt.Fprintf(&b, "[yellow]File:[white] %s.py\n", tview.Escape(strings.Join(module, "/")))
	}
	return b.String()
}

func startsUpper(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}
