package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"testbackend/internal/config"
	"testbackend/internal/coverage"
	"testbackend/internal/discovery"
	"testbackend/internal/domain"
)

// Formatter formats and displays output
type Formatter struct {
	config *config.Config
	parser *discovery.Parser
	out    io.Writer
}

// NewFormatter creates a new Formatter writing to stdout
func NewFormatter(cfg *config.Config, parser *discovery.Parser) *Formatter {
	return &Formatter{config: cfg, parser: parser, out: os.Stdout}
}

// SetOutput redirects the formatter
func (f *Formatter) SetOutput(w io.Writer) {
	f.out = w
}

var (
	cyan      = color.New(color.FgCyan)
	green     = color.New(color.FgGreen)
	red       = color.New(color.FgRed)
	yellow    = color.New(color.FgYellow)
	white     = color.New(color.FgWhite)
	boldRed   = color.New(color.FgRed, color.Bold)
	boldGreen = color.New(color.FgGreen, color.Bold)
)

// PrintHeader prints a boxed title
func (f *Formatter) PrintHeader(title string) {
	const width = 60
	pad := width - len([]rune(title))
	if pad < 0 {
		pad = 0
	}
	left := pad / 2
	cyan.Fprintln(f.out, "\n╔"+strings.Repeat("═", width)+"╗")
	cyan.Fprintln(f.out, "║"+strings.Repeat(" ", left)+title+strings.Repeat(" ", pad-left)+"║")
	cyan.Fprintln(f.out, "╚"+strings.Repeat("═", width)+"╝")
}

// PrintRunPlan describes what is about to run
func (f *Formatter) PrintRunPlan(opts domain.RunOptions) {
	f.PrintHeader("Backend Test Suite")
	mode := "selected suites"
	if opts.FullSuite {
		mode = "full suite"
	}
	white.Fprintf(f.out, "Suites: %d (%s) | Processes: %d\n", len(opts.Suites), mode, opts.Parallel)
	if !opts.FullSuite {
		for _, s := range opts.Suites {
			fmt.Fprintf(f.out, "  %s\n", s)
		}
	}
	fmt.Fprintln(f.out)
}

// PrintProvisionFailure explains an unmet provisioning precondition
func (f *Formatter) PrintProvisionFailure(msg string) {
	red.Fprintln(f.out, msg)
	fmt.Fprintln(f.out, "If you really know what you are doing, use --force to run anyway.")
}

// PrintUnusedTemplates lists templates no test rendered
func (f *Formatter) PrintUnusedTemplates(templates []string) {
	red.Fprintln(f.out, "\nError: Some templates have no tests!")
	for _, t := range templates {
		fmt.Fprintf(f.out, "  %s\n", t)
	}
	fmt.Fprintln(f.out, "Add a test that renders them or add them to template_ignore.")
}

// PrintCoverageProblems reports allowlist enforcement failures
func (f *Formatter) PrintCoverageProblems(problems []coverage.Problem) {
	fmt.Fprintln(f.out)
	for _, p := range problems {
		red.Fprintln(f.out, p.String())
		if p.Kind == coverage.LostCoverage {
			fmt.Fprintf(f.out, "  Lines missing coverage: %s\n", joinInts(p.Missing))
		}
	}
	fmt.Fprintln(f.out)
	yellow.Fprintln(f.out, "It looks like your changes lost 100% test coverage in one or more files.")
	fmt.Fprintf(f.out, "Usually, the right fix is to add tests. Check the HTML report in %s for details.\n",
		f.config.CoverageHTMLDir)
}

// PrintCoverageSaved points at the HTML report
func (f *Formatter) PrintCoverageSaved() {
	green.Fprintf(f.out, "HTML coverage report saved to %s/index.html\n", f.config.CoverageHTMLDir)
}

// PrintSlowTests prints the slowest tests as a table
func (f *Formatter) PrintSlowTests(tests []domain.TestDuration) {
	f.PrintHeader("Slowest Tests")
	if len(tests) == 0 {
		green.Fprintf(f.out, "No test took longer than %s\n", f.config.SlowTestThreshold)
		return
	}
	w := tabwriter.NewWriter(f.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SECONDS\tTEST")
	for _, t := range tests {
		fmt.Fprintf(w, "%.3f\t%s\n", t.Seconds, t.Name)
	}
	w.Flush()
}

// PrintProfile prints profile rows sorted by cumulative time
func (f *Formatter) PrintProfile(entries []domain.ProfileEntry) {
	f.PrintHeader("Profile (by cumulative time)")
	if len(entries) == 0 {
		yellow.Fprintln(f.out, "The runner reported no profile data")
		return
	}
	w := tabwriter.NewWriter(f.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CALLS\tTOTAL\tCUMULATIVE\tFUNCTION")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%.3f\t%.3f\t%s\n", e.Calls, e.TotalSeconds, e.CumulativeSeconds, e.Function)
	}
	w.Flush()
}

// PrintResult prints the final verdict
func (f *Formatter) PrintResult(failed bool, report *domain.RunReport) {
	fmt.Fprintln(f.out)
	if report != nil && report.Duration > 0 {
		white.Fprintf(f.out, "Duration: %.2fs\n", report.Duration.Seconds())
	}
	if failed {
		boldRed.Fprintln(f.out, "FAILED!")
		if report != nil && len(report.FailedTests) > 0 {
			fmt.Fprintf(f.out, "%d failed test(s); rerun them with --rerun\n", len(report.FailedTests))
		}
		return
	}
	boldGreen.Fprintln(f.out, "DONE!")
}

// PrintAllowlist prints the files that must stay fully covered
func (f *Formatter) PrintAllowlist(files []string) {
	green.Fprintf(f.out, "%d file(s) must keep complete backend test coverage:\n", len(files))
	for _, file := range files {
		fmt.Fprintf(f.out, "  %s\n", file)
	}
}

// TreeNode represents a node in the suite identifier tree
type TreeNode struct {
	Name     string
	Children map[string]*TreeNode
	IsLeaf   bool
}

// PrintSuiteTree prints dotted suite identifiers as a tree
func (f *Formatter) PrintSuiteTree(ids []string) {
	root := &TreeNode{Children: make(map[string]*TreeNode)}
	for _, id := range ids {
		current := root
		parts := strings.Split(id, ".")
		for i, part := range parts {
			if part == "" {
				continue
			}
			if current.Children[part] == nil {
				current.Children[part] = &TreeNode{Name: part, Children: make(map[string]*TreeNode)}
			}
			current = current.Children[part]
			if i == len(parts)-1 {
				current.IsLeaf = true
			}
		}
	}
	f.printTreeNode(root, "")
}

func (f *Formatter) printTreeNode(node *TreeNode, prefix string) {
	keys := make([]string, 0, len(node.Children))
	for key := range node.Children {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for i, key := range keys {
		child := node.Children[key]
		connector, childPrefix := "├── ", prefix+"│   "
		if i == len(keys)-1 {
			connector, childPrefix = "└── ", prefix+"    "
		}
		if child.IsLeaf {
			fmt.Fprint(f.out, prefix+connector)
			red.Fprintln(f.out, child.Name)
		} else {
			fmt.Fprint(f.out, prefix+connector)
			cyan.Fprintln(f.out, child.Name)
		}
		f.printTreeNode(child, childPrefix)
	}
}

// PrintTestList prints discovered test modules, optionally with their test
// cases. Modules in failed are marked with [F].
func (f *Formatter) PrintTestList(modules []string, showTestCases bool, failed map[string]bool) error {
	green.Fprintf(f.out, "Found %d test module(s):\n", len(modules))

	for i, module := range modules {
		id := discovery.SuiteID(module)
		failMarker := ""
		if failed[id] {
			failMarker = " " + red.Sprint("[F]")
		}

		isLastModule := i == len(modules)-1
		branch, indent := "├── ", "│   "
		if isLastModule {
			branch, indent = "└── ", "    "
		}
		fmt.Fprintln(f.out, cyan.Sprint(branch+id)+failMarker)

		if !showTestCases {
			continue
		}
		testCases, err := f.parser.FindTestCases(module)
		if err != nil {
			return err
		}
		if len(testCases) == 0 {
			fmt.Fprintf(f.out, "%s└── %s\n", indent, red.Sprint("(no test cases found)"))
			continue
		}
		for j, testCase := range testCases {
			caseBranch := "├── "
			if j == len(testCases)-1 {
				caseBranch = "└── "
			}
			fmt.Fprintf(f.out, "%s%s%s\n", indent, caseBranch, yellow.Sprint(testCase))
		}
	}
	return nil
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}
