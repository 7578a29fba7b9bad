package discovery

import (
	"fmt"
	"io/fs"
	"regexp"
)

var (
	classPattern  = regexp.MustCompile(`^class\s+(\w+)\s*\(`)
	methodPattern = regexp.MustCompile(`^\s+(?:async\s+)?def\s+(test_\w+)\s*\(`)
	lineBreak     = regexp.MustCompile(`\r?\n`)
)

// Parser parses test modules to extract test cases
type Parser struct {
	fsys fs.FS
}

// NewParser creates a new Parser
func NewParser(fsys fs.FS) *Parser {
	return &Parser{fsys: fsys}
}

// FindTestCases returns "Class.test_method" entries in declaration order.
// Methods defined before any class are ignored.
func (p *Parser) FindTestCases(modulePath string) ([]string, error) {
	content, err := fs.ReadFile(p.fsys, modulePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", modulePath, err)
	}

	var (
		testCases []string
		class     string
	)
	for _, line := range lineBreak.Split(string(content), -1) {
		if m := classPattern.FindStringSubmatch(line); m != nil {
			class = m[1]
			continue
		}
		if m := methodPattern.FindStringSubmatch(line); m != nil && class != "" {
			testCases = append(testCases, class+"."+m[1])
		}
	}
	return testCases, nil
}
