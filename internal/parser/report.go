package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"testbackend/internal/domain"
)

// ReportParser parses the runner's JSON report
type ReportParser struct{}

// NewReportParser creates a new ReportParser
func NewReportParser() *ReportParser {
	return &ReportParser{}
}

// Parse decodes a report. Failures is forced on when failed tests are listed.
func (p *ReportParser) Parse(r io.Reader) (*domain.RunReport, error) {
	var report domain.RunReport
	if err := json.NewDecoder(r).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode runner report: %w", err)
	}
	if len(report.FailedTests) > 0 {
		report.Failures = true
	}
	return &report, nil
}

// ParseFile decodes the report stored at path
func (p *ReportParser) ParseFile(path string) (*domain.RunReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return p.Parse(f)
}

// SlowTests returns the tests slower than threshold seconds, slowest first,
// at most limit of them (limit <= 0 means all)
func SlowTests(durations []domain.TestDuration, threshold float64, limit int) []domain.TestDuration {
	var slow []domain.TestDuration
	for _, d := range durations {
		if d.Seconds >= threshold {
			slow = append(slow, d)
		}
	}
	sort.SliceStable(slow, func(i, j int) bool {
		return slow[i].Seconds > slow[j].Seconds
	})
	if limit > 0 && len(slow) > limit {
		slow = slow[:limit]
	}
	return slow
}

// TopProfile returns the profile rows with the highest cumulative time
func TopProfile(entries []domain.ProfileEntry, limit int) []domain.ProfileEntry {
	top := append([]domain.ProfileEntry(nil), entries...)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].CumulativeSeconds > top[j].CumulativeSeconds
	})
	if limit > 0 && len(top) > limit {
		top = top[:limit]
	}
	return top
}
