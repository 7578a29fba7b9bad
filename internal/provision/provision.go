// Package provision checks that the development environment was provisioned
// with the version the current checkout expects.
package provision

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"testbackend/internal/config"
)

// Checker compares the installed provision version with the required one
type Checker struct {
	config *config.Config
}

// NewChecker creates a new Checker
func NewChecker(cfg *config.Config) *Checker {
	return &Checker{config: cfg}
}

// Status reports whether provisioning is current, with a message for the user
// when it is not. Versions are "major.minor"; the installed version must have
// the same major and at least the required minor.
func (c *Checker) Status() (bool, string) {
	required, err := parseVersion(c.config.ProvisionVersion)
	if err != nil {
		return false, fmt.Sprintf("Invalid required provision version %q: %v", c.config.ProvisionVersion, err)
	}

	path := c.config.Path(c.config.ProvisionVersionFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Sprintf("%s does not exist. Run tools/provision to provision this environment.", c.config.ProvisionVersionFile)
	}
	if err != nil {
		return false, fmt.Sprintf("Could not read %s: %v", c.config.ProvisionVersionFile, err)
	}

	installed, err := parseVersion(strings.TrimSpace(string(data)))
	if err != nil {
		return false, fmt.Sprintf("Invalid provision version in %s: %v", c.config.ProvisionVersionFile, err)
	}

	switch {
	case installed.major > required.major:
		return false, fmt.Sprintf("Provisioning version %s is newer than this checkout expects (%s). "+
			"Update your branch or run tools/provision.", installed, required)
	case installed.major < required.major || installed.minor < required.minor:
		return false, fmt.Sprintf("Provisioning version %s is out of date (need %s). Run tools/provision to update.",
			installed, required)
	}
	return true, ""
}

type version struct {
	major, minor int
}

func (v version) String() string {
	return fmt.Sprintf("%d.%d", v.major, v.minor)
}

func parseVersion(s string) (version, error) {
	majorStr, minorStr, ok := strings.Cut(s, ".")
	if !ok {
		minorStr = "0"
	}
	major, err := strconv.Atoi(majorStr)
	if err != nil {
		return version{}, fmt.Errorf("bad major version %q", majorStr)
	}
	minor, err := strconv.Atoi(minorStr)
	if err != nil {
		return version{}, fmt.Errorf("bad minor version %q", minorStr)
	}
	return version{major: major, minor: minor}, nil
}
