package execution

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"testbackend/internal/ui"
)

// Capture runs argv in dir with env, feeding every output line to spinner
// (when set), and returns the combined output.
func Capture(ctx context.Context, argv []string, dir string, env []string, spinner *ui.Spinner) (string, error) {
	if len(argv) == 0 {
		return "", errors.New("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = env

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("failed to create stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start %s: %w", argv[0], err)
	}

	var (
		mu     sync.Mutex
		output strings.Builder
		scanWg sync.WaitGroup
	)
	processLine := func(line string) {
		mu.Lock()
		defer mu.Unlock()
		output.WriteString(line)
		output.WriteString("\n")
		if trimmed := strings.TrimSpace(line); trimmed != "" && spinner != nil {
			spinner.Update(trimmed)
		}
	}
	scan := func(r io.Reader) {
		defer scanWg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			processLine(scanner.Text())
		}
	}

	scanWg.Add(2)
	go scan(stdout)
	go scan(stderr)

	// pipes must be drained before Wait closes them
	scanWg.Wait()
	err = cmd.Wait()
	return output.String(), err
}
