// Package script runs command scripts against a shell: plain text
// scripts fed line by line through the parser, and Starlark programs
// that drive the shell through a builtin.
package script

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// FeedFunc accepts one physical line of input. The shell's Feed handles
// comments, blank lines, and multiline continuation, so the runner just
// streams lines.
type FeedFunc func(line string) error

// Runner executes plain text command scripts.
type Runner struct {
	feed FeedFunc
}

// NewRunner returns a Runner feeding lines into feed.
func NewRunner(feed FeedFunc) *Runner {
	return &Runner{feed: feed}
}

// RunFile executes the script at path.
func (r *Runner) RunFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	defer f.Close()
	if err := r.Run(f); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}

// Run executes a script from rd, stopping at the first failing line.
func (r *Runner) Run(rd io.Reader) error {
	scanner := bufio.NewScanner(rd)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := r.feed(scanner.Text()); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	return nil
}
