package shell

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/conch-sh/conch/pkg/parsing"
)

// outputFor selects where a statement's output goes: a pipe process's
// stdin, a redirect target file, a pager when running interactively, or
// the shell's plain writer. The returned cleanup flushes and reports
// deferred failures (pipe exit status, file close).
func (s *Shell) outputFor(st parsing.Statement) (io.Writer, func() error, error) {
	switch {
	case st.PipeTo != "":
		cmd := exec.Command(shellPath(), "-c", st.PipeTo)
		cmd.Stdout = s.out
		cmd.Stderr = s.errOut
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, nil, fmt.Errorf("pipe setup: %w", err)
		}
		if err := cmd.Start(); err != nil {
			return nil, nil, fmt.Errorf("start pipe %q: %w", st.PipeTo, err)
		}
		cleanup := func() error {
			stdin.Close()
			if err := cmd.Wait(); err != nil {
				return fmt.Errorf("pipe %q: %w", st.PipeTo, err)
			}
			return nil
		}
		return stdin, cleanup, nil

	case st.Output.Mode != parsing.RedirectNone:
		flags := os.O_WRONLY | os.O_CREATE
		if st.Output.Mode == parsing.RedirectAppend {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		target := redirectTarget(st.Output.Target)
		f, err := os.OpenFile(target, flags, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("redirect: %w", err)
		}
		cleanup := func() error {
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", target, err)
			}
			return nil
		}
		return f, cleanup, nil

	case s.interactive:
		p := NewPager(s.out, os.Stdin)
		return p, p.Close, nil
	}
	return s.out, func() error { return nil }, nil
}

// redirectTarget strips the quoting from a redirect operand when it is
// a single quoted token. Anything else is used verbatim; the open call
// surfaces bad targets.
func redirectTarget(target string) string {
	tokens, err := parsing.Tokenize(target)
	if err == nil && len(tokens) == 1 {
		return tokens[0].Text
	}
	return target
}

// RunShellCommand runs line through the user's shell with output
// attached to out/errOut. The shell built-in and pipe execution both go
// through the same shell selection.
func RunShellCommand(line string, stdin io.Reader, out, errOut io.Writer) error {
	cmd := exec.Command(shellPath(), "-c", line)
	cmd.Stdin = stdin
	cmd.Stdout = out
	cmd.Stderr = errOut
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("shell %q: %w", line, err)
	}
	return nil
}

func shellPath() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}
