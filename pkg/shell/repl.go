package shell

import (
	"errors"
	"fmt"
	"io"

	"github.com/chzyer/readline"
)

// Run starts the interactive read-eval loop and blocks until the user
// quits or input ends. Ctrl-C discards the current line (and any
// pending multiline continuation); EOF exits.
func (s *Shell) Run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt,
		HistoryFile:     s.histFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		AutoComplete:    &lineCompleter{shell: s},
		Listener:        s.helpListener(),
	})
	if err != nil {
		return fmt.Errorf("readline init: %w", err)
	}
	defer rl.Close()
	s.rl = rl
	s.interactive = true
	defer func() {
		s.rl = nil
		s.interactive = false
	}()

	if s.intro != "" {
		fmt.Fprintln(s.out, s.intro)
	}

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if s.Continuing() {
					s.pending = nil
					rl.SetPrompt(s.prompt)
				}
				continue
			}
			if err == io.EOF {
				return nil
			}
			return err
		}

		if err := s.Feed(line); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			fmt.Fprintf(s.errOut, "error: %v\n", err)
		}

		if s.Continuing() {
			rl.SetPrompt(s.contPrompt)
		} else {
			rl.SetPrompt(s.prompt)
		}
	}
}
