package shell

import (
	"github.com/chzyer/readline"

	"github.com/conch-sh/conch/pkg/complete"
)

// lineCompleter adapts the completion engine to readline's
// AutoCompleter. Candidates are returned as the text remaining after
// the partial token; readline inserts the shared prefix itself.
type lineCompleter struct {
	shell *Shell
}

func (lc *lineCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])
	res := lc.shell.engine.Complete(text, len(text))
	if len(res.Candidates) == 0 {
		return nil, 0
	}

	single := len(res.Candidates) == 1
	var out [][]rune
	for _, c := range res.Candidates {
		suffix := c.Text[len(res.Partial):]
		if single {
			if res.CloseQuote != 0 {
				suffix += string(res.CloseQuote)
			}
			if res.AppendSpace {
				suffix += " "
			}
		}
		out = append(out, []rune(suffix))
	}
	return out, len([]rune(res.Partial))
}

// helpListener implements the ? key: typing ? mid-line shows the
// aligned candidate listing for the current position instead of
// inserting the character.
func (s *Shell) helpListener() readline.Listener {
	return readline.FuncListener(func(line []rune, pos int, key rune) ([]rune, int, bool) {
		if key != '?' || pos < 1 {
			return line, pos, false
		}
		// Strip the '?' readline already inserted.
		clean := make([]rune, 0, len(line)-1)
		clean = append(clean, line[:pos-1]...)
		clean = append(clean, line[pos:]...)
		text := string(clean[:pos-1])

		res := s.engine.Complete(text, len(text))
		if len(res.Candidates) > 0 || res.Header != "" {
			complete.WriteHelp(s.rl.Stdout(), res)
		}
		return clean, pos - 1, true
	})
}
