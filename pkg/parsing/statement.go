package parsing

import (
	"strings"
)

// RedirectMode selects how an output redirect opens its target.
type RedirectMode int

const (
	RedirectNone      RedirectMode = iota
	RedirectOverwrite              // truncate the target
	RedirectAppend                 // append to the target
)

func (m RedirectMode) String() string {
	switch m {
	case RedirectNone:
		return "none"
	case RedirectOverwrite:
		return "overwrite"
	case RedirectAppend:
		return "append"
	default:
		return "unknown"
	}
}

// Redirect describes an output redirection clause. The target is an opaque
// string; it is validated only when the execution layer opens it.
type Redirect struct {
	Mode   RedirectMode
	Target string
}

// Statement is the structured result of parsing one input line or
// multiline block. It is immutable once returned by the Parser.
//
// At most one of PipeTo and Output is set: the two clauses cannot coexist,
// and whichever marker appears first in the raw text wins.
type Statement struct {
	Raw        string   // exact text as typed, before any expansion
	Command    string   // first word, after alias and macro resolution
	Args       []Token  // argument tokens in order, quotes stripped
	Terminator string   // terminator that ended the clause, or ""
	Suffix     string   // text between the terminator and any clause marker
	PipeTo     string   // shell command line the output is piped to
	Output     Redirect // output redirection clause
	Multiline  bool     // the command's grammar spans lines to a terminator

	cfg Config // line syntax used to render the statement back to text
}

// Empty reports whether the statement carries no command.
func (s Statement) Empty() bool {
	return s.Command == ""
}

// Argv returns the command word followed by the unquoted argument texts,
// the way an argv-style handler consumes them.
func (s Statement) Argv() []string {
	argv := make([]string, 0, len(s.Args)+1)
	argv = append(argv, s.Command)
	for _, tok := range s.Args {
		argv = append(argv, tok.Text)
	}
	return argv
}

// ArgLine renders the argument tokens back to text, requoting any token
// that needs it.
func (s Statement) ArgLine() string {
	if len(s.Args) == 0 {
		return ""
	}
	cfg := s.config()
	parts := make([]string, len(s.Args))
	for i, tok := range s.Args {
		parts[i] = cfg.Requote(tok)
	}
	return strings.Join(parts, " ")
}

// PostCommand renders everything that followed the argument list:
// terminator, suffix, and the pipe or redirect clause. Macro resolution
// appends this to the substituted line so the tail survives expansion.
func (s Statement) PostCommand() string {
	cfg := s.config()
	var b strings.Builder
	if s.Terminator != "" {
		if s.Terminator == "\n" {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
			b.WriteString(s.Terminator)
		}
	}
	if s.Suffix != "" {
		b.WriteString(" ")
		b.WriteString(s.Suffix)
	}
	switch {
	case s.PipeTo != "":
		b.WriteString(" ")
		b.WriteString(cfg.Pipe)
		b.WriteString(" ")
		b.WriteString(s.PipeTo)
	case s.Output.Mode == RedirectOverwrite:
		b.WriteString(" ")
		b.WriteString(cfg.RedirectOutput)
		b.WriteString(" ")
		b.WriteString(s.Output.Target)
	case s.Output.Mode == RedirectAppend:
		b.WriteString(" ")
		b.WriteString(cfg.RedirectAppend)
		b.WriteString(" ")
		b.WriteString(s.Output.Target)
	}
	return b.String()
}

// ExpandedCommandLine reconstructs a re-parseable command line from the
// statement: command word, requoted arguments, terminator, suffix, and any
// pipe or redirect clause. Parsing the result yields a statement
// semantically equal to this one.
func (s Statement) ExpandedCommandLine() string {
	var b strings.Builder
	b.WriteString(s.Command)
	if args := s.ArgLine(); args != "" {
		b.WriteString(" ")
		b.WriteString(args)
	}
	b.WriteString(s.PostCommand())
	return b.String()
}

func (s Statement) config() Config {
	return s.cfg.WithDefaults()
}
