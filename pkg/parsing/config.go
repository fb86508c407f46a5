package parsing

import (
	"strings"
	"unicode"
)

// Shortcut rewrites a leading sigil into a command word before
// tokenization, so "!ls" parses the same as "shell ls".
type Shortcut struct {
	Sigil  string // leading text to replace, e.g. "!"
	Target string // command it expands to, e.g. "shell"
}

// Config holds the line syntax recognized by the parser and the completion
// engine. Zero fields are filled from DefaultConfig, so a partially
// populated Config is usable. Configs are plain values passed to
// constructors; there is no process-wide mutable default.
type Config struct {
	// Terminators end a command clause. The first entry is the canonical
	// terminator used when rendering statements back to text.
	Terminators []string

	// CommentMarker discards the whole line when it is the first
	// non-whitespace text of the input. Later occurrences are literal.
	CommentMarker string

	Pipe           string // pipe operator
	RedirectOutput string // truncating output redirect
	RedirectAppend string // appending output redirect

	// Shortcuts are checked in order against the start of the line; the
	// first match wins. Put longer sigils before their prefixes.
	Shortcuts []Shortcut
}

// DefaultConfig returns the stock line syntax: ";" terminator, "#"
// comments, "|" pipes, ">" and ">>" redirects, and the usual shortcut
// sigils.
func DefaultConfig() Config {
	return Config{
		Terminators:    []string{";"},
		CommentMarker:  "#",
		Pipe:           "|",
		RedirectOutput: ">",
		RedirectAppend: ">>",
		Shortcuts: []Shortcut{
			{Sigil: "?", Target: "help"},
			{Sigil: "!", Target: "shell"},
			{Sigil: "@", Target: "run_script"},
		},
	}
}

// WithDefaults returns the config with zero fields filled from
// DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if len(c.Terminators) == 0 {
		c.Terminators = def.Terminators
	}
	if c.CommentMarker == "" {
		c.CommentMarker = def.CommentMarker
	}
	if c.Pipe == "" {
		c.Pipe = def.Pipe
	}
	if c.RedirectOutput == "" {
		c.RedirectOutput = def.RedirectOutput
	}
	if c.RedirectAppend == "" {
		c.RedirectAppend = def.RedirectAppend
	}
	return c
}

// IsTerminator reports whether s is one of the configured terminators.
func (c Config) IsTerminator(s string) bool {
	for _, t := range c.Terminators {
		if s == t {
			return true
		}
	}
	return false
}

// Terminator returns the canonical terminator string.
func (c Config) Terminator() string {
	if len(c.Terminators) == 0 {
		return ";"
	}
	return c.Terminators[0]
}

// operators returns the pipe and redirect operators, longest first so that
// ">>" is matched before ">".
func (c Config) operators() [3]string {
	return [3]string{c.RedirectAppend, c.RedirectOutput, c.Pipe}
}

// IsClauseMarker reports whether s is the pipe or one of the redirect
// operators.
func (c Config) IsClauseMarker(s string) bool {
	switch s {
	case c.Pipe, c.RedirectOutput, c.RedirectAppend:
		return true
	}
	return false
}

// needsQuotes reports whether s cannot survive re-tokenization bare: it
// contains whitespace, a quote character, or one of the configured
// operators or terminators.
func (c Config) needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	if strings.ContainsFunc(s, unicode.IsSpace) {
		return true
	}
	if strings.ContainsAny(s, `'"`) {
		return true
	}
	for _, t := range c.Terminators {
		if t != "" && strings.Contains(s, t) {
			return true
		}
	}
	for _, op := range c.operators() {
		if op != "" && strings.Contains(s, op) {
			return true
		}
	}
	return false
}

// QuoteIfNeeded wraps s in quotes when it would not survive
// re-tokenization bare, choosing a quote character the text does not
// contain. Text containing both quote characters cannot be quoted safely
// without an escape character and is returned double-quoted as a best
// effort.
func (c Config) QuoteIfNeeded(s string) string {
	if !c.needsQuotes(s) {
		return s
	}
	if !strings.ContainsRune(s, doubleQuote) {
		return `"` + s + `"`
	}
	if !strings.ContainsRune(s, singleQuote) {
		return "'" + s + "'"
	}
	return `"` + s + `"`
}

// Requote renders a token back to command-line text, preserving the
// original quote character where one was recorded.
func (c Config) Requote(t Token) string {
	if !t.Quoted {
		return c.QuoteIfNeeded(t.Text)
	}
	q := t.Quote
	if q == 0 {
		q = doubleQuote
	}
	if !strings.ContainsRune(t.Text, q) {
		return string(q) + t.Text + string(q)
	}
	alt := rune(singleQuote)
	if q == singleQuote {
		alt = doubleQuote
	}
	if !strings.ContainsRune(t.Text, alt) {
		return string(alt) + t.Text + string(alt)
	}
	return string(q) + t.Text + string(q)
}
