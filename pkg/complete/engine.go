// Package complete computes tab-completion suggestions by walking a
// command's argument grammar alongside the tokens typed so far. The
// engine is synchronous pure computation over read-only grammar data,
// so one engine serves every keystroke of a line editor and grammars
// can be shared across concurrent requests.
package complete

import (
	"log/slog"
	"strings"

	"github.com/conch-sh/conch/pkg/grammar"
	"github.com/conch-sh/conch/pkg/parsing"
)

// Candidate is one suggestion with an optional description for help
// listings. NoSpace marks suggestions that expect more input, such as a
// directory path, so the line editor does not append a trailing space.
type Candidate struct {
	Text    string
	Desc    string
	NoSpace bool
}

// Result is the answer to one completion request.
type Result struct {
	// Partial is the text of the token being completed; candidates all
	// share it as a prefix. The line editor replaces it with the chosen
	// candidate.
	Partial string

	// Candidates are deduplicated and ordered.
	Candidates []Candidate

	// Header is hint text to show above the suggestions, typically the
	// name and help of the slot being filled.
	Header string

	// AppendSpace is set when exactly one candidate remains and it does
	// not expect further input.
	AppendSpace bool

	// CloseQuote is the quote character to append when the token being
	// completed was opened with a quote, 0 otherwise.
	CloseQuote rune
}

// Source supplies the registered commands and their grammars.
type Source interface {
	// Grammar returns the argument grammar for a command word.
	Grammar(command string) (*grammar.Command, bool)

	// Commands lists the completable command words with descriptions.
	Commands() []Candidate
}

// SortKey selects the ordering of completion results.
type SortKey int

const (
	// SortDefault uses the grammar's declared ordering: natural when the
	// grammar opts in, case-insensitive lexical otherwise.
	SortDefault SortKey = iota
	SortLexical
	SortNatural
	// SortNone asserts the candidates are already ordered.
	SortNone
)

// Options tune one completion request.
type Options struct {
	Sort SortKey
}

// Engine walks grammars to answer completion requests.
type Engine struct {
	parser *parsing.Parser
	src    Source
	log    *slog.Logger
}

// NewEngine returns an Engine over the given parser and command source.
// A nil logger falls back to slog.Default.
func NewEngine(parser *parsing.Parser, src Source, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{parser: parser, src: src, log: log}
}

// Complete suggests completions for the token at the cursor using the
// grammar's default ordering.
func (e *Engine) Complete(line string, cursor int) Result {
	return e.CompleteWith(line, cursor, Options{})
}

// CompleteWith is Complete with explicit options. cursor is a byte
// offset into line; text after it is ignored.
func (e *Engine) CompleteWith(line string, cursor int, opts Options) Result {
	if cursor < 0 || cursor > len(line) {
		cursor = len(line)
	}
	tokens := e.parser.CompletionTokens(line[:cursor])
	if len(tokens) == 0 {
		return Result{}
	}

	cur := tokens[len(tokens)-1]
	res := Result{Partial: cur.Text}
	if cur.Quoted {
		res.CloseQuote = cur.Quote
	}

	if len(tokens) == 1 {
		res.Candidates = filterCandidates(e.src.Commands(), cur.Text)
		return finish(res, nil, opts)
	}

	// Past a terminator, pipe, or redirect the rest of the line is an
	// opaque operand; the grammar has nothing to offer there.
	cfg := e.parser.Config()
	for _, tok := range tokens[:len(tokens)-1] {
		if !tok.Quoted && (cfg.IsTerminator(tok.Text) || cfg.IsClauseMarker(tok.Text)) {
			return res
		}
	}

	g, ok := e.src.Grammar(tokens[0].Text)
	if !ok || g == nil {
		return res
	}

	w := newWalker(g)
	for _, tok := range tokens[1 : len(tokens)-1] {
		w.consume(tok)
	}
	res.Candidates, res.Header = w.suggest(e, cur)
	return finish(res, g, opts)
}

// finish dedupes, sorts, and fills the single-match flags.
func finish(res Result, g *grammar.Command, opts Options) Result {
	seen := make(map[string]bool, len(res.Candidates))
	out := res.Candidates[:0]
	for _, c := range res.Candidates {
		if seen[c.Text] {
			continue
		}
		seen[c.Text] = true
		if strings.HasSuffix(c.Text, "/") {
			c.NoSpace = true
		}
		out = append(out, c)
	}
	res.Candidates = out

	key := opts.Sort
	if key == SortDefault {
		key = SortLexical
		if g != nil && g.NaturalSort() {
			key = SortNatural
		}
	}
	sortCandidates(res.Candidates, key)

	if len(res.Candidates) == 1 && !res.Candidates[0].NoSpace {
		res.AppendSpace = true
	}
	return res
}

func filterCandidates(cands []Candidate, prefix string) []Candidate {
	var out []Candidate
	for _, c := range cands {
		if strings.HasPrefix(c.Text, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// safeComplete invokes a user-declared completer, converting errors and
// panics into "no suggestions" so a bad callback never aborts the
// completion request.
func (e *Engine) safeComplete(fn grammar.CompleterFunc, slot, prefix string) (vals []string) {
	if fn == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("completion callback panicked", "slot", slot, "panic", r)
			vals = nil
		}
	}()
	vals, err := fn(prefix)
	if err != nil {
		e.log.Warn("completion callback failed", "slot", slot, "error", err)
		return nil
	}
	return vals
}

// walker carries the classification state across already-typed tokens:
// the current grammar node, positional progress, the flag currently
// consuming values, the end-of-flags marker, and any remainder slot.
type walker struct {
	node      *grammar.Command
	posIndex  int
	posCount  int
	flag      *grammar.Flag
	flagCount int
	used      map[string]bool
	sawDashes bool
	lost      bool // unknown subcommand word; grammar can no longer help

	remainder    bool
	remCompleter grammar.CompleterFunc
	remName      string
	remHelp      string
}

func newWalker(g *grammar.Command) *walker {
	return &walker{node: g, used: make(map[string]bool)}
}

func (w *walker) consume(tok parsing.Token) {
	if w.remainder || w.lost {
		return
	}
	text := tok.Text
	flagLike := !w.sawDashes && w.node.FlagLike(text, tok.Quoted)

	if w.flag != nil {
		a := w.flag.Arity
		if flagLike && w.flagCount >= a.Min {
			w.flag, w.flagCount = nil, 0
		} else {
			w.flagCount++
			if !a.Unbounded() && w.flagCount >= a.Max {
				w.flag, w.flagCount = nil, 0
			}
			return
		}
	}

	if !tok.Quoted && !w.sawDashes && text == w.node.DoubleDash() {
		w.sawDashes = true
		return
	}

	if flagLike {
		f, ok := w.node.Flag(text)
		if !ok {
			return
		}
		if !f.Repeatable {
			w.used[f.Names[0]] = true
		}
		switch {
		case f.Remainder:
			w.enterRemainder(f.Completer, f.Names[0], f.Help)
		case f.Arity.TakesValue():
			w.flag, w.flagCount = f, 0
		}
		return
	}

	if w.node.HasSubcommands() {
		if sub, ok := w.node.Subcommand(text); ok && !tok.Quoted {
			w.descend(sub)
		} else {
			w.lost = true
		}
		return
	}

	pos := w.node.Positionals()
	if w.posIndex >= len(pos) {
		return
	}
	p := &pos[w.posIndex]
	if p.Remainder {
		w.enterRemainder(p.Completer, p.Name, p.Help)
		return
	}
	w.posCount++
	if !p.Arity.Unbounded() && w.posCount >= p.Arity.Max {
		w.posIndex, w.posCount = w.posIndex+1, 0
	}
}

func (w *walker) descend(sub *grammar.Command) {
	w.node = sub
	w.posIndex, w.posCount = 0, 0
	w.flag, w.flagCount = nil, 0
	w.used = make(map[string]bool)
}

func (w *walker) enterRemainder(fn grammar.CompleterFunc, name, help string) {
	w.remainder = true
	w.remCompleter = fn
	w.remName, w.remHelp = name, help
}

// suggest classifies the cursor token and generates its candidates.
func (w *walker) suggest(e *Engine, cur parsing.Token) ([]Candidate, string) {
	if w.lost {
		return nil, ""
	}
	text := cur.Text
	flagLike := !w.sawDashes && w.node.FlagLike(text, cur.Quoted)

	if w.remainder {
		return slotCandidates(e, nil, w.remCompleter, w.remName, w.remHelp, text)
	}

	// A flag mid-consumption owns the cursor unless its minimum is met
	// and the cursor looks like another flag.
	if w.flag != nil && !(flagLike && w.flagCount >= w.flag.Arity.Min) {
		return slotCandidates(e, w.flag.Choices, w.flag.Completer, w.flag.Names[0], w.flag.Help, text)
	}

	if flagLike {
		var cands []Candidate
		for _, f := range w.node.Flags() {
			if w.used[f.Names[0]] {
				continue
			}
			for _, name := range f.Names {
				if strings.HasPrefix(name, text) {
					cands = append(cands, Candidate{Text: name, Desc: f.Help})
				}
			}
		}
		return cands, ""
	}

	if w.node.HasSubcommands() {
		var cands []Candidate
		for _, name := range w.node.SubcommandNames() {
			if strings.HasPrefix(name, text) {
				sub, _ := w.node.Subcommand(name)
				cands = append(cands, Candidate{Text: name, Desc: sub.Help()})
			}
		}
		return cands, ""
	}

	pos := w.node.Positionals()
	if w.posIndex >= len(pos) {
		return nil, ""
	}
	p := pos[w.posIndex]
	return slotCandidates(e, p.Choices, p.Completer, p.Name, p.Help, text)
}

// slotCandidates produces candidates for a value slot from its declared
// choices or completion callback, with a hint header naming the slot.
func slotCandidates(e *Engine, choices []string, fn grammar.CompleterFunc, name, help string, prefix string) ([]Candidate, string) {
	header := strings.TrimSpace(name + "  " + help)
	var cands []Candidate
	if len(choices) > 0 {
		for _, c := range choices {
			if strings.HasPrefix(c, prefix) {
				cands = append(cands, Candidate{Text: c})
			}
		}
		return cands, header
	}
	for _, c := range e.safeComplete(fn, name, prefix) {
		if strings.HasPrefix(c, prefix) {
			cands = append(cands, Candidate{Text: c})
		}
	}
	return cands, header
}
