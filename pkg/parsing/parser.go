// Package parsing turns shell-like interactive input into structured
// statements: quote-aware tokens, command word, arguments, terminators,
// output redirection, and pipes. It is the lowest layer of the toolkit;
// alias resolution and completion build on it.
package parsing

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrUnterminatedQuote reports a quote that was opened and never
	// closed. For multiline commands the parser converts this into
	// ErrNeedMoreInput instead.
	ErrUnterminatedQuote = errors.New("unterminated quote")

	// ErrNeedMoreInput signals that a multiline command has not seen its
	// terminator yet. It is a continuation request, not a failure: append
	// the next physical line to the input, joined with a newline, and
	// parse again.
	ErrNeedMoreInput = errors.New("need more input")
)

// MultilineLookup reports whether the named command spans physical lines
// until an explicit terminator. A nil lookup means no command is
// multiline.
type MultilineLookup func(command string) bool

// Parser builds statements from raw input lines. It is a pure function of
// its configuration plus the multiline lookup: no state is kept between
// calls, so one Parser serves both dispatch and completion.
type Parser struct {
	cfg       Config
	multiline MultilineLookup
}

// NewParser returns a Parser for the given line syntax. Zero Config fields
// are filled with defaults.
func NewParser(cfg Config, multiline MultilineLookup) *Parser {
	return &Parser{cfg: cfg.WithDefaults(), multiline: multiline}
}

// Config returns the parser's line syntax after defaulting.
func (p *Parser) Config() Config {
	return p.cfg
}

func (p *Parser) isMultiline(command string) bool {
	return p.multiline != nil && p.multiline(command)
}

// Parse turns one input line, or a multiline block joined with newlines,
// into a Statement.
//
// Empty input and comment lines return an empty Statement and no error. A
// multiline command with no terminator returns the partial Statement and
// ErrNeedMoreInput; an unterminated quote does the same for multiline
// commands and returns ErrUnterminatedQuote otherwise. A trailing newline
// on the input acts as the terminator for a multiline command, which is
// how a blank continuation line ends the block.
func (p *Parser) Parse(line string) (Statement, error) {
	st := Statement{Raw: line, cfg: p.cfg}

	newlineTerminated := strings.HasSuffix(line, "\n")

	src := strings.TrimSpace(line)
	src = p.expandShortcuts(src)
	if src == "" || strings.HasPrefix(src, p.cfg.CommentMarker) {
		return st, nil
	}

	tokens, err := Tokenize(src)
	if err != nil {
		if len(tokens) > 0 && p.isMultiline(tokens[0].Text) {
			st.Command = tokens[0].Text
			st.Multiline = true
			return st, ErrNeedMoreInput
		}
		return st, err
	}
	tokens = p.splitPunctuation(tokens)
	if len(tokens) == 0 {
		return st, nil
	}

	multiline := p.isMultiline(tokens[0].Text)

	// Find whichever comes first in text order: a terminator, or a pipe
	// or redirect marker. For multiline commands markers are only live
	// after the terminator; before it they are body text.
	termPos, markerPos := -1, -1
	for i, tok := range tokens {
		if tok.Quoted {
			continue
		}
		if p.cfg.IsTerminator(tok.Text) {
			termPos = i
			break
		}
		if !multiline && p.isMarker(tok.Text) {
			markerPos = i
			break
		}
	}

	head := tokens
	switch {
	case termPos >= 0:
		st.Terminator = tokens[termPos].Text
		head = tokens[:termPos]
		rest := tokens[termPos+1:]

		// Within the remainder, the first marker starts a clause and
		// anything before it is the suffix.
		restMarker := -1
		for i, tok := range rest {
			if !tok.Quoted && p.isMarker(tok.Text) {
				restMarker = i
				break
			}
		}
		switch {
		case restMarker >= 0:
			st.Suffix = strings.TrimSpace(src[tokens[termPos].End:rest[restMarker].Start])
			p.bindClause(&st, rest[restMarker], src)
		case len(rest) > 0:
			st.Suffix = strings.TrimSpace(src[tokens[termPos].End:])
		}
	case markerPos >= 0:
		head = tokens[:markerPos]
		p.bindClause(&st, tokens[markerPos], src)
	}

	if len(head) > 0 {
		st.Command = head[0].Text
		st.Args = head[1:]
		st.Multiline = multiline
	}

	if st.Multiline && st.Terminator == "" {
		if !newlineTerminated {
			return st, ErrNeedMoreInput
		}
		st.Terminator = "\n"
	}
	return st, nil
}

func (p *Parser) isMarker(text string) bool {
	return p.cfg.IsClauseMarker(text)
}

// bindClause attaches the pipe or redirect clause introduced by marker.
// The operand is the raw remainder of the line after the marker: a later
// marker of the other kind is literal text inside it.
func (p *Parser) bindClause(st *Statement, marker Token, src string) {
	operand := strings.TrimSpace(src[marker.End:])
	switch marker.Text {
	case p.cfg.Pipe:
		st.PipeTo = operand
	case p.cfg.RedirectAppend:
		st.Output = Redirect{Mode: RedirectAppend, Target: operand}
	case p.cfg.RedirectOutput:
		st.Output = Redirect{Mode: RedirectOverwrite, Target: operand}
	}
}

// expandShortcuts rewrites a leading shortcut sigil into its command word.
func (p *Parser) expandShortcuts(src string) string {
	for _, sc := range p.cfg.Shortcuts {
		if sc.Sigil == "" || !strings.HasPrefix(src, sc.Sigil) {
			continue
		}
		return sc.Target + " " + strings.TrimLeft(src[len(sc.Sigil):], " \t")
	}
	return src
}

// splitPunctuation splits unquoted tokens on terminators and on the pipe
// and redirect operators glued to surrounding text, so "foo;" and
// "out>file" classify the same as their spaced forms. Quoted tokens are
// never split. Byte offsets are preserved for operand slicing.
func (p *Parser) splitPunctuation(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Quoted || len(tok.Text) <= 1 {
			out = append(out, tok)
			continue
		}
		start := 0
		i := 0
		for i < len(tok.Text) {
			op := p.operatorAt(tok.Text, i)
			if op == "" {
				i++
				continue
			}
			if i > start {
				out = append(out, Token{
					Text:  tok.Text[start:i],
					Start: tok.Start + start,
					End:   tok.Start + i,
				})
			}
			out = append(out, Token{
				Text:  op,
				Start: tok.Start + i,
				End:   tok.Start + i + len(op),
			})
			i += len(op)
			start = i
		}
		if start == 0 {
			out = append(out, tok)
		} else if start < len(tok.Text) {
			out = append(out, Token{
				Text:  tok.Text[start:],
				Start: tok.Start + start,
				End:   tok.End,
			})
		}
	}
	return out
}

// operatorAt returns the longest terminator or redirection operator
// starting at text[i], or "". Operators are ASCII, so a byte-wise scan
// cannot split a multibyte rune.
func (p *Parser) operatorAt(text string, i int) string {
	best := ""
	for _, t := range p.cfg.Terminators {
		if t != "" && t != "\n" && strings.HasPrefix(text[i:], t) && len(t) > len(best) {
			best = t
		}
	}
	for _, op := range p.cfg.operators() {
		if op != "" && strings.HasPrefix(text[i:], op) && len(op) > len(best) {
			best = op
		}
	}
	return best
}

// CompletionTokens splits a partial line for the completion engine. Unlike
// Parse, an unterminated quote is not an error: the open token is still
// being typed and stays last in the result. A line ending in whitespace
// gets one empty token appended, marking that a new word is being started
// at the cursor. Comment lines return nil.
func (p *Parser) CompletionTokens(line string) []Token {
	src := strings.TrimLeftFunc(line, unicode.IsSpace)
	src = p.expandShortcuts(src)
	if src != "" && strings.HasPrefix(src, p.cfg.CommentMarker) {
		return nil
	}

	tokens, err := Tokenize(src)
	tokens = p.splitPunctuation(tokens)
	if err == nil {
		last, _ := utf8.DecodeLastRuneInString(src)
		if len(tokens) == 0 || unicode.IsSpace(last) {
			tokens = append(tokens, Token{Start: len(src), End: len(src)})
		}
	}
	return tokens
}
