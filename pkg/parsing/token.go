package parsing

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Quote characters recognized by the tokenizer.
const (
	singleQuote = '\''
	doubleQuote = '"'
)

func isQuoteRune(r rune) bool {
	return r == singleQuote || r == doubleQuote
}

// Token is one word of a command line with surrounding quotes removed.
type Token struct {
	Text   string // token text, quotes stripped
	Quoted bool   // the token was quoted in the input
	Quote  rune   // quote character used, 0 for unquoted tokens
	Start  int    // byte offset of the token's first character
	End    int    // byte offset one past the token's last character
}

func (t Token) String() string {
	if t.Quoted {
		return fmt.Sprintf("%c%s%c", t.Quote, t.Text, t.Quote)
	}
	return t.Text
}

// Tokenize splits line into whitespace-separated tokens. Any Unicode
// whitespace separates tokens outside quotes. A single or double quote at
// the start of a token groups everything up to the matching quote into one
// token; the other quote character is literal inside it. There is no
// escape character.
//
// If a quote is opened and never closed, the tokens scanned so far are
// returned with the unterminated token last, together with
// ErrUnterminatedQuote. Callers that treat the input as still being typed
// (multiline continuation, tab completion) can keep going from the partial
// result.
func Tokenize(line string) ([]Token, error) {
	var tokens []Token
	i := 0
	for i < len(line) {
		r, size := utf8.DecodeRuneInString(line[i:])
		if unicode.IsSpace(r) {
			i += size
			continue
		}
		if isQuoteRune(r) {
			tok, next, closed := scanQuoted(line, i, byte(r))
			tokens = append(tokens, tok)
			if !closed {
				return tokens, fmt.Errorf("%w: missing closing %c", ErrUnterminatedQuote, r)
			}
			i = next
			continue
		}
		tok, next := scanWord(line, i)
		tokens = append(tokens, tok)
		i = next
	}
	return tokens, nil
}

// scanQuoted reads a quoted token starting at the opening quote. Quote
// characters are ASCII so the scan is byte-wise.
func scanQuoted(line string, start int, q byte) (Token, int, bool) {
	for i := start + 1; i < len(line); i++ {
		if line[i] == q {
			tok := Token{
				Text:   line[start+1 : i],
				Quoted: true,
				Quote:  rune(q),
				Start:  start,
				End:    i + 1,
			}
			return tok, i + 1, true
		}
	}
	tok := Token{
		Text:   line[start+1:],
		Quoted: true,
		Quote:  rune(q),
		Start:  start,
		End:    len(line),
	}
	return tok, len(line), false
}

// scanWord reads an unquoted token. A quote character inside a word is
// literal; quotes only group when they begin a token.
func scanWord(line string, start int) (Token, int) {
	i := start
	for i < len(line) {
		r, size := utf8.DecodeRuneInString(line[i:])
		if unicode.IsSpace(r) {
			break
		}
		i += size
	}
	return Token{Text: line[start:i], Start: start, End: i}, i
}
