package alias

import (
	"errors"
	"fmt"
	"strings"

	"github.com/conch-sh/conch/pkg/parsing"
)

// DefaultMaxDepth bounds chained substitutions per input line.
const DefaultMaxDepth = 10

// Resolver expands alias and macro command words, re-parsing the
// substituted line after each step until the command word is neither.
type Resolver struct {
	parser   *parsing.Parser
	table    *Table
	maxDepth int
}

// NewResolver returns a Resolver. maxDepth <= 0 selects
// DefaultMaxDepth.
func NewResolver(parser *parsing.Parser, table *Table, maxDepth int) *Resolver {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Resolver{parser: parser, table: table, maxDepth: maxDepth}
}

// Resolve rewrites st until its command word names no alias or macro.
// Each name substitutes at most once per line, with the depth cap as a
// backstop, so cycles fail with ErrResolutionDepth instead of looping.
// The returned statement keeps the original typed line in Raw, except
// when an expansion reaches a multiline command still waiting for its
// terminator: then the partial statement and parsing.ErrNeedMoreInput
// come back, with Raw holding the expanded line for continuation.
func (r *Resolver) Resolve(st parsing.Statement) (parsing.Statement, error) {
	raw := st.Raw
	seen := make(map[string]bool)
	for depth := 0; ; depth++ {
		name := st.Command
		if name == "" {
			break
		}

		var line string
		if target, ok := r.table.Alias(name); ok {
			line = joinLine(target, st.ArgLine()) + st.PostCommand()
		} else if m, ok := r.table.Macro(name); ok {
			expanded, err := r.expandMacro(m, st)
			if err != nil {
				return st, err
			}
			line = expanded
		} else {
			break
		}

		if depth >= r.maxDepth || seen[name] {
			return st, fmt.Errorf("%w: %q", ErrResolutionDepth, name)
		}
		seen[name] = true

		next, err := r.parser.Parse(line)
		if errors.Is(err, parsing.ErrNeedMoreInput) {
			// The expansion named a multiline command that has not
			// seen its terminator. Hand back the partial statement,
			// whose Raw is the expanded line, so the caller can keep
			// reading continuation lines for it.
			return next, err
		}
		if err != nil {
			return st, fmt.Errorf("expanding %q: %w", name, err)
		}
		st = next
	}
	st.Raw = raw
	return st, nil
}

// expandMacro substitutes {N} placeholders with the corresponding
// call-site argument tokens, rewrites {{N}} escapes to literal {N}, and
// appends unconsumed trailing arguments followed by the statement's
// terminator and clause tail.
func (r *Resolver) expandMacro(m Macro, st parsing.Statement) (string, error) {
	if len(st.Args) < m.MinArgs {
		return "", fmt.Errorf("%w: %q needs %d, got %d", ErrMacroArity, m.Name, m.MinArgs, len(st.Args))
	}
	cfg := r.parser.Config()

	line := placeholderPattern.ReplaceAllStringFunc(m.Target, func(match string) string {
		if strings.HasPrefix(match, "{{") {
			return match[1 : len(match)-1] // {{N}} -> {N}
		}
		var idx int
		fmt.Sscanf(match, "{%d}", &idx)
		return cfg.Requote(st.Args[idx])
	})

	extras := make([]string, 0, len(st.Args)-m.MinArgs)
	for _, tok := range st.Args[m.MinArgs:] {
		extras = append(extras, cfg.Requote(tok))
	}
	line = joinLine(line, strings.Join(extras, " "))
	return line + st.PostCommand(), nil
}

func joinLine(head, tail string) string {
	if tail == "" {
		return head
	}
	return head + " " + tail
}
