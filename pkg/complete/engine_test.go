package complete

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/conch-sh/conch/pkg/grammar"
	"github.com/conch-sh/conch/pkg/parsing"
)

type testSource map[string]*grammar.Command

func (s testSource) Grammar(command string) (*grammar.Command, bool) {
	g, ok := s[command]
	return g, ok
}

func (s testSource) Commands() []Candidate {
	return []Candidate{
		{Text: "files", Desc: "run with trailing args"},
		{Text: "math", Desc: "numeric demo"},
		{Text: "nat", Desc: "natural sort demo"},
		{Text: "speak", Desc: "say something"},
		{Text: "task", Desc: "manage tasks"},
	}
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	styles := func(prefix string) ([]string, error) {
		return []string{"bold", "italic"}, nil
	}
	words := func(prefix string) ([]string, error) {
		return []string{"hello", "hi"}, nil
	}
	rest := func(prefix string) ([]string, error) {
		return []string{"--cool", "alpha"}, nil
	}

	src := testSource{
		"speak": grammar.MustNew(grammar.Spec{
			Flags: []grammar.Flag{
				{Names: []string{"-c", "--count"}, Arity: grammar.Exactly(1), Choices: []string{"1", "2", "3"}, Help: "how many times"},
				{Names: []string{"--shout"}, Help: "uppercase the words"},
				{Names: []string{"--style"}, Arity: grammar.Exactly(1), Completer: styles, Help: "presentation style"},
				{Names: []string{"-v", "--verbose"}, Repeatable: true, Help: "more detail"},
			},
			Positionals: []grammar.Positional{
				{Name: "words", Arity: grammar.AtLeast(0), Completer: words, Help: "what to say"},
			},
		}),
		"task": grammar.MustNew(grammar.Spec{
			Subcommands: map[string]grammar.Spec{
				"add": {
					Help:  "add a task",
					Flags: []grammar.Flag{{Names: []string{"--due"}, Arity: grammar.Exactly(1), Help: "due date"}},
					Positionals: []grammar.Positional{
						{Name: "title", Help: "task title"},
					},
				},
				"done": {
					Help:        "mark a task done",
					Positionals: []grammar.Positional{{Name: "id", Choices: []string{"1", "2"}}},
				},
				"list": {Help: "list tasks"},
			},
		}),
		"files": grammar.MustNew(grammar.Spec{
			Flags: []grammar.Flag{{Names: []string{"--count"}, Help: "count lines"}},
			Positionals: []grammar.Positional{
				{Name: "cmd", Help: "command to run"},
				{Name: "rest", Remainder: true, Completer: rest, Help: "arguments"},
			},
		}),
		"math": grammar.MustNew(grammar.Spec{
			NumericArgs: true,
			Flags:       []grammar.Flag{{Names: []string{"-n"}, Arity: grammar.Exactly(1)}},
			Positionals: []grammar.Positional{
				{Name: "vals", Arity: grammar.AtLeast(0), Choices: []string{"-20", "-25", "10"}},
			},
		}),
		"nat": grammar.MustNew(grammar.Spec{
			NaturalSort: true,
			Positionals: []grammar.Positional{
				{Name: "file", Choices: []string{"file10", "file2", "file1"}},
			},
		}),
	}
	parser := parsing.NewParser(parsing.DefaultConfig(), nil)
	return NewEngine(parser, src, slog.Default())
}

func texts(cands []Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Text
	}
	return out
}

func TestCompleteCommands(t *testing.T) {
	e := testEngine(t)

	res := e.Complete("", 0)
	want := []string{"files", "math", "nat", "speak", "task"}
	if diff := cmp.Diff(want, texts(res.Candidates)); diff != "" {
		t.Errorf("empty line candidates (-want +got):\n%s", diff)
	}

	res = e.Complete("sp", 2)
	if diff := cmp.Diff([]string{"speak"}, texts(res.Candidates)); diff != "" {
		t.Errorf("command prefix (-want +got):\n%s", diff)
	}
	if !res.AppendSpace {
		t.Error("single command match should append a space")
	}
	if res.Partial != "sp" {
		t.Errorf("Partial = %q, want sp", res.Partial)
	}
}

func TestCompleteFlags(t *testing.T) {
	e := testEngine(t)
	tests := []struct {
		name string
		line string
		want []string
	}{
		{
			name: "all long flags",
			line: "speak --",
			want: []string{"--count", "--shout", "--style", "--verbose"},
		},
		{
			name: "lone dash is a positional",
			line: "speak -",
			// no flag names offered; the word completer has no match
			// starting with "-" so nothing is suggested
			want: nil,
		},
		{
			name: "flag value choices",
			line: "speak --count ",
			want: []string{"1", "2", "3"},
		},
		{
			name: "flag value choices short name",
			line: "speak -c ",
			want: []string{"1", "2", "3"},
		},
		{
			name: "used single-value flag drops out",
			line: "speak --count 1 --",
			want: []string{"--shout", "--style", "--verbose"},
		},
		{
			name: "repeatable flag stays",
			line: "speak -v --shout -v --",
			want: []string{"--count", "--style", "--verbose"},
		},
		{
			name: "flag value from completer",
			line: "speak --style ",
			want: []string{"bold", "italic"},
		},
		{
			name: "no flags after double dash",
			line: "speak -- --c",
			want: nil,
		},
		{
			name: "positional after double dash",
			line: "speak -- h",
			want: []string{"hello", "hi"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Complete(tt.line, len(tt.line))
			if diff := cmp.Diff(tt.want, texts(res.Candidates)); diff != "" {
				t.Errorf("Complete(%q) (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

func TestCompleteFlagValueHeader(t *testing.T) {
	e := testEngine(t)
	res := e.Complete("speak --count ", 14)
	if res.Header != "-c  how many times" {
		t.Errorf("Header = %q", res.Header)
	}
}

func TestCompleteSubcommands(t *testing.T) {
	e := testEngine(t)
	tests := []struct {
		line string
		want []string
	}{
		{"task ", []string{"add", "done", "list"}},
		{"task a", []string{"add"}},
		{"task add --", []string{"--due"}},
		{"task done ", []string{"1", "2"}},
		{"task frobnicate ", nil},
	}
	for _, tt := range tests {
		res := e.Complete(tt.line, len(tt.line))
		if diff := cmp.Diff(tt.want, texts(res.Candidates)); diff != "" {
			t.Errorf("Complete(%q) (-want +got):\n%s", tt.line, diff)
		}
	}

	// Subcommand candidates carry the nested grammar's help text.
	res := e.Complete("task a", 6)
	if len(res.Candidates) != 1 || res.Candidates[0].Desc != "add a task" {
		t.Errorf("subcommand desc = %+v", res.Candidates)
	}
}

func TestCompleteRemainder(t *testing.T) {
	e := testEngine(t)

	// Once the remainder slot has begun, flag-like tokens complete from
	// the slot's completer, never from the flag set.
	res := e.Complete("files ls x --c", 14)
	if diff := cmp.Diff([]string{"--cool"}, texts(res.Candidates)); diff != "" {
		t.Errorf("remainder completion (-want +got):\n%s", diff)
	}

	// Before the remainder begins, flags are still live.
	res = e.Complete("files ls --c", 12)
	if diff := cmp.Diff([]string{"--count"}, texts(res.Candidates)); diff != "" {
		t.Errorf("pre-remainder completion (-want +got):\n%s", diff)
	}
}

func TestCompleteNumericHeuristic(t *testing.T) {
	e := testEngine(t)
	res := e.Complete("math -2", 7)
	if diff := cmp.Diff([]string{"-20", "-25"}, texts(res.Candidates)); diff != "" {
		t.Errorf("numeric token completion (-want +got):\n%s", diff)
	}
}

func TestCompleteStopsAtClause(t *testing.T) {
	e := testEngine(t)
	for _, line := range []string{
		"speak hi | gr",
		"speak hi > fi",
		"speak hi ; ta",
	} {
		res := e.Complete(line, len(line))
		if len(res.Candidates) != 0 {
			t.Errorf("Complete(%q) = %v, want none", line, texts(res.Candidates))
		}
	}
}

func TestCompleteQuotedToken(t *testing.T) {
	e := testEngine(t)
	res := e.Complete(`speak "he`, 9)
	if diff := cmp.Diff([]string{"hello"}, texts(res.Candidates)); diff != "" {
		t.Errorf("quoted completion (-want +got):\n%s", diff)
	}
	if res.CloseQuote != '"' {
		t.Errorf("CloseQuote = %q, want double quote", res.CloseQuote)
	}
	if !res.AppendSpace {
		t.Error("single match should append a space")
	}
	if res.Partial != "he" {
		t.Errorf("Partial = %q, want he", res.Partial)
	}
}

func TestCompleteSortOrder(t *testing.T) {
	e := testEngine(t)

	res := e.Complete("nat f", 5)
	if diff := cmp.Diff([]string{"file1", "file2", "file10"}, texts(res.Candidates)); diff != "" {
		t.Errorf("natural order (-want +got):\n%s", diff)
	}

	res = e.CompleteWith("nat f", 5, Options{Sort: SortLexical})
	if diff := cmp.Diff([]string{"file1", "file10", "file2"}, texts(res.Candidates)); diff != "" {
		t.Errorf("lexical override (-want +got):\n%s", diff)
	}
}

func TestCompleteCallbackFailure(t *testing.T) {
	src := testSource{
		"bad": grammar.MustNew(grammar.Spec{
			Positionals: []grammar.Positional{
				{Name: "x", Completer: func(prefix string) ([]string, error) {
					return nil, errors.New("backend down")
				}},
			},
		}),
		"panicky": grammar.MustNew(grammar.Spec{
			Positionals: []grammar.Positional{
				{Name: "x", Completer: func(prefix string) ([]string, error) {
					panic("boom")
				}},
			},
		}),
	}
	parser := parsing.NewParser(parsing.DefaultConfig(), nil)
	e := NewEngine(parser, src, nil)

	for _, line := range []string{"bad ", "panicky "} {
		res := e.Complete(line, len(line))
		if len(res.Candidates) != 0 {
			t.Errorf("Complete(%q) = %v, want degraded empty", line, texts(res.Candidates))
		}
	}
}

func TestCompleteNoSpaceForDirectories(t *testing.T) {
	src := testSource{
		"cat": grammar.MustNew(grammar.Spec{
			Positionals: []grammar.Positional{
				{Name: "path", Completer: func(prefix string) ([]string, error) {
					return []string{"docs/"}, nil
				}},
			},
		}),
	}
	parser := parsing.NewParser(parsing.DefaultConfig(), nil)
	e := NewEngine(parser, src, nil)

	res := e.Complete("cat d", 5)
	if len(res.Candidates) != 1 || !res.Candidates[0].NoSpace {
		t.Fatalf("candidates = %+v, want one NoSpace entry", res.Candidates)
	}
	if res.AppendSpace {
		t.Error("AppendSpace should be false for a directory suggestion")
	}
}

func TestCompleteDedup(t *testing.T) {
	src := testSource{
		"dup": grammar.MustNew(grammar.Spec{
			Positionals: []grammar.Positional{
				{Name: "x", Completer: func(prefix string) ([]string, error) {
					return []string{"a", "a", "b"}, nil
				}},
			},
		}),
	}
	parser := parsing.NewParser(parsing.DefaultConfig(), nil)
	e := NewEngine(parser, src, nil)

	res := e.Complete("dup ", 4)
	if diff := cmp.Diff([]string{"a", "b"}, texts(res.Candidates)); diff != "" {
		t.Errorf("dedup (-want +got):\n%s", diff)
	}
}
