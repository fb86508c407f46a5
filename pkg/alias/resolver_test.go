package alias

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conch-sh/conch/pkg/parsing"
)

func testResolver(t *testing.T, define func(*Table)) *Resolver {
	t.Helper()
	parser := parsing.NewParser(parsing.DefaultConfig(), nil)
	tbl := NewTable(nil)
	define(tbl)
	return NewResolver(parser, tbl, 0)
}

func resolveLine(t *testing.T, r *Resolver, line string) (parsing.Statement, error) {
	t.Helper()
	parser := parsing.NewParser(parsing.DefaultConfig(), nil)
	st, err := parser.Parse(line)
	require.NoError(t, err)
	return r.Resolve(st)
}

func TestResolveAlias(t *testing.T) {
	r := testResolver(t, func(tbl *Table) {
		require.NoError(t, tbl.SetAlias("a", "foo bar"))
	})

	st, err := resolveLine(t, r, "a baz")
	require.NoError(t, err)
	assert.Equal(t, "foo", st.Command)
	assert.Equal(t, []string{"foo", "bar", "baz"}, st.Argv())
	assert.Equal(t, "a baz", st.Raw, "raw keeps the typed line")
}

func TestResolveAliasChain(t *testing.T) {
	r := testResolver(t, func(tbl *Table) {
		require.NoError(t, tbl.SetAlias("a", "b one"))
		require.NoError(t, tbl.SetAlias("b", "c two"))
	})

	st, err := resolveLine(t, r, "a three")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "two", "one", "three"}, st.Argv())
}

func TestResolveAliasKeepsClause(t *testing.T) {
	r := testResolver(t, func(tbl *Table) {
		require.NoError(t, tbl.SetAlias("a", "foo"))
	})

	st, err := resolveLine(t, r, "a x > out.txt")
	require.NoError(t, err)
	assert.Equal(t, "foo", st.Command)
	assert.Equal(t, parsing.RedirectOverwrite, st.Output.Mode)
	assert.Equal(t, "out.txt", st.Output.Target)
}

func TestResolveCycle(t *testing.T) {
	r := testResolver(t, func(tbl *Table) {
		require.NoError(t, tbl.SetAlias("a", "b"))
		require.NoError(t, tbl.SetAlias("b", "a"))
	})

	_, err := resolveLine(t, r, "a")
	assert.ErrorIs(t, err, ErrResolutionDepth)
}

func TestResolveSelfCycle(t *testing.T) {
	r := testResolver(t, func(tbl *Table) {
		require.NoError(t, tbl.SetAlias("a", "a --more"))
	})

	_, err := resolveLine(t, r, "a")
	assert.ErrorIs(t, err, ErrResolutionDepth)
}

func TestResolveMacro(t *testing.T) {
	r := testResolver(t, func(tbl *Table) {
		require.NoError(t, tbl.SetMacro("m", "foo {0} done"))
	})

	// Extra call-site arguments are appended verbatim.
	st, err := resolveLine(t, r, "m 1 2")
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "1", "done", "2"}, st.Argv())
}

func TestResolveMacroReordered(t *testing.T) {
	r := testResolver(t, func(tbl *Table) {
		require.NoError(t, tbl.SetMacro("swap", "foo {1} {0}"))
	})

	st, err := resolveLine(t, r, "swap a b")
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "b", "a"}, st.Argv())
}

func TestResolveMacroQuotedArg(t *testing.T) {
	r := testResolver(t, func(tbl *Table) {
		require.NoError(t, tbl.SetMacro("m", "foo {0}"))
	})

	st, err := resolveLine(t, r, `m "hello there"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "hello there"}, st.Argv())
	assert.True(t, st.Args[0].Quoted)
}

func TestResolveMacroEscapedPlaceholder(t *testing.T) {
	r := testResolver(t, func(tbl *Table) {
		require.NoError(t, tbl.SetMacro("m", "foo {{0}}"))
	})

	// {{0}} becomes the literal text {0} and consumes no arguments.
	st, err := resolveLine(t, r, "m")
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "{0}"}, st.Argv())
}

func TestResolveMacroArityError(t *testing.T) {
	r := testResolver(t, func(tbl *Table) {
		require.NoError(t, tbl.SetMacro("m", "foo {0} {1}"))
	})

	_, err := resolveLine(t, r, "m onlyone")
	assert.ErrorIs(t, err, ErrMacroArity)
}

func TestResolveMacroKeepsTail(t *testing.T) {
	r := testResolver(t, func(tbl *Table) {
		require.NoError(t, tbl.SetMacro("m", "foo {0}"))
	})

	st, err := resolveLine(t, r, "m x ; | wc -l")
	require.NoError(t, err)
	assert.Equal(t, "foo", st.Command)
	assert.Equal(t, ";", st.Terminator)
	assert.Equal(t, "wc -l", st.PipeTo)
}

func TestResolveAliasToMultilineContinues(t *testing.T) {
	multiline := func(command string) bool { return command == "orate" }
	parser := parsing.NewParser(parsing.DefaultConfig(), multiline)
	tbl := NewTable(nil)
	require.NoError(t, tbl.SetAlias("o", "orate"))
	r := NewResolver(parser, tbl, 0)

	st, err := parser.Parse("o hello")
	require.NoError(t, err)
	st, err = r.Resolve(st)
	assert.ErrorIs(t, err, parsing.ErrNeedMoreInput)
	assert.True(t, st.Multiline)
	assert.Equal(t, "orate hello", st.Raw, "raw carries the expanded line for continuation")

	// With the terminator already typed the expansion resolves fully.
	st, err = parser.Parse("o hello;")
	require.NoError(t, err)
	st, err = r.Resolve(st)
	require.NoError(t, err)
	assert.Equal(t, []string{"orate", "hello"}, st.Argv())
	assert.Equal(t, ";", st.Terminator)
}

func TestResolvePlainCommandUntouched(t *testing.T) {
	r := testResolver(t, func(tbl *Table) {})

	st, err := resolveLine(t, r, "speak hi")
	require.NoError(t, err)
	assert.Equal(t, "speak", st.Command)
	assert.Equal(t, "speak hi", st.Raw)
}
