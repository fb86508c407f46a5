package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conch-sh/conch/pkg/alias"
	"github.com/conch-sh/conch/pkg/grammar"
)

func noop(*Context) error { return nil }

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Command{
		Name:    "speak",
		Help:    "say something",
		Grammar: grammar.MustNew(grammar.Spec{}),
		Handler: noop,
	}))

	cmd, ok := r.Lookup("speak")
	require.True(t, ok)
	assert.Equal(t, "say something", cmd.Help)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestRegisterConflicts(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Command{Name: "speak", Handler: noop}))

	err := r.Register(Command{Name: "speak", Handler: noop})
	assert.ErrorIs(t, err, alias.ErrNameConflict)

	// A name held by the alias table is equally off limits.
	tbl := alias.NewTable(r.Has)
	require.NoError(t, tbl.SetAlias("s", "speak"))
	r.SetReserved(tbl.Has)
	err = r.Register(Command{Name: "s", Handler: noop})
	assert.ErrorIs(t, err, alias.ErrNameConflict)

	// And the other direction: commands reserve alias names.
	err = tbl.SetAlias("speak", "history")
	assert.ErrorIs(t, err, alias.ErrNameConflict)
}

func TestRegisterValidation(t *testing.T) {
	r := New()
	assert.Error(t, r.Register(Command{Handler: noop}), "missing name")
	assert.Error(t, r.Register(Command{Name: "x"}), "missing handler")
}

func TestNamesHideHidden(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Command{Name: "visible", Handler: noop}))
	require.NoError(t, r.Register(Command{Name: "secret", Hidden: true, Handler: noop}))

	assert.Equal(t, []string{"visible"}, r.Names())
	assert.True(t, r.Has("secret"), "hidden commands still reserve their name")

	cands := r.Commands()
	require.Len(t, cands, 1)
	assert.Equal(t, "visible", cands[0].Text)
}

func TestCategories(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Command{Name: "speak", Category: "demo", Handler: noop}))
	require.NoError(t, r.Register(Command{Name: "orate", Category: "demo", Handler: noop}))
	require.NoError(t, r.Register(Command{Name: "help", Handler: noop}))

	assert.Equal(t, []string{"", "demo"}, r.Categories())

	demo := r.ByCategory("demo")
	require.Len(t, demo, 2)
	assert.Equal(t, "orate", demo[0].Name)
	assert.Equal(t, "speak", demo[1].Name)
}

func TestSuggest(t *testing.T) {
	r := New()
	for _, name := range []string{"help", "history", "shell", "speak"} {
		require.NoError(t, r.Register(Command{Name: name, Handler: noop}))
	}

	got := r.Suggest("hel")
	require.NotEmpty(t, got)
	assert.Equal(t, "help", got[0])

	assert.Empty(t, r.Suggest("zzz"))
}

func TestMultilineLookup(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Command{Name: "edit", Multiline: true, Handler: noop}))
	require.NoError(t, r.Register(Command{Name: "speak", Handler: noop}))

	lookup := r.MultilineLookup()
	assert.True(t, lookup("edit"))
	assert.False(t, lookup("speak"))
	assert.False(t, lookup("missing"))
}

func TestGrammarLookup(t *testing.T) {
	g := grammar.MustNew(grammar.Spec{})
	r := New()
	require.NoError(t, r.Register(Command{Name: "speak", Grammar: g, Handler: noop}))
	require.NoError(t, r.Register(Command{Name: "bare", Handler: noop}))

	got, ok := r.Grammar("speak")
	require.True(t, ok)
	assert.Same(t, g, got)

	_, ok = r.Grammar("bare")
	assert.False(t, ok)
}
