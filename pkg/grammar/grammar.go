// Package grammar describes a command's flags, positionals, and
// subcommands as immutable data. A Spec is assembled with ordinary
// struct literals, frozen into a Command by New, and from then on is
// read-only: the completion engine and any number of concurrent
// completion requests may share it without synchronization.
package grammar

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultPrefixChars introduce flag tokens unless a Spec overrides them.
const DefaultPrefixChars = "-"

// CompleterFunc produces completion candidates for a slot given the
// partial text typed so far. Errors (and panics) are reported by the
// completion engine and degrade to no suggestions.
type CompleterFunc func(prefix string) ([]string, error)

// Arity bounds how many value tokens a slot consumes. Max < 0 means
// unbounded. The zero Arity means "no value" for a flag (a plain
// switch); positionals with a zero Arity are normalized to Exactly(1)
// when the Spec is frozen.
type Arity struct {
	Min int
	Max int
}

// Exactly returns an arity consuming exactly n tokens.
func Exactly(n int) Arity { return Arity{Min: n, Max: n} }

// Optional returns an arity consuming zero or one token.
func Optional() Arity { return Arity{Min: 0, Max: 1} }

// AtLeast returns an arity consuming n or more tokens.
func AtLeast(n int) Arity { return Arity{Min: n, Max: -1} }

// Range returns an arity consuming between min and max tokens.
func Range(min, max int) Arity { return Arity{Min: min, Max: max} }

// Unbounded reports whether the arity has no upper bound.
func (a Arity) Unbounded() bool { return a.Max < 0 }

// TakesValue reports whether the slot consumes at least one token.
func (a Arity) TakesValue() bool { return a.Max != 0 }

// Flag declares one option. Names must all start with a prefix
// character and be longer than one character.
type Flag struct {
	Names      []string // e.g. {"-c", "--count"}
	Help       string
	Arity      Arity // value tokens consumed; zero value = switch
	Choices    []string
	Completer  CompleterFunc
	Remainder  bool // consume every later token verbatim
	Repeatable bool // may appear more than once; stays in suggestions
}

// Positional declares one positional slot, in declaration order.
type Positional struct {
	Name      string
	Help      string
	Arity     Arity // zero value is normalized to Exactly(1)
	Choices   []string
	Completer CompleterFunc
	Remainder bool
}

// Spec is the mutable description a grammar is built from. Freeze it
// with New; the Spec itself is not used after that.
type Spec struct {
	Help        string
	PrefixChars string // default "-"
	NumericArgs bool   // "-2" style tokens are values, not flags
	NaturalSort bool   // default completion ordering for this grammar
	Flags       []Flag
	Positionals []Positional
	Subcommands map[string]Spec
}

// Command is a frozen grammar node. All accessors are safe for
// concurrent use.
type Command struct {
	help        string
	prefixChars string
	numericArgs bool
	naturalSort bool
	flags       []Flag
	flagIndex   map[string]int
	positionals []Positional
	subs        map[string]*Command
	subNames    []string
}

// New validates and freezes a Spec. Flags must carry at least one name,
// every name must start with a prefix character and be longer than one
// character, names must be unique within the node, and a remainder
// positional must be the last positional declared.
func New(spec Spec) (*Command, error) {
	c := &Command{
		help:        spec.Help,
		prefixChars: spec.PrefixChars,
		numericArgs: spec.NumericArgs,
		naturalSort: spec.NaturalSort,
		flagIndex:   make(map[string]int),
	}
	if c.prefixChars == "" {
		c.prefixChars = DefaultPrefixChars
	}

	c.flags = append(c.flags, spec.Flags...)
	for i, f := range c.flags {
		if len(f.Names) == 0 {
			return nil, fmt.Errorf("flag %d has no names", i)
		}
		for _, name := range f.Names {
			if utf8.RuneCountInString(name) < 2 {
				return nil, fmt.Errorf("flag name %q too short", name)
			}
			r, _ := utf8.DecodeRuneInString(name)
			if !strings.ContainsRune(c.prefixChars, r) {
				return nil, fmt.Errorf("flag name %q does not start with a prefix character", name)
			}
			if _, dup := c.flagIndex[name]; dup {
				return nil, fmt.Errorf("duplicate flag name %q", name)
			}
			c.flagIndex[name] = i
		}
	}

	c.positionals = append(c.positionals, spec.Positionals...)
	for i := range c.positionals {
		p := &c.positionals[i]
		if p.Arity == (Arity{}) {
			p.Arity = Exactly(1)
		}
		if p.Remainder && i != len(c.positionals)-1 {
			return nil, fmt.Errorf("remainder positional %q must be last", p.Name)
		}
	}

	if len(spec.Subcommands) > 0 {
		if len(c.positionals) > 0 {
			return nil, fmt.Errorf("grammar cannot declare both positionals and subcommands")
		}
		c.subs = make(map[string]*Command, len(spec.Subcommands))
		for name, sub := range spec.Subcommands {
			frozen, err := New(sub)
			if err != nil {
				return nil, fmt.Errorf("subcommand %q: %w", name, err)
			}
			c.subs[name] = frozen
			c.subNames = append(c.subNames, name)
		}
		sort.Strings(c.subNames)
	}
	return c, nil
}

// MustNew is New, panicking on an invalid Spec. For grammars assembled
// from literals at start-up.
func MustNew(spec Spec) *Command {
	c, err := New(spec)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Command) Help() string        { return c.help }
func (c *Command) PrefixChars() string { return c.prefixChars }
func (c *Command) NumericArgs() bool   { return c.numericArgs }
func (c *Command) NaturalSort() bool   { return c.naturalSort }

// Flags returns the declared flags in declaration order. The slice is
// shared; callers must not modify it.
func (c *Command) Flags() []Flag { return c.flags }

// Flag looks up a flag by any of its declared names.
func (c *Command) Flag(name string) (*Flag, bool) {
	i, ok := c.flagIndex[name]
	if !ok {
		return nil, false
	}
	return &c.flags[i], true
}

// Positionals returns the declared positional slots in order.
func (c *Command) Positionals() []Positional { return c.positionals }

// Subcommand returns the frozen grammar of a nested subcommand.
func (c *Command) Subcommand(name string) (*Command, bool) {
	sub, ok := c.subs[name]
	return sub, ok
}

// SubcommandNames returns the subcommand names sorted.
func (c *Command) SubcommandNames() []string { return c.subNames }

// HasSubcommands reports whether the node nests further grammars.
func (c *Command) HasSubcommands() bool { return len(c.subs) > 0 }

// FlagLike reports whether a token is a flag candidate: it starts with
// one of the grammar's prefix characters, is longer than one character,
// and was not quoted. A lone prefix character is a value, matching how
// the arity parser consumes it. When the grammar opts into numeric
// arguments, tokens that parse as numeric literals ("-2", "-1.5") are
// values too.
func (c *Command) FlagLike(text string, quoted bool) bool {
	if quoted || utf8.RuneCountInString(text) < 2 {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text)
	if !strings.ContainsRune(c.prefixChars, r) {
		return false
	}
	if c.numericArgs && looksNumeric(text) {
		return false
	}
	return true
}

// DoubleDash returns the bare end-of-flags token for this grammar's
// first prefix character, "--" with the default prefix.
func (c *Command) DoubleDash() string {
	r, _ := utf8.DecodeRuneInString(c.prefixChars)
	return string([]rune{r, r})
}

// looksNumeric matches an optionally signed integer or decimal literal.
func looksNumeric(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	digits, dot := 0, false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}
