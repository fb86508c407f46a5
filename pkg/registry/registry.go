// Package registry maps command names to their handlers, argument
// grammars, and multiline flags. Commands are registered explicitly at
// start-up; the registry is the single source of truth consulted by
// dispatch, completion, and help.
package registry

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/conch-sh/conch/pkg/alias"
	"github.com/conch-sh/conch/pkg/complete"
	"github.com/conch-sh/conch/pkg/grammar"
	"github.com/conch-sh/conch/pkg/parsing"
)

// Context is handed to a command handler for one invocation. Out is the
// destination the statement's redirect or pipe clause selected; plain
// output must go there, not to os.Stdout.
type Context struct {
	context.Context
	Statement parsing.Statement
	Out       io.Writer
	Err       io.Writer
}

// Handler executes one parsed statement.
type Handler func(*Context) error

// Command is one registered command.
type Command struct {
	Name      string
	Help      string
	Category  string
	Multiline bool // spans physical lines until a terminator
	Hidden    bool // excluded from completion and help listings
	Grammar   *grammar.Command
	Handler   Handler
}

// Registry holds the registered commands. Registration happens from the
// control thread at start-up; lookups afterwards are read-only.
type Registry struct {
	commands map[string]*Command
	reserved func(name string) bool
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// SetReserved installs the check for names taken outside the registry,
// normally the alias table's Has.
func (r *Registry) SetReserved(fn func(name string) bool) {
	r.reserved = fn
}

// Register adds a command. The name must be unique across commands,
// aliases, and macros; collisions fail with alias.ErrNameConflict.
func (r *Registry) Register(cmd Command) error {
	if cmd.Name == "" {
		return fmt.Errorf("command has no name")
	}
	if cmd.Handler == nil {
		return fmt.Errorf("command %q has no handler", cmd.Name)
	}
	if _, exists := r.commands[cmd.Name]; exists || (r.reserved != nil && r.reserved(cmd.Name)) {
		return fmt.Errorf("%w: %q", alias.ErrNameConflict, cmd.Name)
	}
	r.commands[cmd.Name] = &cmd
	return nil
}

// MustRegister is Register, panicking on conflict. For built-in
// registration at start-up.
func (r *Registry) MustRegister(cmd Command) {
	if err := r.Register(cmd); err != nil {
		panic(err)
	}
}

// Lookup returns a registered command.
func (r *Registry) Lookup(name string) (*Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Has reports whether name is a registered command, hidden or not. The
// alias table uses this for its side of the conflict check.
func (r *Registry) Has(name string) bool {
	_, ok := r.commands[name]
	return ok
}

// Names returns the visible command names sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name, cmd := range r.commands {
		if !cmd.Hidden {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Categories returns the distinct visible categories sorted. Commands
// without a category fall under the empty string.
func (r *Registry) Categories() []string {
	set := make(map[string]bool)
	for _, cmd := range r.commands {
		if !cmd.Hidden {
			set[cmd.Category] = true
		}
	}
	cats := make([]string, 0, len(set))
	for cat := range set {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return cats
}

// ByCategory returns the visible commands in a category, sorted by
// name.
func (r *Registry) ByCategory(category string) []*Command {
	var cmds []*Command
	for _, cmd := range r.commands {
		if !cmd.Hidden && cmd.Category == category {
			cmds = append(cmds, cmd)
		}
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// Suggest returns up to three close matches for an unknown command
// word, ranked by fuzzy distance.
func (r *Registry) Suggest(name string) []string {
	ranks := fuzzy.RankFindFold(name, r.Names())
	sort.Sort(ranks)
	var out []string
	for _, rank := range ranks {
		out = append(out, rank.Target)
		if len(out) == 3 {
			break
		}
	}
	return out
}

// MultilineLookup adapts the registry to the parser's grammar lookup.
func (r *Registry) MultilineLookup() parsing.MultilineLookup {
	return func(command string) bool {
		cmd, ok := r.commands[command]
		return ok && cmd.Multiline
	}
}

// Grammar implements complete.Source.
func (r *Registry) Grammar(command string) (*grammar.Command, bool) {
	cmd, ok := r.commands[command]
	if !ok || cmd.Grammar == nil {
		return nil, false
	}
	return cmd.Grammar, true
}

// Commands implements complete.Source: the visible command words with
// their help text.
func (r *Registry) Commands() []complete.Candidate {
	var cands []complete.Candidate
	for _, name := range r.Names() {
		cands = append(cands, complete.Candidate{Text: name, Desc: r.commands[name].Help})
	}
	return cands
}
