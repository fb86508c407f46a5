// Package alias rewrites command words before dispatch. An alias is a
// fixed name-to-text substitution; a macro additionally carries
// positional placeholders ({0}, {1}, ...) filled from call-site
// arguments, with unused trailing arguments appended verbatim. Aliases,
// macros, and registered commands share one namespace.
package alias

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

var (
	// ErrNameConflict reports a registration whose name already exists
	// as a command, alias, or macro. Raised at registration time only.
	ErrNameConflict = errors.New("name already in use")

	// ErrMacroArity reports a macro call supplying fewer arguments than
	// its highest placeholder index requires.
	ErrMacroArity = errors.New("not enough macro arguments")

	// ErrResolutionDepth reports an alias or macro chain that revisited
	// a name or exceeded the depth cap.
	ErrResolutionDepth = errors.New("alias resolution too deep")

	// ErrNotFound reports a delete of a name that is not registered.
	ErrNotFound = errors.New("no such alias or macro")
)

// placeholderPattern matches {N} placeholders and their escaped {{N}}
// form in one pass so escapes are never re-scanned as placeholders.
var placeholderPattern = regexp.MustCompile(`\{\{(\d+)\}\}|\{(\d+)\}`)

// Macro is a frozen macro definition. MinArgs is derived from the
// highest placeholder index in the target.
type Macro struct {
	Name    string
	Target  string
	MinArgs int
}

// Table holds the process-lifetime alias and macro definitions. It is
// mutated only by explicit create/delete operations issued from the
// shell's control thread; callers needing concurrent mutation must
// serialize it themselves.
type Table struct {
	aliases  map[string]string
	macros   map[string]Macro
	reserved func(name string) bool
}

// NewTable returns an empty Table. reserved reports names taken by the
// command registry; nil means no names are reserved.
func NewTable(reserved func(name string) bool) *Table {
	return &Table{
		aliases:  make(map[string]string),
		macros:   make(map[string]Macro),
		reserved: reserved,
	}
}

func (t *Table) isReserved(name string) bool {
	return t.reserved != nil && t.reserved(name)
}

// SetAlias creates or replaces an alias. The name must not collide with
// a macro or a registered command.
func (t *Table) SetAlias(name, target string) error {
	if name == "" || target == "" {
		return fmt.Errorf("alias needs a name and a target")
	}
	if _, isMacro := t.macros[name]; isMacro || t.isReserved(name) {
		return fmt.Errorf("%w: %q", ErrNameConflict, name)
	}
	t.aliases[name] = target
	return nil
}

// SetMacro creates or replaces a macro. The required argument count is
// the highest {N} placeholder index plus one; {{N}} escapes resolve to
// the literal {N} and require nothing.
func (t *Table) SetMacro(name, target string) error {
	if name == "" || target == "" {
		return fmt.Errorf("macro needs a name and a target")
	}
	if _, isAlias := t.aliases[name]; isAlias || t.isReserved(name) {
		return fmt.Errorf("%w: %q", ErrNameConflict, name)
	}
	minArgs := 0
	for _, m := range placeholderPattern.FindAllStringSubmatch(target, -1) {
		if m[2] == "" {
			continue // escaped form
		}
		idx, err := strconv.Atoi(m[2])
		if err != nil {
			return fmt.Errorf("macro %q: placeholder %q: %w", name, m[0], err)
		}
		if idx+1 > minArgs {
			minArgs = idx + 1
		}
	}
	t.macros[name] = Macro{Name: name, Target: target, MinArgs: minArgs}
	return nil
}

// DeleteAlias removes an alias.
func (t *Table) DeleteAlias(name string) error {
	if _, ok := t.aliases[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(t.aliases, name)
	return nil
}

// DeleteMacro removes a macro.
func (t *Table) DeleteMacro(name string) error {
	if _, ok := t.macros[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(t.macros, name)
	return nil
}

// Alias returns an alias target.
func (t *Table) Alias(name string) (string, bool) {
	target, ok := t.aliases[name]
	return target, ok
}

// Macro returns a macro definition.
func (t *Table) Macro(name string) (Macro, bool) {
	m, ok := t.macros[name]
	return m, ok
}

// Has reports whether name is registered as an alias or a macro. The
// command registry uses this for its side of the conflict check.
func (t *Table) Has(name string) bool {
	_, alias := t.aliases[name]
	_, macro := t.macros[name]
	return alias || macro
}

// AliasNames returns the alias names sorted.
func (t *Table) AliasNames() []string {
	names := make([]string, 0, len(t.aliases))
	for name := range t.aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MacroNames returns the macro names sorted.
func (t *Table) MacroNames() []string {
	names := make([]string, 0, len(t.macros))
	for name := range t.macros {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
