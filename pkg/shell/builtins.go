package shell

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/conch-sh/conch/pkg/complete"
	"github.com/conch-sh/conch/pkg/grammar"
	"github.com/conch-sh/conch/pkg/parsing"
	"github.com/conch-sh/conch/pkg/registry"
	"github.com/conch-sh/conch/pkg/script"
)

// builtinCategory groups the shell's own commands in help listings.
const builtinCategory = "built-ins"

func (s *Shell) registerBuiltins() {
	commandNames := func(prefix string) ([]string, error) {
		return s.reg.Names(), nil
	}
	aliasNames := func(prefix string) ([]string, error) {
		return s.aliases.AliasNames(), nil
	}
	macroNames := func(prefix string) ([]string, error) {
		return s.aliases.MacroNames(), nil
	}

	s.reg.MustRegister(registry.Command{
		Name:     "help",
		Help:     "list commands or show help for one command",
		Category: builtinCategory,
		Grammar: grammar.MustNew(grammar.Spec{
			Positionals: []grammar.Positional{
				{Name: "command", Arity: grammar.Optional(), Completer: commandNames, Help: "command to describe"},
			},
		}),
		Handler: s.helpCmd,
	})

	s.reg.MustRegister(registry.Command{
		Name:     "alias",
		Help:     "manage command aliases",
		Category: builtinCategory,
		Grammar: grammar.MustNew(grammar.Spec{
			Subcommands: map[string]grammar.Spec{
				"create": {
					Help: "define or replace an alias",
					Positionals: []grammar.Positional{
						{Name: "name", Help: "alias name"},
						{Name: "command", Remainder: true, Help: "replacement command line"},
					},
				},
				"delete": {
					Help: "remove aliases",
					Positionals: []grammar.Positional{
						{Name: "name", Arity: grammar.AtLeast(1), Completer: aliasNames, Help: "alias to remove"},
					},
				},
				"list": {
					Help: "show aliases",
					Positionals: []grammar.Positional{
						{Name: "name", Arity: grammar.AtLeast(0), Completer: aliasNames, Help: "aliases to show"},
					},
				},
			},
		}),
		Handler: s.aliasCmd,
	})

	s.reg.MustRegister(registry.Command{
		Name:     "macro",
		Help:     "manage command macros with {0}-style placeholders",
		Category: builtinCategory,
		Grammar: grammar.MustNew(grammar.Spec{
			Subcommands: map[string]grammar.Spec{
				"create": {
					Help: "define or replace a macro",
					Positionals: []grammar.Positional{
						{Name: "name", Help: "macro name"},
						{Name: "command", Remainder: true, Help: "replacement with {0}, {1}, ... placeholders"},
					},
				},
				"delete": {
					Help: "remove macros",
					Positionals: []grammar.Positional{
						{Name: "name", Arity: grammar.AtLeast(1), Completer: macroNames, Help: "macro to remove"},
					},
				},
				"list": {
					Help: "show macros",
					Positionals: []grammar.Positional{
						{Name: "name", Arity: grammar.AtLeast(0), Completer: macroNames, Help: "macros to show"},
					},
				},
			},
		}),
		Handler: s.macroCmd,
	})

	s.reg.MustRegister(registry.Command{
		Name:     "history",
		Help:     "show, search, or re-run past commands",
		Category: builtinCategory,
		Grammar: grammar.MustNew(grammar.Spec{
			Flags: []grammar.Flag{
				{Names: []string{"-c", "--clear"}, Help: "forget all history"},
				{Names: []string{"-r", "--run"}, Help: "re-run the selected entries"},
				{Names: []string{"-x", "--expanded"}, Help: "show lines after alias expansion"},
			},
			Positionals: []grammar.Positional{
				{Name: "selector", Arity: grammar.Optional(), Help: "entry number or search text"},
			},
		}),
		Handler: s.historyCmd,
	})

	s.reg.MustRegister(registry.Command{
		Name:     "shortcuts",
		Help:     "show the configured shortcut sigils",
		Category: builtinCategory,
		Grammar:  grammar.MustNew(grammar.Spec{}),
		Handler:  s.shortcutsCmd,
	})

	s.reg.MustRegister(registry.Command{
		Name:     "shell",
		Help:     "run a command through the system shell",
		Category: builtinCategory,
		Grammar: grammar.MustNew(grammar.Spec{
			Positionals: []grammar.Positional{
				{Name: "command", Remainder: true, Completer: complete.FilePaths, Help: "shell command line"},
			},
		}),
		Handler: s.shellCmd,
	})

	s.reg.MustRegister(registry.Command{
		Name:     "run_script",
		Help:     "run a text script of commands",
		Category: builtinCategory,
		Grammar: grammar.MustNew(grammar.Spec{
			Positionals: []grammar.Positional{
				{Name: "path", Completer: complete.FilePaths, Help: "script file"},
			},
		}),
		Handler: s.runScriptCmd,
	})

	s.reg.MustRegister(registry.Command{
		Name:     "script",
		Help:     "run a Starlark program with a conch(line) builtin",
		Category: builtinCategory,
		Grammar: grammar.MustNew(grammar.Spec{
			Positionals: []grammar.Positional{
				{Name: "path", Completer: complete.FilePaths, Help: "starlark file"},
			},
		}),
		Handler: s.starlarkCmd,
	})

	s.reg.MustRegister(registry.Command{
		Name:     "edit",
		Help:     "open a file in the text editor",
		Category: builtinCategory,
		Grammar: grammar.MustNew(grammar.Spec{
			Positionals: []grammar.Positional{
				{Name: "path", Arity: grammar.Optional(), Completer: complete.FilePaths, Help: "file to edit"},
			},
		}),
		Handler: s.editCmd,
	})

	s.reg.MustRegister(registry.Command{
		Name:     "quit",
		Help:     "exit the shell",
		Category: builtinCategory,
		Grammar:  grammar.MustNew(grammar.Spec{}),
		Handler:  func(*registry.Context) error { return ErrQuit },
	})
}

func (s *Shell) requoteJoin(tokens []parsing.Token) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = s.cfg.Requote(tok)
	}
	return strings.Join(parts, " ")
}

// --- help ---

func (s *Shell) helpCmd(ctx *registry.Context) error {
	if len(ctx.Statement.Args) == 0 {
		s.printCommandList(ctx.Out)
		return nil
	}
	name := ctx.Statement.Args[0].Text
	cmd, ok := s.reg.Lookup(name)
	if !ok {
		if target, isAlias := s.aliases.Alias(name); isAlias {
			fmt.Fprintf(ctx.Out, "%s: alias for %q\n", name, target)
			return nil
		}
		if m, isMacro := s.aliases.Macro(name); isMacro {
			fmt.Fprintf(ctx.Out, "%s: macro for %q (%d argument(s))\n", name, m.Target, m.MinArgs)
			return nil
		}
		return fmt.Errorf("no help for %q", name)
	}
	s.printCommandHelp(ctx.Out, cmd)
	return nil
}

func (s *Shell) printCommandList(w io.Writer) {
	for _, cat := range s.reg.Categories() {
		title := cat
		if title == "" {
			title = "commands"
		}
		fmt.Fprintf(w, "%s:\n", title)
		cmds := s.reg.ByCategory(cat)
		width := 12
		for _, cmd := range cmds {
			if len(cmd.Name)+2 > width {
				width = len(cmd.Name) + 2
			}
		}
		for _, cmd := range cmds {
			fmt.Fprintf(w, "  %-*s %s\n", width, cmd.Name, cmd.Help)
		}
		fmt.Fprintln(w)
	}
}

func (s *Shell) printCommandHelp(w io.Writer, cmd *registry.Command) {
	fmt.Fprintf(w, "%s: %s\n", cmd.Name, cmd.Help)
	if cmd.Multiline {
		fmt.Fprintf(w, "spans lines until %q is typed\n", s.cfg.Terminator())
	}
	g := cmd.Grammar
	if g == nil {
		return
	}
	if flags := g.Flags(); len(flags) > 0 {
		fmt.Fprintln(w, "flags:")
		width := 12
		joined := make([]string, len(flags))
		for i, f := range flags {
			joined[i] = strings.Join(f.Names, ", ")
			if len(joined[i])+2 > width {
				width = len(joined[i]) + 2
			}
		}
		for i, f := range flags {
			desc := f.Help
			if len(f.Choices) > 0 {
				desc = fmt.Sprintf("%s (one of %s)", desc, strings.Join(f.Choices, ", "))
			}
			fmt.Fprintf(w, "  %-*s %s\n", width, joined[i], desc)
		}
	}
	if pos := g.Positionals(); len(pos) > 0 {
		fmt.Fprintln(w, "arguments:")
		width := 12
		for _, p := range pos {
			if len(p.Name)+2 > width {
				width = len(p.Name) + 2
			}
		}
		for _, p := range pos {
			desc := p.Help
			if len(p.Choices) > 0 {
				desc = fmt.Sprintf("%s (one of %s)", desc, strings.Join(p.Choices, ", "))
			}
			fmt.Fprintf(w, "  %-*s %s\n", width, p.Name, desc)
		}
	}
	if subs := g.SubcommandNames(); len(subs) > 0 {
		fmt.Fprintln(w, "subcommands:")
		width := 12
		for _, name := range subs {
			if len(name)+2 > width {
				width = len(name) + 2
			}
		}
		for _, name := range subs {
			sub, _ := g.Subcommand(name)
			fmt.Fprintf(w, "  %-*s %s\n", width, name, sub.Help())
		}
	}
}

// --- alias / macro ---

func (s *Shell) aliasCmd(ctx *registry.Context) error {
	args := ctx.Statement.Args
	if len(args) == 0 {
		return s.listAliases(ctx.Out, nil)
	}
	switch args[0].Text {
	case "create":
		if len(args) < 3 {
			return fmt.Errorf("usage: alias create NAME COMMAND [ARGS...]")
		}
		name := args[1].Text
		if err := s.aliases.SetAlias(name, s.requoteJoin(args[2:])); err != nil {
			return err
		}
		fmt.Fprintf(ctx.Out, "alias %q created\n", name)
		return nil
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: alias delete NAME...")
		}
		for _, tok := range args[1:] {
			if err := s.aliases.DeleteAlias(tok.Text); err != nil {
				return err
			}
			fmt.Fprintf(ctx.Out, "alias %q deleted\n", tok.Text)
		}
		return nil
	case "list":
		var only []string
		for _, tok := range args[1:] {
			only = append(only, tok.Text)
		}
		return s.listAliases(ctx.Out, only)
	}
	return fmt.Errorf("alias: unknown subcommand %q", args[0].Text)
}

func (s *Shell) listAliases(w io.Writer, only []string) error {
	names := s.aliases.AliasNames()
	if len(only) > 0 {
		names = only
	}
	for _, name := range names {
		target, ok := s.aliases.Alias(name)
		if !ok {
			return fmt.Errorf("no such alias %q", name)
		}
		fmt.Fprintf(w, "alias create %s %s\n", name, target)
	}
	return nil
}

func (s *Shell) macroCmd(ctx *registry.Context) error {
	args := ctx.Statement.Args
	if len(args) == 0 {
		return s.listMacros(ctx.Out, nil)
	}
	switch args[0].Text {
	case "create":
		if len(args) < 3 {
			return fmt.Errorf("usage: macro create NAME COMMAND [ARGS...]")
		}
		name := args[1].Text
		if err := s.aliases.SetMacro(name, s.requoteJoin(args[2:])); err != nil {
			return err
		}
		fmt.Fprintf(ctx.Out, "macro %q created\n", name)
		return nil
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: macro delete NAME...")
		}
		for _, tok := range args[1:] {
			if err := s.aliases.DeleteMacro(tok.Text); err != nil {
				return err
			}
			fmt.Fprintf(ctx.Out, "macro %q deleted\n", tok.Text)
		}
		return nil
	case "list":
		var only []string
		for _, tok := range args[1:] {
			only = append(only, tok.Text)
		}
		return s.listMacros(ctx.Out, only)
	}
	return fmt.Errorf("macro: unknown subcommand %q", args[0].Text)
}

func (s *Shell) listMacros(w io.Writer, only []string) error {
	names := s.aliases.MacroNames()
	if len(only) > 0 {
		names = only
	}
	for _, name := range names {
		m, ok := s.aliases.Macro(name)
		if !ok {
			return fmt.Errorf("no such macro %q", name)
		}
		fmt.Fprintf(w, "macro create %s %s\n", name, m.Target)
	}
	return nil
}

// --- history ---

func (s *Shell) historyCmd(ctx *registry.Context) error {
	var clear, run, expanded bool
	var selector string
	for _, tok := range ctx.Statement.Args {
		switch tok.Text {
		case "-c", "--clear":
			clear = true
		case "-r", "--run":
			run = true
		case "-x", "--expanded":
			expanded = true
		default:
			selector = tok.Text
		}
	}

	if clear {
		s.hist.Clear()
		fmt.Fprintln(ctx.Out, "history cleared")
		return nil
	}

	type indexed struct {
		n    int
		raw  string
		expd string
	}
	var selected []indexed
	if n, err := strconv.Atoi(selector); err == nil && selector != "" {
		e, err := s.hist.Get(n)
		if err != nil {
			return err
		}
		selected = append(selected, indexed{n, e.Raw, e.Expanded})
	} else {
		needle := strings.ToLower(selector)
		for i, e := range s.hist.All() {
			if selector != "" &&
				!strings.Contains(strings.ToLower(e.Raw), needle) &&
				!strings.Contains(strings.ToLower(e.Expanded), needle) {
				continue
			}
			selected = append(selected, indexed{i + 1, e.Raw, e.Expanded})
		}
	}

	if run {
		for _, e := range selected {
			if err := s.Feed(e.expd); err != nil {
				return err
			}
		}
		return nil
	}
	for _, e := range selected {
		line := e.raw
		if expanded {
			line = e.expd
		}
		fmt.Fprintf(ctx.Out, "%5d  %s\n", e.n, line)
	}
	return nil
}

// --- shortcuts / shell / scripts / quit ---

func (s *Shell) shortcutsCmd(ctx *registry.Context) error {
	for _, sc := range s.cfg.Shortcuts {
		fmt.Fprintf(ctx.Out, "%s: %s\n", sc.Sigil, sc.Target)
	}
	return nil
}

func (s *Shell) shellCmd(ctx *registry.Context) error {
	if len(ctx.Statement.Args) == 0 {
		return fmt.Errorf("usage: shell COMMAND [ARGS...]")
	}
	line := s.requoteJoin(ctx.Statement.Args)
	return RunShellCommand(line, os.Stdin, ctx.Out, ctx.Err)
}

func (s *Shell) editCmd(ctx *registry.Context) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	line := editor
	if len(ctx.Statement.Args) == 1 {
		line += " " + s.cfg.QuoteIfNeeded(ctx.Statement.Args[0].Text)
	} else if len(ctx.Statement.Args) > 1 {
		return fmt.Errorf("usage: edit [PATH]")
	}
	return RunShellCommand(line, os.Stdin, ctx.Out, ctx.Err)
}

func (s *Shell) runScriptCmd(ctx *registry.Context) error {
	if len(ctx.Statement.Args) != 1 {
		return fmt.Errorf("usage: run_script PATH")
	}
	return script.NewRunner(s.Feed).RunFile(ctx.Statement.Args[0].Text)
}

func (s *Shell) starlarkCmd(ctx *registry.Context) error {
	if len(ctx.Statement.Args) != 1 {
		return fmt.Errorf("usage: script PATH")
	}
	return script.NewEngine(s.Feed, ctx.Out).ExecFile(ctx.Statement.Args[0].Text)
}
