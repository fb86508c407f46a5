// Package shell ties the toolkit together into an interactive command
// shell: a readline REPL over the statement parser, alias resolution,
// grammar-driven tab completion, history, output redirection and
// piping, hooks, and the built-in command set. Applications embed it by
// registering their commands and calling Run.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/conch-sh/conch/pkg/alias"
	"github.com/conch-sh/conch/pkg/complete"
	"github.com/conch-sh/conch/pkg/history"
	"github.com/conch-sh/conch/pkg/parsing"
	"github.com/conch-sh/conch/pkg/registry"
)

var (
	// ErrQuit ends the read-eval loop. The quit built-in returns it;
	// handlers may too.
	ErrQuit = errors.New("quit")

	// ErrSkipCommand from a post-parse or pre-command hook silently
	// drops the current input without reporting an error.
	ErrSkipCommand = errors.New("command skipped")
)

// PostParseHook runs after alias resolution and may rewrite the
// statement or stop it with ErrSkipCommand.
type PostParseHook func(parsing.Statement) (parsing.Statement, error)

// PreCommandHook runs before the handler; ErrSkipCommand stops the
// command, any other error aborts the input with that error.
type PreCommandHook func(*registry.Context) error

// PostCommandHook runs after the handler with its result.
type PostCommandHook func(*registry.Context, error)

// Options configure a Shell. Zero fields take defaults.
type Options struct {
	Config             parsing.Config
	Prompt             string // default "conch> "
	ContinuationPrompt string // default "> "
	Intro              string // printed when the REPL starts
	HistoryFile        string // readline history, empty disables
	HistoryLimit       int
	Logger             *slog.Logger
	Out                io.Writer // default os.Stdout
	ErrOut             io.Writer // default os.Stderr
}

// Shell is the interactive shell. It is single-threaded: parsing,
// dispatch, and table mutation all happen on the caller's goroutine.
type Shell struct {
	cfg      parsing.Config
	parser   *parsing.Parser
	reg      *registry.Registry
	aliases  *alias.Table
	resolver *alias.Resolver
	engine   *complete.Engine
	hist     *history.History
	log      *slog.Logger

	out    io.Writer
	errOut io.Writer

	prompt     string
	contPrompt string
	intro      string
	histFile   string

	rl          *readline.Instance
	interactive bool
	pending     []string

	postParse []PostParseHook
	preCmd    []PreCommandHook
	postCmd   []PostCommandHook
}

// New builds a Shell with the built-in commands registered. Application
// commands are added through Registry before Run.
func New(opts Options) *Shell {
	s := &Shell{
		cfg:        opts.Config.WithDefaults(),
		prompt:     opts.Prompt,
		contPrompt: opts.ContinuationPrompt,
		intro:      opts.Intro,
		histFile:   opts.HistoryFile,
		log:        opts.Logger,
		out:        opts.Out,
		errOut:     opts.ErrOut,
	}
	if s.prompt == "" {
		s.prompt = "conch> "
	}
	if s.contPrompt == "" {
		s.contPrompt = "> "
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.errOut == nil {
		s.errOut = os.Stderr
	}

	s.reg = registry.New()
	s.aliases = alias.NewTable(s.reg.Has)
	s.reg.SetReserved(s.aliases.Has)
	s.parser = parsing.NewParser(s.cfg, s.reg.MultilineLookup())
	s.resolver = alias.NewResolver(s.parser, s.aliases, 0)
	s.engine = complete.NewEngine(s.parser, s.reg, s.log)
	s.hist = history.New(opts.HistoryLimit)

	s.registerBuiltins()
	return s
}

// Registry returns the command registry for application registration.
func (s *Shell) Registry() *registry.Registry { return s.reg }

// Aliases returns the alias/macro table.
func (s *Shell) Aliases() *alias.Table { return s.aliases }

// History returns the session history.
func (s *Shell) History() *history.History { return s.hist }

// Parser returns the statement parser.
func (s *Shell) Parser() *parsing.Parser { return s.parser }

// Engine returns the completion engine.
func (s *Shell) Engine() *complete.Engine { return s.engine }

// OnPostParse appends a post-parse hook.
func (s *Shell) OnPostParse(h PostParseHook) { s.postParse = append(s.postParse, h) }

// OnPreCommand appends a pre-command hook.
func (s *Shell) OnPreCommand(h PreCommandHook) { s.preCmd = append(s.preCmd, h) }

// OnPostCommand appends a post-command hook.
func (s *Shell) OnPostCommand(h PostCommandHook) { s.postCmd = append(s.postCmd, h) }

// Continuing reports whether the shell is waiting for more physical
// lines of a multiline command.
func (s *Shell) Continuing() bool { return len(s.pending) > 0 }

// Feed accepts one physical line. For multiline commands it buffers
// continuation lines, joined with newlines so quoted bodies keep their
// formatting, and executes once the terminator arrives. Scripts and the
// REPL both drive the shell through Feed.
func (s *Shell) Feed(line string) error {
	var joined string
	if s.Continuing() {
		s.pending = append(s.pending, line)
		joined = strings.Join(s.pending, "\n")
	} else {
		joined = line
	}

	st, err := s.parser.Parse(joined)
	if errors.Is(err, parsing.ErrNeedMoreInput) {
		if !s.Continuing() {
			s.pending = []string{line}
		}
		return nil
	}
	s.pending = nil
	if err != nil {
		return err
	}
	if st.Empty() {
		return nil
	}

	resolved, err := s.resolver.Resolve(st)
	if errors.Is(err, parsing.ErrNeedMoreInput) {
		// The expansion named a multiline command still waiting for
		// its terminator; continuation lines extend the expanded
		// block.
		s.pending = []string{resolved.Raw}
		return nil
	}
	if err != nil {
		return err
	}
	return s.execute(st, resolved)
}

func (s *Shell) execute(st, resolved parsing.Statement) error {
	s.hist.Add(st.Raw, resolved.ExpandedCommandLine())

	for _, hook := range s.postParse {
		var err error
		resolved, err = hook(resolved)
		if err != nil {
			if errors.Is(err, ErrSkipCommand) {
				return nil
			}
			return err
		}
	}

	cmd, ok := s.reg.Lookup(resolved.Command)
	if !ok {
		if sugg := s.reg.Suggest(resolved.Command); len(sugg) > 0 {
			return fmt.Errorf("unknown command %q (did you mean %s?)", resolved.Command, strings.Join(sugg, ", "))
		}
		return fmt.Errorf("unknown command %q", resolved.Command)
	}

	out, cleanup, err := s.outputFor(resolved)
	if err != nil {
		return err
	}

	ctx := &registry.Context{
		Context:   context.Background(),
		Statement: resolved,
		Out:       out,
		Err:       s.errOut,
	}

	skip := false
	for _, hook := range s.preCmd {
		if err := hook(ctx); err != nil {
			if errors.Is(err, ErrSkipCommand) {
				skip = true
				break
			}
			cleanup()
			return err
		}
	}

	var cmdErr error
	if !skip {
		cmdErr = cmd.Handler(ctx)
	}
	for _, hook := range s.postCmd {
		hook(ctx, cmdErr)
	}
	if cerr := cleanup(); cmdErr == nil {
		cmdErr = cerr
	}
	return cmdErr
}
