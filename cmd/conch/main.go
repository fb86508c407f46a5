// conch is a demo interactive shell built on the toolkit packages.
//
// It registers a few example commands and wires alias and history
// persistence, showing how an application embeds the shell: build the
// grammars, register the handlers, then hand control to Run.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conch-sh/conch/pkg/alias"
	"github.com/conch-sh/conch/pkg/grammar"
	"github.com/conch-sh/conch/pkg/registry"
	"github.com/conch-sh/conch/pkg/shell"
)

func main() {
	dataDir := flag.String("data-dir", defaultDataDir(), "directory for history and alias files")
	histLimit := flag.Int("history-limit", 0, "history entries to keep (0 = default)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "conch: %v\n", err)
		os.Exit(1)
	}

	cfg := loadConfig(filepath.Join(*dataDir, "config.yaml"))
	if cfg.Prompt == "" {
		cfg.Prompt = "conch> "
	}
	if cfg.Intro == "" {
		cfg.Intro = "conch demo shell. Type 'help' or press '?' for context help."
	}

	s := shell.New(shell.Options{
		Prompt:       cfg.Prompt,
		Intro:        cfg.Intro,
		HistoryFile:  filepath.Join(*dataDir, "readline_history"),
		HistoryLimit: *histLimit,
	})
	registerDemo(s)

	aliasStore := alias.Store{Path: filepath.Join(*dataDir, "aliases.yaml")}
	if err := aliasStore.Load(s.Aliases()); err != nil {
		slog.Warn("loading aliases", "err", err)
	}
	histPath := filepath.Join(*dataDir, "history.cbor")
	if err := s.History().Load(histPath); err != nil {
		slog.Warn("loading history", "err", err)
	}

	runErr := s.Run()

	if err := aliasStore.Save(s.Aliases()); err != nil {
		slog.Warn("saving aliases", "err", err)
	}
	if err := s.History().Save(histPath); err != nil {
		slog.Warn("saving history", "err", err)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "conch: %v\n", runErr)
		os.Exit(1)
	}
}

// demoConfig is the optional operator-editable config file in the data
// directory.
type demoConfig struct {
	Prompt string `yaml:"prompt"`
	Intro  string `yaml:"intro"`
}

func loadConfig(path string) demoConfig {
	var cfg demoConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		slog.Warn("parsing config", "path", path, "err", err)
	}
	return cfg
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".conch"
	}
	return filepath.Join(home, ".conch")
}

// registerDemo adds the example commands: speak, orate, and a small
// task list with subcommands.
func registerDemo(s *shell.Shell) {
	s.Registry().MustRegister(registry.Command{
		Name:     "speak",
		Help:     "repeat the given words back",
		Category: "demo",
		Grammar: grammar.MustNew(grammar.Spec{
			Flags: []grammar.Flag{
				{Names: []string{"-s", "--shout"}, Help: "print in upper case"},
				{Names: []string{"-r", "--repeat"}, Help: "say it N times", Arity: grammar.Exactly(1)},
			},
			Positionals: []grammar.Positional{
				{Name: "words", Remainder: true, Help: "what to say"},
			},
		}),
		Handler: speakCmd,
	})

	s.Registry().MustRegister(registry.Command{
		Name:      "orate",
		Help:      "deliver a speech spanning several lines",
		Category:  "demo",
		Multiline: true,
		Handler: func(ctx *registry.Context) error {
			words := ctx.Statement.Argv()[1:]
			if len(words) == 0 {
				return fmt.Errorf("nothing to orate")
			}
			fmt.Fprintln(ctx.Out, strings.Join(words, " "))
			return nil
		},
	})

	tasks := &taskList{}
	s.Registry().MustRegister(registry.Command{
		Name:     "task",
		Help:     "track a small to-do list",
		Category: "demo",
		Grammar: grammar.MustNew(grammar.Spec{
			NaturalSort: true,
			Subcommands: map[string]grammar.Spec{
				"add": {
					Help: "add a task",
					Positionals: []grammar.Positional{
						{Name: "text", Remainder: true, Help: "task description"},
					},
				},
				"done": {
					Help: "mark a task finished",
					Positionals: []grammar.Positional{
						{Name: "number", Completer: tasks.openNumbers, Help: "task number"},
					},
				},
				"list": {
					Help: "list tasks",
					Flags: []grammar.Flag{
						{Names: []string{"-a", "--all"}, Help: "include finished tasks"},
					},
				},
			},
		}),
		Handler: tasks.handle,
	})
}

func speakCmd(ctx *registry.Context) error {
	shout := false
	repeat := 1
	var words []string
	args := ctx.Statement.Args
	for i := 0; i < len(args); i++ {
		switch args[i].Text {
		case "-s", "--shout":
			shout = true
		case "-r", "--repeat":
			if i+1 >= len(args) {
				return fmt.Errorf("--repeat needs a count")
			}
			i++
			n, err := strconv.Atoi(args[i].Text)
			if err != nil || n < 1 {
				return fmt.Errorf("bad repeat count %q", args[i].Text)
			}
			repeat = n
		default:
			words = append(words, args[i].Text)
		}
	}
	if len(words) == 0 {
		return fmt.Errorf("nothing to say")
	}
	line := strings.Join(words, " ")
	if shout {
		line = strings.ToUpper(line)
	}
	for i := 0; i < repeat; i++ {
		fmt.Fprintln(ctx.Out, line)
	}
	return nil
}

type taskItem struct {
	text string
	done bool
}

type taskList struct {
	items []taskItem
}

func (t *taskList) openNumbers(prefix string) ([]string, error) {
	var out []string
	for i, item := range t.items {
		if !item.done {
			out = append(out, strconv.Itoa(i+1))
		}
	}
	return out, nil
}

func (t *taskList) handle(ctx *registry.Context) error {
	args := ctx.Statement.Args
	if len(args) == 0 {
		return fmt.Errorf("usage: task add|done|list")
	}
	switch args[0].Text {
	case "add":
		if len(args) < 2 {
			return fmt.Errorf("usage: task add TEXT...")
		}
		var words []string
		for _, tok := range args[1:] {
			words = append(words, tok.Text)
		}
		t.items = append(t.items, taskItem{text: strings.Join(words, " ")})
		fmt.Fprintf(ctx.Out, "added task %d\n", len(t.items))
		return nil
	case "done":
		if len(args) != 2 {
			return fmt.Errorf("usage: task done NUMBER")
		}
		n, err := strconv.Atoi(args[1].Text)
		if err != nil || n < 1 || n > len(t.items) {
			return fmt.Errorf("no task %q", args[1].Text)
		}
		t.items[n-1].done = true
		fmt.Fprintf(ctx.Out, "task %d done\n", n)
		return nil
	case "list":
		all := false
		for _, tok := range args[1:] {
			if tok.Text == "-a" || tok.Text == "--all" {
				all = true
			}
		}
		for i, item := range t.items {
			if item.done && !all {
				continue
			}
			mark := " "
			if item.done {
				mark = "x"
			}
			fmt.Fprintf(ctx.Out, "[%s] %d  %s\n", mark, i+1, item.text)
		}
		return nil
	}
	return fmt.Errorf("task: unknown subcommand %q", args[0].Text)
}
