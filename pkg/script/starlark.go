package script

import (
	"fmt"
	"io"

	"go.starlark.net/starlark"
)

// Engine runs Starlark programs with a conch(line) builtin that feeds
// command lines back into the shell, so scripts can mix real logic with
// shell commands.
type Engine struct {
	feed        FeedFunc
	out         io.Writer
	predeclared starlark.StringDict
}

// NewEngine returns an Engine. print() output goes to out.
func NewEngine(feed FeedFunc, out io.Writer) *Engine {
	e := &Engine{feed: feed, out: out}
	e.predeclared = starlark.StringDict{
		"conch": starlark.NewBuiltin("conch", e.conchBuiltin),
	}
	return e
}

func (e *Engine) conchBuiltin(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var line string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "line", &line); err != nil {
		return nil, err
	}
	if err := e.feed(line); err != nil {
		return nil, fmt.Errorf("conch(%q): %w", line, err)
	}
	return starlark.None, nil
}

func (e *Engine) thread(name string) *starlark.Thread {
	return &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(e.out, msg)
		},
	}
}

// ExecFile runs the Starlark program at path.
func (e *Engine) ExecFile(path string) error {
	if _, err := starlark.ExecFile(e.thread(path), path, nil, e.predeclared); err != nil {
		return fmt.Errorf("starlark %s: %w", path, err)
	}
	return nil
}

// Exec runs src as a Starlark program named name.
func (e *Engine) Exec(name, src string) error {
	if _, err := starlark.ExecFile(e.thread(name), name, src, e.predeclared); err != nil {
		return fmt.Errorf("starlark %s: %w", name, err)
	}
	return nil
}
