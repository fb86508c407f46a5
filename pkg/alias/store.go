package alias

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Store persists a Table as an operator-editable YAML file.
type Store struct {
	Path string
}

type fileFormat struct {
	Aliases map[string]string `yaml:"aliases,omitempty"`
	Macros  map[string]string `yaml:"macros,omitempty"`
}

// Load reads the store file into t. A missing file is not an error.
// Definitions that conflict with reserved names fail the load; earlier
// entries stay applied.
func (s Store) Load(t *Table) error {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read aliases: %w", err)
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse aliases %s: %w", s.Path, err)
	}
	for name, target := range f.Aliases {
		if err := t.SetAlias(name, target); err != nil {
			return fmt.Errorf("load alias %q: %w", name, err)
		}
	}
	for name, target := range f.Macros {
		if err := t.SetMacro(name, target); err != nil {
			return fmt.Errorf("load macro %q: %w", name, err)
		}
	}
	return nil
}

// Save writes t to the store file.
func (s Store) Save(t *Table) error {
	f := fileFormat{}
	if names := t.AliasNames(); len(names) > 0 {
		f.Aliases = make(map[string]string, len(names))
		for _, name := range names {
			f.Aliases[name], _ = t.Alias(name)
		}
	}
	if names := t.MacroNames(); len(names) > 0 {
		f.Macros = make(map[string]string, len(names))
		for _, name := range names {
			m, _ := t.Macro(name)
			f.Macros[name] = m.Target
		}
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode aliases: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("write aliases: %w", err)
	}
	return nil
}
