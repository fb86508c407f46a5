package history

import (
	"errors"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// Save writes the history to path as CBOR.
func (h *History) Save(path string) error {
	data, err := cbor.Marshal(h.entries)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Load replaces the history with the contents of path, trimming to the
// limit. A missing file is not an error.
func (h *History) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read history: %w", err)
	}
	var entries []Entry
	if err := cbor.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("decode history %s: %w", path, err)
	}
	if len(entries) > h.limit {
		entries = entries[len(entries)-h.limit:]
	}
	h.entries = entries
	return nil
}
