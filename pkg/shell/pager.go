package shell

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Pager pages command output by terminal height. When the input is not
// a terminal, or the height is unknown, it degrades to a plain
// pass-through writer. After the user quits with q the rest of the
// output is discarded.
type Pager struct {
	w       io.Writer
	in      *os.File
	height  int
	lines   int
	aborted bool
}

// NewPager returns a Pager writing to w and reading keypresses from in.
func NewPager(w io.Writer, in *os.File) *Pager {
	p := &Pager{w: w, in: in}
	if in != nil && term.IsTerminal(int(in.Fd())) {
		if _, h, err := term.GetSize(int(in.Fd())); err == nil && h > 1 {
			p.height = h - 1
		}
	}
	return p
}

func (p *Pager) Write(b []byte) (int, error) {
	if p.aborted {
		return len(b), nil
	}
	if p.height <= 0 {
		return p.w.Write(b)
	}
	total := len(b)
	for len(b) > 0 {
		i := bytes.IndexByte(b, '\n')
		if i < 0 {
			if _, err := p.w.Write(b); err != nil {
				return total - len(b), err
			}
			break
		}
		if _, err := p.w.Write(b[:i+1]); err != nil {
			return total - len(b), err
		}
		b = b[i+1:]
		p.lines++
		if p.lines >= p.height {
			if !p.more() {
				p.aborted = true
				break
			}
			p.lines = 0
		}
	}
	return total, nil
}

// Close implements the cleanup contract of outputFor.
func (p *Pager) Close() error { return nil }

// more shows the prompt and waits for a key; q stops the output. On a
// real terminal a single raw keypress is read, otherwise a full line.
func (p *Pager) more() bool {
	fmt.Fprint(p.w, "--More--")
	defer fmt.Fprint(p.w, "\r         \r")

	fd := int(p.in.Fd())
	old, err := term.MakeRaw(fd)
	if err != nil {
		var line string
		fmt.Fscanln(p.in, &line)
		return !strings.HasPrefix(strings.ToLower(line), "q")
	}
	defer term.Restore(fd, old)

	var buf [1]byte
	if _, err := p.in.Read(buf[:]); err != nil {
		return false
	}
	switch buf[0] {
	case 'q', 'Q', 0x03: // ^C
		return false
	}
	return true
}
