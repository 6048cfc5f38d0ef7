package export

import (
	"errors"
	"io"
	"os"
	"strings"

	"halo-cli/internal/model"
	"halo-cli/internal/present"
	"halo-cli/internal/store"

	"github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
)

// SnapshotTitle is the first line of every snapshot.
const SnapshotTitle = "Divine H.A.L.O. Snapshot"

// Snapshot renders the plain-text export: the title line followed by one summary
// line per record, in collection order.
func Snapshot(records []model.Record) string {
	p := present.Project(records)
	lines := make([]string, 0, len(p.Summary)+1)
	lines = append(lines, SnapshotTitle)
	for _, l := range p.Summary {
		lines = append(lines, l.Text())
	}
	return strings.Join(lines, "\n")
}

// Clipboard receives exported text.
type Clipboard interface {
	Write(text string) error
}

// ClipboardFunc adapts a function to Clipboard.
type ClipboardFunc func(string) error

func (f ClipboardFunc) Write(s string) error { return f(s) }

// SystemClipboard writes through the OS clipboard and, when none is available,
// falls back to an OSC52 escape sequence on Terminal (typically stderr), which
// most modern terminals (and tmux/ssh sessions) forward to the local clipboard.
type SystemClipboard struct {
	Terminal io.Writer
	// DisableOSC52 turns the escape-sequence fallback off.
	DisableOSC52 bool
}

func (c SystemClipboard) Write(s string) error {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	err := clipboard.WriteAll(s)
	if err == nil {
		return nil
	}
	if c.DisableOSC52 {
		return err
	}
	w := c.Terminal
	if w == nil {
		w = os.Stderr
	}
	seq := osc52.New(s)
	if os.Getenv("TMUX") != "" {
		seq = seq.Tmux()
	}
	if _, oerr := seq.WriteTo(w); oerr != nil {
		return errors.Join(err, oerr)
	}
	return nil
}

// Copy writes the snapshot of records to cb. Any failure is reported as a
// ClipboardUnavailable store error; a panicking clipboard is recovered.
func Copy(cb Clipboard, records []model.Record) (text string, err error) {
	text = Snapshot(records)
	if cb == nil {
		return text, &store.Error{Kind: store.ClipboardUnavailable, Op: "export", Pos: -1, Err: errors.New("no clipboard")}
	}
	defer func() {
		if r := recover(); r != nil {
			err = &store.Error{Kind: store.ClipboardUnavailable, Op: "export", Pos: -1, Err: errors.New("clipboard panicked")}
		}
	}()
	if werr := cb.Write(text); werr != nil {
		return text, &store.Error{Kind: store.ClipboardUnavailable, Op: "export", Pos: -1, Err: werr}
	}
	return text, nil
}
