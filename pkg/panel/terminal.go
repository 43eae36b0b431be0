package panel

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/itohio/noteperfect/pkg/device"
	"github.com/itohio/noteperfect/pkg/engine"
)

// terminalInterval limits redraws on an interactive terminal.
const terminalInterval = 50 * time.Millisecond

// Terminal renders a Board as text. On an interactive terminal the panel is
// redrawn in place; otherwise one line is written per refreshed step.
type Terminal struct {
	board       *Board
	w           io.Writer
	interactive bool

	mu         sync.Mutex
	drawn      bool
	lastUpdate time.Time
}

// NewTerminal creates a terminal front end writing to w.
func NewTerminal(board *Board, w io.Writer, interactive bool) *Terminal {
	return &Terminal{board: board, w: w, interactive: interactive}
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// MakeRaw puts terminal f into raw mode and returns a function restoring it.
func MakeRaw(f *os.File) (func() error, error) {
	fd := int(f.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to enter raw mode: %w", err)
	}
	return func() error { return term.Restore(fd, state) }, nil
}

// Update draws the board after a sample period.
func (t *Terminal) Update(snap engine.Snapshot) {
	t.mu.Lock()
	if t.interactive {
		now := time.Now()
		if now.Sub(t.lastUpdate) < terminalInterval {
			t.mu.Unlock()
			return
		}
		t.lastUpdate = now
	} else if !snap.Refreshed {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	if err := t.Render(); err != nil {
		log.Printf("Failed to draw panel: %v", err)
	}
}

// Render draws the board.
func (t *Terminal) Render() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows := t.board.LCD.Rows()
	lamps := fmt.Sprintf("A %s  B %s  Tune %s  CV %4d mV",
		glyph(t.board.IndicatorA), glyph(t.board.IndicatorB), glyph(t.board.Correction), t.board.Main.Level())

	var sb strings.Builder
	if !t.interactive {
		sb.WriteString(strings.Join(rows, " | "))
		sb.WriteString(" | ")
		sb.WriteString(lamps)
		sb.WriteString("\n")
		_, err := io.WriteString(t.w, sb.String())
		return err
	}

	lines := append(rows, lamps)
	if t.drawn {
		fmt.Fprintf(&sb, "\x1b[%dA", len(lines))
	}
	for i, line := range lines {
		if i < len(rows) {
			line = "[" + line + "]"
		}
		sb.WriteString("\r" + line + "\x1b[K\r\n")
	}
	t.drawn = true

	_, err := io.WriteString(t.w, sb.String())
	return err
}

func glyph(l *Lamp) string {
	if l.Brightness() > 0 {
		return "*"
	}
	return "."
}

// ReadKeys presses pads from key strokes read from r until r is exhausted:
// a or 1 touches input A, b or 2 input B, c or 3 the aux pad. q or Ctrl-C
// calls quit and returns.
func ReadKeys(r io.Reader, pads *Pads, quit func()) error {
	br := bufio.NewReader(r)
	for {
		key, err := br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read key: %w", err)
		}

		switch key {
		case 'a', 'A', '1':
			pads.Press(device.WidgetInputA)
		case 'b', 'B', '2':
			pads.Press(device.WidgetInputB)
		case 'c', 'C', '3':
			pads.Press(device.WidgetAux)
		case 'q', 'Q', 0x03:
			quit()
			return nil
		}
	}
}
