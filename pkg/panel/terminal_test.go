package panel

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/noteperfect/pkg/device"
	"github.com/itohio/noteperfect/pkg/engine"
)

func drawnBoard() *Board {
	board := NewBoard(5000)
	board.LCD.SetCursor(0, 0)
	board.LCD.WriteText("In A     Step=24")
	board.LCD.SetCursor(1, 0)
	board.LCD.WriteText("2040mV  DAC=2000")
	board.Main.SetLevel(2000)
	board.IndicatorA.SetLevel(2000)
	return board
}

func TestTerminal_LogLines(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(drawnBoard(), &buf, false)

	term.Update(engine.Snapshot{})
	assert.Empty(t, buf.String(), "unrefreshed periods are not logged")

	term.Update(engine.Snapshot{Refreshed: true})
	assert.Equal(t, "In A     Step=24 | 2040mV  DAC=2000 | A *  B .  Tune .  CV 2000 mV\n", buf.String())
}

func TestTerminal_RedrawsInPlace(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(drawnBoard(), &buf, true)

	require.NoError(t, term.Render())
	first := buf.String()
	assert.False(t, strings.HasPrefix(first, "\x1b["))
	assert.Contains(t, first, "\r[In A     Step=24]\x1b[K\r\n")
	assert.Equal(t, 3, strings.Count(first, "\r\n"))

	buf.Reset()
	require.NoError(t, term.Render())
	assert.True(t, strings.HasPrefix(buf.String(), "\x1b[3A"))
}

func TestTerminal_Throttled(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(drawnBoard(), &buf, true)

	term.Update(engine.Snapshot{})
	n := buf.Len()
	require.NotZero(t, n)

	term.Update(engine.Snapshot{})
	assert.Equal(t, n, buf.Len())
}

func TestReadKeys(t *testing.T) {
	now := time.Unix(0, 0)
	pads := NewPads(time.Second)
	pads.now = func() time.Time { return now }

	quit := 0
	require.NoError(t, ReadKeys(strings.NewReader("xb3q a"), pads, func() { quit++ }))

	assert.Equal(t, 1, quit)
	assert.True(t, pads.IsWidgetActive(device.WidgetInputB))
	assert.True(t, pads.IsWidgetActive(device.WidgetAux))
	assert.False(t, pads.IsWidgetActive(device.WidgetInputA), "keys after quit are ignored")
}

func TestReadKeys_EOF(t *testing.T) {
	pads := NewPads(time.Second)
	require.NoError(t, ReadKeys(strings.NewReader("1"), pads, func() { t.Fatal("unexpected quit") }))
	assert.True(t, pads.IsWidgetActive(device.WidgetInputA))
}
