package device

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScale(t *testing.T) {
	tests := []struct {
		name  string
		scale Scale
		raw   int
		want  int
	}{
		{name: "zero", scale: Scale{Bits: 16, ReferenceMV: 5000}, raw: 0, want: 0},
		{name: "full scale", scale: Scale{Bits: 16, ReferenceMV: 5000}, raw: 65535, want: 5000},
		{name: "mid scale truncates", scale: Scale{Bits: 16, ReferenceMV: 5000}, raw: 32768, want: 2500},
		{name: "12-bit", scale: Scale{Bits: 12, ReferenceMV: 3300}, raw: 4095, want: 3300},
		{name: "24-bit", scale: Scale{Bits: 24, ReferenceMV: 5000}, raw: 1 << 23, want: 2500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scale.ToMillivolts(tt.raw))
			assert.Equal(t, tt.scale.Bits, tt.scale.Resolution())
		})
	}
}

func TestScale_Monotonic(t *testing.T) {
	s := Scale{Bits: 12, ReferenceMV: 5000}
	prev := s.ToMillivolts(0)
	for raw := 1; raw <= s.MaxCount(); raw++ {
		mv := s.ToMillivolts(raw)
		require.GreaterOrEqual(t, mv, prev)
		prev = mv
	}
}

func TestScale_ToCounts(t *testing.T) {
	s := Scale{Bits: 16, ReferenceMV: 5000}

	assert.Equal(t, 0, s.ToCounts(-100))
	assert.Equal(t, 65535, s.ToCounts(5000))
	assert.Equal(t, 65535, s.ToCounts(9000))
	assert.InDelta(t, 2000, s.ToMillivolts(s.ToCounts(2000)), 1)
}

func TestSequence(t *testing.T) {
	seq := NewSequence(Scale{Bits: 16, ReferenceMV: 5000}, 1, 2)

	v, err := seq.Sample()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = seq.Sample()
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = seq.Sample()
	assert.ErrorIs(t, err, io.EOF)
}

func TestScriptedTouch(t *testing.T) {
	touch := NewScriptedTouch(ButtonA, ButtonA|ButtonB, 0)

	assert.True(t, touch.IsWidgetActive(WidgetInputA))
	assert.False(t, touch.IsWidgetActive(WidgetInputB))
	touch.Scan()

	assert.True(t, touch.IsWidgetActive(WidgetInputA))
	assert.True(t, touch.IsWidgetActive(WidgetInputB))
	touch.Scan()

	assert.False(t, touch.IsWidgetActive(WidgetInputA))
	touch.Scan()
	touch.Scan()

	// Past the end of the script.
	assert.False(t, touch.IsWidgetActive(WidgetAux))
	assert.Equal(t, 4, touch.Scans)

	touch.SetBusy(2)
	assert.True(t, touch.IsScanning())
	assert.True(t, touch.IsScanning())
	assert.False(t, touch.IsScanning())
}

func TestMemorySink(t *testing.T) {
	var journal Journal
	sink := NewMemorySink("led", &journal)

	sink.SetLevel(83)
	sink.Enable()
	assert.True(t, sink.Enabled())
	assert.True(t, sink.Lit())

	sink.Disable()
	assert.False(t, sink.Enabled())
	assert.True(t, sink.Lit(), "disabled sink keeps its level")

	sink.SetLevel(0)
	assert.False(t, sink.Lit())

	assert.Equal(t, []string{"led:set=83", "led:enable", "led:disable", "led:set=0"}, journal.Entries)
}

func TestMemorySink_NilJournal(t *testing.T) {
	sink := NewMemorySink("cv", nil)
	sink.SetLevel(5)
	sink.Enable()
	assert.Equal(t, 5, sink.Level())
}

func TestMemoryMux(t *testing.T) {
	var journal Journal
	mux := &MemoryMux{Journal: &journal}

	mux.Select(1)
	mux.Select(0)

	assert.Equal(t, 0, mux.Selected)
	assert.Equal(t, 2, mux.Count)
	assert.Equal(t, []string{"mux:1", "mux:0"}, journal.Entries)
}

func TestMemoryDisplay(t *testing.T) {
	d := NewMemoryDisplay(2, 8)

	d.SetCursor(0, 0)
	d.WriteText("In A")
	d.SetCursor(1, 6)
	d.WriteText("mV!!")
	d.SetCursor(5, 0)
	d.WriteText("ignored")

	assert.Equal(t, "In A    ", d.Row(0))
	assert.Equal(t, "      mV", d.Row(1))
	assert.Equal(t, []string{"In A    ", "      mV"}, d.Rows())
}
