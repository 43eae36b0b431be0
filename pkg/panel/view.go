package panel

import (
	"fmt"
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/noteperfect/pkg/device"
	"github.com/itohio/noteperfect/pkg/engine"
	"github.com/itohio/noteperfect/pkg/status"
)

// updateInterval limits redraws to ~60 FPS.
const updateInterval = 16 * time.Millisecond

var (
	lcdBackground = color.NRGBA{R: 30, G: 60, B: 20, A: 255}
	lcdText       = color.NRGBA{R: 170, G: 230, B: 120, A: 255}
	lampOff       = color.NRGBA{R: 40, G: 40, B: 40, A: 255}
	lampGreen     = color.NRGBA{R: 60, G: 255, B: 90, A: 255}
	lampRed       = color.NRGBA{R: 255, G: 60, B: 40, A: 255}
)

type lampView struct {
	lamp   *Lamp
	circle *canvas.Circle
	on     color.NRGBA
}

// View renders a Board as a window front panel.
type View struct {
	board   *Board
	rows    [status.Rows]*canvas.Text
	lamps   []lampView
	cv      *widget.ProgressBar
	content fyne.CanvasObject

	mu         sync.Mutex
	lastUpdate time.Time
}

// NewView creates the front-panel widgets for board.
func NewView(board *Board, fullScaleMV int) *View {
	v := &View{board: board}

	lcd := container.NewVBox()
	for i := range v.rows {
		t := canvas.NewText(fmt.Sprintf("%*s", status.Cols, ""), lcdText)
		t.TextStyle = fyne.TextStyle{Monospace: true}
		t.TextSize = 28
		v.rows[i] = t
		lcd.Add(t)
	}

	lamps := container.NewHBox()
	for _, l := range []struct {
		name string
		lamp *Lamp
		on   color.NRGBA
	}{
		{"A", board.IndicatorA, lampGreen},
		{"B", board.IndicatorB, lampGreen},
		{"Tune", board.Correction, lampRed},
	} {
		circle := canvas.NewCircle(lampOff)
		circle.StrokeColor = color.Black
		circle.StrokeWidth = 1
		v.lamps = append(v.lamps, lampView{lamp: l.lamp, circle: circle, on: l.on})
		lamps.Add(container.NewGridWrap(fyne.NewSize(24, 24), circle))
		lamps.Add(widget.NewLabel(l.name))
	}

	v.cv = widget.NewProgressBar()
	v.cv.Max = float64(fullScaleMV)
	v.cv.TextFormatter = func() string {
		return fmt.Sprintf("CV %d mV", int(v.cv.Value))
	}

	pads := container.NewGridWithColumns(3,
		widget.NewButton("Input A", func() { board.Pads.Press(device.WidgetInputA) }),
		widget.NewButton("Input B", func() { board.Pads.Press(device.WidgetInputB) }),
		widget.NewButton("Aux", func() { board.Pads.Press(device.WidgetAux) }),
	)

	v.content = container.NewVBox(
		container.NewStack(canvas.NewRectangle(lcdBackground), container.NewPadded(lcd)),
		lamps,
		v.cv,
		pads,
	)

	return v
}

// Content returns the panel's root object.
func (v *View) Content() fyne.CanvasObject {
	return v.content
}

// Update schedules a redraw on the main thread. Calls closer together than
// the update interval are dropped.
func (v *View) Update(engine.Snapshot) {
	v.mu.Lock()
	now := time.Now()
	if now.Sub(v.lastUpdate) < updateInterval {
		v.mu.Unlock()
		return
	}
	v.lastUpdate = now
	v.mu.Unlock()

	fyne.Do(v.Refresh)
}

// Refresh copies the board state into the widgets. Call it on the main thread.
func (v *View) Refresh() {
	for i, row := range v.board.LCD.Rows() {
		if i < len(v.rows) && v.rows[i].Text != row {
			v.rows[i].Text = row
			v.rows[i].Refresh()
		}
	}

	for _, l := range v.lamps {
		c := dim(l.on, l.lamp.Brightness())
		if l.circle.FillColor != c {
			l.circle.FillColor = c
			l.circle.Refresh()
		}
	}

	v.cv.SetValue(float64(v.board.Main.Level()))
}

// dim blends from the unlit lamp color to on by brightness b.
func dim(on color.NRGBA, b float32) color.NRGBA {
	mix := func(off, on uint8) uint8 {
		return uint8(float32(off) + (float32(on)-float32(off))*b + 0.5)
	}
	return color.NRGBA{
		R: mix(lampOff.R, on.R),
		G: mix(lampOff.G, on.G),
		B: mix(lampOff.B, on.B),
		A: 255,
	}
}
