package view

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/simulation"
)

// headings maps the eight compass sectors to a glyph, starting east and turning
// clockwise on screen (y grows downwards).
var headings = [8]rune{'>', '\\', 'v', '/', '<', '\\', '^', '/'}

// headingGlyph returns the character pointing closest to angle (radians).
func headingGlyph(angle float64) rune {
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return '*'
	}
	sector := int(math.Round(angle/(math.Pi/4))) % 8
	if sector < 0 {
		sector += 8
	}
	return headings[sector]
}

var spriteStyles = [simulation.SpriteCount]tcell.Style{
	tcell.StyleDefault.Foreground(tcell.ColorAqua),
	tcell.StyleDefault.Foreground(tcell.ColorYellow),
	tcell.StyleDefault.Foreground(tcell.ColorFuchsia),
	tcell.StyleDefault.Foreground(tcell.ColorLime),
}

// TermView draws world snapshots as characters, one cell per screen position.
// The bottom line holds the status bar.
type TermView struct {
	screen tcell.Screen
	paused bool
}

func NewTermView(screen tcell.Screen) *TermView {
	return &TermView{screen: screen}
}

// cellFor maps a world position to a screen cell of the w x h drawing area.
func cellFor(snap *simulation.WorldSnapshot, x, y float64, w, h int) (int, int) {
	cx := int((x - snap.Bounds.Min.X()) / snap.Bounds.Width() * float64(w))
	cy := int((y - snap.Bounds.Min.Y()) / snap.Bounds.Height() * float64(h))
	return min(max(cx, 0), w-1), min(max(cy, 0), h-1)
}

// Render clears the screen and draws snap.
func (v *TermView) Render(snap *simulation.WorldSnapshot) {
	v.screen.Clear()
	w, h := v.screen.Size()
	if w <= 0 || h <= 1 || snap == nil {
		v.screen.Show()
		return
	}
	rows := h - 1
	for _, a := range snap.Agents {
		cx, cy := cellFor(snap, a.Pos.X, a.Pos.Y, w, rows)
		v.screen.SetContent(cx, cy, headingGlyph(a.Angle), nil, spriteStyles[int(a.Sprite)%len(spriteStyles)])
	}
	v.drawStatus(snap, w, rows)
	v.screen.Show()
}

func (v *TermView) drawStatus(snap *simulation.WorldSnapshot, w, row int) {
	status := statusLine(snap)
	if v.paused {
		status = "[paused] " + status
	}
	style := tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
	col := 0
	for _, r := range status {
		if col >= w {
			break
		}
		v.screen.SetContent(col, row, r, nil, style)
		col++
	}
	for ; col < w; col++ {
		v.screen.SetContent(col, row, ' ', nil, style)
	}
}

// Run ticks the world at tps frames per second and renders every snapshot
// until ctx is done or the user quits (q, Esc, Ctrl-C). Space pauses.
func (v *TermView) Run(ctx context.Context, host *simulation.Host, tps int) error {
	ticker := time.NewTicker(time.Second / time.Duration(tps))
	defer ticker.Stop()
	dt := time.Second / time.Duration(tps)

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	var last *simulation.WorldSnapshot
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-eventChan:
			if !v.handleInput(ev) {
				return nil
			}
			if last != nil {
				v.Render(last)
			}

		case snap := <-host.Snapshots:
			last = snap
			v.Render(snap)

		case <-ticker.C:
			if v.paused {
				continue
			}
			if err := host.Tick(ctx, dt); err != nil {
				return fmt.Errorf("failed to tick world: %w", err)
			}
		}
	}
}

// handleInput returns false when the user asked to quit.
func (v *TermView) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				v.paused = !v.paused
			}
		}
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}
