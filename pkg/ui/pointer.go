package ui

import "github.com/hajimehoshi/ebiten/v2"

// Pointer is the mouse state a widget reacts to during one update.
type Pointer struct {
	X, Y    int
	Pressed bool
}

// CurrentPointer reads the cursor and the left button from ebiten.
func CurrentPointer() Pointer {
	x, y := ebiten.CursorPosition()
	return Pointer{X: x, Y: y, Pressed: ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)}
}

// Inside reports whether the pointer is over the rectangle at (x, y) of size w x h.
func (p Pointer) Inside(x, y, w, h float64) bool {
	return float64(p.X) >= x && float64(p.X) <= x+w &&
		float64(p.Y) >= y && float64(p.Y) <= y+h
}
