package ui

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/colornames"
)

// Slider is a horizontal bar selecting a value in [Min, Max].
type Slider struct {
	Label    string
	Value    float64
	Min, Max float64
	X, Y     float64
	W, H     float64
	Format   string // fmt verb used to print the value, "%.2f" by default

	changed bool
}

// NewSlider creates a slider; value is clamped into [min, max].
func NewSlider(x, y, w float64, label string, min, max, value float64) *Slider {
	s := &Slider{
		Label:  label,
		Min:    min,
		Max:    max,
		X:      x,
		Y:      y,
		W:      w,
		H:      10,
		Format: "%.2f",
	}
	s.Value = s.clamp(value)
	return s
}

// Update moves the value to the pointer while the button is held inside the bar.
func (s *Slider) Update(p Pointer) {
	if !p.Pressed || !p.Inside(s.X, s.Y, s.W, s.H) {
		return
	}
	s.SetValue(s.Min + (float64(p.X)-s.X)/s.W*(s.Max-s.Min))
}

// SetValue clamps v into range and records a change when it differs.
func (s *Slider) SetValue(v float64) {
	v = s.clamp(v)
	if v != s.Value {
		s.Value = v
		s.changed = true
	}
}

// Changed reports whether the value moved since the previous call.
func (s *Slider) Changed() bool {
	c := s.changed
	s.changed = false
	return c
}

func (s *Slider) clamp(v float64) float64 {
	return min(max(v, s.Min), s.Max)
}

// Draw renders the slider
func (s *Slider) Draw(screen *ebiten.Image) {
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W), float32(s.H), colornames.Dimgray, true)

	ratio := 0.0
	if s.Max > s.Min {
		ratio = (s.Value - s.Min) / (s.Max - s.Min)
	}
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W*ratio), float32(s.H), color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)

	text := fmt.Sprintf(s.Format, s.Value)
	ebitenutil.DebugPrintAt(screen, text, int(s.X+s.W)-len(text)*6, int(s.Y)-15)
}
