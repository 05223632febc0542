package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// UIWidget is an interface for all UI widgets
type UIWidget interface {
	Update(p Pointer)
	Draw(screen *ebiten.Image)
	GetHeight() float64
	setY(y float64)
}

// SliderWrapper wraps Slider to implement UIWidget
type SliderWrapper struct {
	*Slider
}

func (s *SliderWrapper) GetHeight() float64 {
	return s.H + 25 // Slider height + label space
}

func (s *SliderWrapper) setY(y float64) { s.Y = y }

// CheckboxWrapper wraps Checkbox to implement UIWidget
type CheckboxWrapper struct {
	*Checkbox
}

func (c *CheckboxWrapper) GetHeight() float64 {
	return c.Size + 20 // Checkbox size + label space
}

func (c *CheckboxWrapper) setY(y float64) { c.Y = y }

// ButtonWrapper wraps Button to implement UIWidget
type ButtonWrapper struct {
	*Button
}

func (b *ButtonWrapper) GetHeight() float64 {
	return b.Height + 10
}

func (b *ButtonWrapper) setY(y float64) { b.Y = y - 15 }

// UIPanel manages a collection of UI widgets in a scrollable panel
type UIPanel struct {
	X, Y          float64 // Panel position
	Width, Height float64 // Panel dimensions
	Title         string
	Widgets       []UIWidget
	Labels        []string // Labels for widgets
	ScrollOffset  float64  // Current scroll position
	Hidden        bool

	// Styling
	BGColor     color.RGBA
	BorderColor color.RGBA

	// Section headers
	sections []PanelSection
}

// PanelSection groups the widgets added between AddSection and EndSection.
type PanelSection struct {
	Title      string
	StartIndex int // Widget index where this section starts
	EndIndex   int // Widget index where this section ends (exclusive)
}

// NewUIPanel creates a new UI panel
func NewUIPanel(x, y, width, height float64) *UIPanel {
	return &UIPanel{
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		Title:       "Configuration",
		BGColor:     color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor: color.RGBA{R: 100, G: 100, B: 110, A: 255},
	}
}

// AddSection adds a section header
func (p *UIPanel) AddSection(title string) {
	p.sections = append(p.sections, PanelSection{
		Title:      title,
		StartIndex: len(p.Widgets),
		EndIndex:   len(p.Widgets),
	})
}

// EndSection closes the current section
func (p *UIPanel) EndSection() {
	if len(p.sections) > 0 {
		p.sections[len(p.sections)-1].EndIndex = len(p.Widgets)
	}
}

// AddSlider adds a slider widget to the panel
func (p *UIPanel) AddSlider(label string, min, max, value float64) *Slider {
	yOffset := p.calculateNextYOffset()
	slider := NewSlider(
		p.X+10,         // X position with margin
		p.Y+yOffset+45, // Y position
		p.Width-20,     // Width with margins
		label,
		min, max, value,
	)
	p.add(&SliderWrapper{slider}, label)
	return slider
}

// AddCheckbox adds a checkbox widget to the panel
func (p *UIPanel) AddCheckbox(label string, value bool) *Checkbox {
	yOffset := p.calculateNextYOffset()
	checkbox := NewCheckbox(p.X+10, p.Y+yOffset+45, label, value)
	p.add(&CheckboxWrapper{checkbox}, label)
	return checkbox
}

// AddButton adds a full width button to the panel
func (p *UIPanel) AddButton(label string, onClick func()) *Button {
	yOffset := p.calculateNextYOffset()
	button := NewButton(p.X+10, p.Y+yOffset+30, p.Width-20, 20, label, onClick)
	p.add(&ButtonWrapper{button}, "")
	return button
}

func (p *UIPanel) add(w UIWidget, label string) {
	p.Widgets = append(p.Widgets, w)
	p.Labels = append(p.Labels, label)
	if n := len(p.sections); n > 0 {
		p.sections[n-1].EndIndex = len(p.Widgets)
	}
}

// calculateNextYOffset calculates the Y offset for the next widget
func (p *UIPanel) calculateNextYOffset() float64 {
	offset := float64(len(p.sections)) * 25
	for _, widget := range p.Widgets {
		offset += widget.GetHeight()
	}
	return offset
}

// Update reads the mouse from ebiten and forwards it to the widgets.
func (p *UIPanel) Update() {
	_, dy := ebiten.Wheel()
	p.HandleInput(CurrentPointer(), dy)
}

// HandleInput scrolls by wheel notches and updates every widget with the pointer.
// Nothing reacts while the panel is hidden.
func (p *UIPanel) HandleInput(ptr Pointer, wheel float64) {
	if p.Hidden {
		return
	}
	if wheel != 0 {
		p.ScrollOffset -= wheel * 20
		maxScroll := max(p.calculateTotalHeight()-p.Height+40, 0)
		p.ScrollOffset = min(max(p.ScrollOffset, 0), maxScroll)
	}
	for _, widget := range p.Widgets {
		widget.Update(ptr)
	}
}

// Draw renders the panel and all widgets
func (p *UIPanel) Draw(screen *ebiten.Image) {
	if p.Hidden {
		return
	}
	vector.FillRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		p.BGColor, true)
	vector.StrokeRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		2, p.BorderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+10), int(p.Y+5))

	currentY := p.Y + 30 - p.ScrollOffset
	for _, section := range p.sections {
		if currentY >= p.Y-25 && currentY <= p.Y+p.Height {
			vector.FillRect(screen,
				float32(p.X+5), float32(currentY),
				float32(p.Width-10), 20,
				color.RGBA{R: 60, G: 60, B: 70, A: 255}, true)
			ebitenutil.DebugPrintAt(screen, section.Title, int(p.X+10), int(currentY+5))
		}
		currentY += 25

		for i := section.StartIndex; i < section.EndIndex && i < len(p.Widgets); i++ {
			widget := p.Widgets[i]
			// widgets follow the scroll position, the hidden ones are parked above the panel
			if currentY >= p.Y+25 && currentY+widget.GetHeight() <= p.Y+p.Height {
				if p.Labels[i] != "" {
					ebitenutil.DebugPrintAt(screen, p.Labels[i], int(p.X+10), int(currentY))
				}
				widget.setY(currentY + 15)
				widget.Draw(screen)
			} else {
				widget.setY(-1000)
			}
			currentY += widget.GetHeight()
		}
	}
}

// calculateTotalHeight calculates the total content height
func (p *UIPanel) calculateTotalHeight() float64 {
	return 30 + p.calculateNextYOffset()
}

// Contains reports whether the pointer is over the visible panel.
func (p *UIPanel) Contains(ptr Pointer) bool {
	return !p.Hidden && ptr.Inside(p.X, p.Y, p.Width, p.Height)
}
