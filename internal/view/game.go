// Package view holds the front ends of the flock: an ebiten window and a terminal view.
// Both only talk to the world through a simulation.Host.
package view

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/ui"
	"github.com/tochemey/goakt/v3/log"
	"golang.org/x/image/colornames"
)

// tunable binds a panel slider to the configuration key it overrides.
type tunable struct {
	key    string
	slider *ui.Slider
}

type Game struct {
	ctx       context.Context
	host      *simulation.Host
	logger    log.Logger
	cfg       *simulation.Config
	lastState *simulation.WorldSnapshot

	// UI Controls
	panel        *ui.UIPanel
	tunables     []tunable
	minSpeed     *ui.Slider
	maxSpeed     *ui.Slider
	displayGrid  *ui.Checkbox
	displaySight *ui.Checkbox
	paused       bool

	status      string
	statusUntil time.Time

	// Timing instrumentation
	updateAvg float64 // Rolling average in ms
	drawAvg   float64 // Rolling average in ms
}

// NewGame builds the window front end of host. cfg gives the initial slider values.
func NewGame(ctx context.Context, host *simulation.Host, cfg *simulation.Config, logger log.Logger) *Game {
	g := &Game{
		ctx:    ctx,
		host:   host,
		logger: logger,
		cfg:    cfg,
	}

	panel := ui.NewUIPanel(10, 10, 260, cfg.WorldHeight-20)
	panel.AddSection("Neighbourhood")
	g.addTunable(panel, "sightRadius", "Sight Radius", 1, 100, cfg.SightRadius)
	panel.EndSection()

	panel.AddSection("Boids Flocking")
	g.addTunable(panel, "repelWeight", "Repel Weight", 0, 20, cfg.RepelWeight)
	g.addTunable(panel, "alignWeight", "Align Weight", 0, 0.5, cfg.AlignWeight).Format = "%.3f"
	g.addTunable(panel, "cohesionWeight", "Cohesion Weight", 0, 0.5, cfg.CohesionWeight).Format = "%.3f"
	panel.EndSection()

	panel.AddSection("Speed")
	g.minSpeed = g.addTunable(panel, "minSpeed", "Min Speed", 0, 100, cfg.MinSpeed)
	g.minSpeed.Format = "%.0f"
	g.maxSpeed = g.addTunable(panel, "maxSpeed", "Max Speed", 10, 400, cfg.MaxSpeed)
	g.maxSpeed.Format = "%.0f"
	panel.EndSection()

	panel.AddSection("Visualization")
	g.displayGrid = panel.AddCheckbox("Show Index Grid", cfg.DisplayGrid)
	g.displaySight = panel.AddCheckbox("Show Sight Radius", cfg.DisplaySightRadius)
	panel.AddButton("Copy stats (C)", g.copyStats)
	panel.EndSection()

	g.panel = panel
	return g
}

func (g *Game) addTunable(panel *ui.UIPanel, key, label string, lo, hi, value float64) *ui.Slider {
	s := panel.AddSlider(label, lo, hi, value)
	g.tunables = append(g.tunables, tunable{key: key, slider: s})
	return s
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		// Rolling average (exponential moving average)
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.panel.Hidden = !g.panel.Hidden
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.copyStats()
	}

	g.panel.Update()
	g.sendOverrides()

	// Retrieve Latest State (Non-blocking)
	select {
	case snap := <-g.host.Snapshots:
		g.lastState = snap
	default:
		// Use previous state if new one isn't ready
	}

	if !g.paused {
		if err := g.host.Tick(g.ctx, time.Second/time.Duration(ebiten.TPS())); err != nil {
			return fmt.Errorf("failed to tick world: %w", err)
		}
	}
	return nil
}

// sendOverrides forwards the sliders moved since the last update to the world.
func (g *Game) sendOverrides() {
	overrides := changedOverrides(g.tunables)
	keepSpeedOrder(overrides, g.minSpeed, g.maxSpeed)
	if len(overrides) == 0 {
		return
	}
	if err := g.host.Tune(g.ctx, overrides); err != nil {
		g.logger.Warnf("failed to send configuration update: %v", err)
	}
}

func changedOverrides(tunables []tunable) map[string]any {
	var overrides map[string]any
	for _, t := range tunables {
		if t.slider.Changed() {
			if overrides == nil {
				overrides = make(map[string]any)
			}
			overrides[t.key] = t.slider.Value
		}
	}
	return overrides
}

// keepSpeedOrder drags the other speed slider along when a move would put the
// minimum above the maximum, and sends both values together.
func keepSpeedOrder(overrides map[string]any, minSpeed, maxSpeed *ui.Slider) {
	if minSpeed.Value <= maxSpeed.Value {
		return
	}
	if _, moved := overrides["maxSpeed"]; moved {
		minSpeed.SetValue(maxSpeed.Value)
	} else if _, moved := overrides["minSpeed"]; moved {
		maxSpeed.SetValue(minSpeed.Value)
	} else {
		return
	}
	minSpeed.Changed()
	maxSpeed.Changed()
	overrides["minSpeed"] = minSpeed.Value
	overrides["maxSpeed"] = maxSpeed.Value
}

func (g *Game) copyStats() {
	line := statusLine(g.lastState)
	if err := clipboard.WriteAll(line); err != nil {
		g.logger.Warnf("failed to copy stats to clipboard: %v", err)
		g.flash("clipboard unavailable")
		return
	}
	g.flash("stats copied to clipboard")
}

func (g *Game) flash(msg string) {
	g.status = msg
	g.statusUntil = time.Now().Add(2 * time.Second)
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	screen.Fill(colornames.Midnightblue)
	if g.lastState != nil {
		if g.displayGrid.Value {
			g.drawGrid(screen)
		}
		g.drawAgents(screen)
	}

	g.panel.Draw(screen)
	g.drawHUD(screen)
}

func (g *Game) drawGrid(screen *ebiten.Image) {
	b, cs := g.lastState.Bounds, g.lastState.CellSize
	clr := color.RGBA{R: 80, G: 80, B: 120, A: 120}
	for x := b.Min.X(); x <= b.Max.X(); x += cs {
		vector.StrokeLine(screen, float32(x), float32(b.Min.Y()), float32(x), float32(b.Max.Y()), 1, clr, false)
	}
	for y := b.Min.Y(); y <= b.Max.Y(); y += cs {
		vector.StrokeLine(screen, float32(b.Min.X()), float32(y), float32(b.Max.X()), float32(y), 1, clr, false)
	}
}

func (g *Game) drawAgents(screen *ebiten.Image) {
	scale := g.cfg.SpriteScale
	sight := float32(g.lastState.SightRadius)
	sightClr := color.RGBA{R: 50, G: 100, B: 255, A: 50}

	op := &ebiten.DrawImageOptions{}
	for _, a := range g.lastState.Agents {
		if g.displaySight.Value {
			vector.StrokeCircle(screen, float32(a.Pos.X), float32(a.Pos.Y), sight, 1, sightClr, true)
		}

		img := spriteFor(a.Sprite)
		w, h := img.Bounds().Dx(), img.Bounds().Dy()
		op.GeoM.Reset()
		// Center the origin of the image
		op.GeoM.Translate(-float64(w)/2, -float64(h)/2)
		op.GeoM.Scale(scale, scale)
		// Sprites face "Up", the facing angle is measured from +X
		op.GeoM.Rotate(a.Angle + math.Pi/2)
		op.GeoM.Translate(a.Pos.X, a.Pos.Y)
		screen.DrawImage(img, op)
	}
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	msg := fmt.Sprintf("FPS: %.2f\nTPS: %.2f\n\nUpdate: %.2fms\nDraw:   %.2fms",
		ebiten.ActualFPS(), ebiten.ActualTPS(), g.updateAvg, g.drawAvg)
	if g.lastState != nil {
		st := g.lastState.Stats
		msg += fmt.Sprintf("\nStep:   %.2fms\n\nAgents: %d\nNeigh.: %.2f\nCells:  %d/%d\nMax:    %d",
			float64(st.Duration.Microseconds())/1000.0, st.Agents, st.MeanNeighbors(),
			g.lastState.Index.Occupied, g.lastState.Index.Cells, g.lastState.Index.MaxLoad)
	}
	if g.paused {
		msg += "\n\nPAUSED (space)"
	}
	sw := screen.Bounds().Dx()
	ebitenutil.DebugPrintAt(screen, msg, sw-150, 10)

	if time.Now().Before(g.statusUntil) {
		ebitenutil.DebugPrintAt(screen, g.status, sw/2-len(g.status)*3, screen.Bounds().Dy()-20)
	}
}

func (g *Game) Layout(w, h int) (int, int) { return int(g.cfg.WorldWidth), int(g.cfg.WorldHeight) }
