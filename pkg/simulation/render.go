package simulation

import (
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/spatial"
)

// Renderer receives the state of every live agent once per frame.
// Calls are made from a single goroutine, in agent order.
type Renderer interface {
	DrawAgent(id AgentID, pos geometry.Vector2D, angle float64, sprite SpriteID)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(id AgentID, pos geometry.Vector2D, angle float64, sprite SpriteID)

func (f RendererFunc) DrawAgent(id AgentID, pos geometry.Vector2D, angle float64, sprite SpriteID) {
	f(id, pos, angle, sprite)
}

// AgentView is the render state of one agent.
type AgentView struct {
	ID     AgentID
	Pos    geometry.Vector2D
	Angle  float64
	Sprite SpriteID
}

// WorldSnapshot is what the world actor pushes to the UI after each frame.
type WorldSnapshot struct {
	Agents      []AgentView
	Stats       FrameStats
	Index       spatial.Stats
	Bounds      geometry.Bounds
	CellSize    float64
	SightRadius float64
}

// snapshotRenderer collects the frame into a WorldSnapshot.
type snapshotRenderer struct {
	views []AgentView
}

func (s *snapshotRenderer) DrawAgent(id AgentID, pos geometry.Vector2D, angle float64, sprite SpriteID) {
	s.views = append(s.views, AgentView{ID: id, Pos: pos, Angle: angle, Sprite: sprite})
}
