package simulation

import (
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/spatial"
)

// AgentID is the slot of an agent in the simulator table. It doubles as its
// identifier in the spatial index.
type AgentID = spatial.ID

// SpriteID is the stable visual handle a renderer uses to pick an image.
type SpriteID uint8

// SpriteCount is the number of distinct sprites handed out at spawn.
const SpriteCount = 4

// Agent is one boid.
type Agent struct {
	Pos    geometry.Vector2D
	Vel    geometry.Vector2D
	Sprite SpriteID

	// where the agent is filed in the index; rewritten with every position change
	handle spatial.Handle
	alive  bool
}

// Angle is the facing angle derived from the velocity, in radians.
func (a *Agent) Angle() float64 { return a.Vel.Angle() }
