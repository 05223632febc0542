package simulation

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"strings"
	"time"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/spatial"
	"github.com/tochemey/goakt/v3/log"
)

// ErrUnknownAgent is returned when an id does not name a live agent.
var ErrUnknownAgent = errors.New("unknown agent")

// FramePolicy decides which neighbour state an agent observes during a frame.
type FramePolicy int

const (
	// DoubleBuffer computes every agent against the state frozen at frame start,
	// then commits all results. The outcome does not depend on agent order.
	DoubleBuffer FramePolicy = iota
	// Sequential updates agents one after the other in place: an agent sees the
	// already updated state of the agents processed before it in the same frame.
	Sequential
)

func (p FramePolicy) String() string {
	switch p {
	case DoubleBuffer:
		return "double-buffer"
	case Sequential:
		return "sequential"
	}
	return fmt.Sprintf("FramePolicy(%d)", int(p))
}

// ParseFramePolicy maps a configuration string to a FramePolicy.
func ParseFramePolicy(s string) (FramePolicy, error) {
	switch strings.ToLower(s) {
	case "", "double-buffer":
		return DoubleBuffer, nil
	case "sequential":
		return Sequential, nil
	}
	return DoubleBuffer, fmt.Errorf("unknown frame policy %q", s)
}

// minAgentsPerWorker keeps tiny flocks on one goroutine.
const minAgentsPerWorker = 256

// Simulator owns the agent table and the spatial index and advances the flock.
type Simulator struct {
	bounds geometry.Bounds
	index  *spatial.Grid
	policy FramePolicy

	sight   float64
	weights behavior.Weights
	limits  behavior.Limits

	agents []Agent
	free   []AgentID
	live   int

	// double-buffer write side and per-worker scratch
	next    []Agent
	workers int
	scratch [][]spatial.ID
	wstats  []FrameStats

	frame      uint64
	initVelMin float64
	initVelMax float64
	rng        *rand.Rand
	logger     log.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger sets the logger (default log.DiscardLogger).
func WithLogger(l log.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

// WithRand sets the random source used to populate the world.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) { s.rng = r }
}

// NewSimulator builds an empty world from cfg. The spatial index is sized once
// here and never rebuilt.
func NewSimulator(cfg *Config, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	boundsPolicy, _ := spatial.ParseBoundsPolicy(cfg.BoundsPolicy)
	framePolicy, _ := ParseFramePolicy(cfg.FramePolicy)

	bounds := geometry.NewBounds(0, 0, cfg.WorldWidth, cfg.WorldHeight)
	index, err := spatial.NewGrid(bounds.Bound, cfg.CellSize, spatial.WithBoundsPolicy(boundsPolicy))
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		bounds:     bounds,
		index:      index,
		policy:     framePolicy,
		workers:    cfg.Workers,
		initVelMin: cfg.InitialVelocityMin,
		initVelMax: cfg.InitialVelocityMax,
		logger:     log.DiscardLogger,
	}
	s.Retune(cfg)
	for _, opt := range opts {
		opt(s)
	}

	if s.rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	if s.workers <= 0 {
		s.workers = runtime.GOMAXPROCS(0)
	}
	s.scratch = make([][]spatial.ID, s.workers)
	s.wstats = make([]FrameStats, s.workers)

	cols, rows := index.Dims()
	s.logger.Infof("Flock world %s, index %dx%d cells of %.1f (%s), frame policy %s, %d workers",
		bounds, cols, rows, cfg.CellSize, boundsPolicy, framePolicy, s.workers)
	return s, nil
}

// Retune applies the parameters that may change while the flock runs:
// sight radius, rule weights and speed limits. cfg must be valid.
func (s *Simulator) Retune(cfg *Config) {
	s.sight = cfg.SightRadius
	s.weights = behavior.Weights{
		Repel:    cfg.RepelWeight,
		Align:    cfg.AlignWeight,
		Cohesion: cfg.CohesionWeight,
	}
	s.limits = behavior.Limits{MinSpeed: cfg.MinSpeed, MaxSpeed: cfg.MaxSpeed}
}

// Spawn adds an agent and files it in the index. It fails only when the index
// rejects the position.
func (s *Simulator) Spawn(pos, vel geometry.Vector2D) (AgentID, error) {
	var id AgentID
	if n := len(s.free); n > 0 {
		id = s.free[n-1]
	} else {
		id = len(s.agents)
	}

	if s.index.Policy() == spatial.Clamp && pos.IsFinite() {
		pos = s.bounds.Clamp(pos)
	}
	h, err := s.index.Insert(geometry.PointRegion(pos), id)
	if err != nil {
		return 0, fmt.Errorf("spawn at %v: %w", pos, err)
	}

	a := Agent{Pos: pos, Vel: vel, Sprite: SpriteID(id % SpriteCount), handle: h, alive: true}
	if id == len(s.agents) {
		s.agents = append(s.agents, a)
	} else {
		s.free = s.free[:len(s.free)-1]
		s.agents[id] = a
	}
	s.live++
	return id, nil
}

// Populate spawns n agents spread uniformly over the world, with velocity
// components drawn uniformly from the configured initial range.
func (s *Simulator) Populate(n int) error {
	w, h := s.bounds.Width(), s.bounds.Height()
	span := s.initVelMax - s.initVelMin
	for i := 0; i < n; i++ {
		pos := geometry.Vector2D{
			X: s.bounds.Min.X() + s.rng.Float64()*w,
			Y: s.bounds.Min.Y() + s.rng.Float64()*h,
		}
		vel := geometry.Vector2D{
			X: s.initVelMin + s.rng.Float64()*span,
			Y: s.initVelMin + s.rng.Float64()*span,
		}
		if _, err := s.Spawn(pos, vel); err != nil {
			return err
		}
	}
	s.logger.Infof("Spawned %d agents, population is now %d", n, s.live)
	return nil
}

// Remove takes an agent out of the world. Its slot is tombstoned and may be
// reused by a later Spawn.
func (s *Simulator) Remove(id AgentID) error {
	if id < 0 || id >= len(s.agents) || !s.agents[id].alive {
		return fmt.Errorf("remove %d: %w", id, ErrUnknownAgent)
	}
	s.index.Remove(s.agents[id].handle, id)
	s.agents[id] = Agent{}
	s.free = append(s.free, id)
	s.live--
	return nil
}

// Agent returns a copy of the agent stored under id.
func (s *Simulator) Agent(id AgentID) (Agent, bool) {
	if id < 0 || id >= len(s.agents) || !s.agents[id].alive {
		return Agent{}, false
	}
	return s.agents[id], true
}

// Len is the number of live agents.
func (s *Simulator) Len() int { return s.live }

// Frame is the number of frames stepped so far.
func (s *Simulator) Frame() uint64 { return s.frame }

// Bounds of the world.
func (s *Simulator) Bounds() geometry.Bounds { return s.bounds }

// SightRadius currently in effect.
func (s *Simulator) SightRadius() float64 { return s.sight }

// CellSize of the spatial index.
func (s *Simulator) CellSize() float64 { return s.index.CellSize() }

// IndexStats reports the load of the spatial index.
func (s *Simulator) IndexStats() spatial.Stats { return s.index.Stats() }

// Candidates appends the raw index answer for a radius query around p: a superset
// of the agents within radius.
func (s *Simulator) Candidates(p geometry.Vector2D, radius float64, dst []AgentID) []AgentID {
	return s.index.Query(geometry.RadiusRegion(p, radius), dst)
}

// Neighbors appends the live agents within the sight radius of agent id,
// excluding id itself.
func (s *Simulator) Neighbors(id AgentID, dst []AgentID) []AgentID {
	self, ok := s.Agent(id)
	if !ok {
		return dst
	}
	start := len(dst)
	dst = s.Candidates(self.Pos, s.sight, dst)
	r2 := s.sight * s.sight
	kept := dst[:start]
	for _, j := range dst[start:] {
		if j == id || !s.agents[j].alive {
			continue
		}
		if self.Pos.DistanceSquaredTo(s.agents[j].Pos) <= r2 {
			kept = append(kept, j)
		}
	}
	return kept
}
