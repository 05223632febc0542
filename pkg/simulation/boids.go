package simulation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/spatial"
	"golang.org/x/sync/errgroup"
)

// a compute worker polls its context once per this many agents
const cancelCheckEvery = 64

// FrameStats describes one call to Step.
type FrameStats struct {
	Frame      uint64
	Agents     int
	Candidates int // ids returned by the index, before the distance filter
	Neighbors  int // neighbours kept after the distance filter
	Rejected   int // index updates refused by the Reject bounds policy
	Duration   time.Duration
}

// MeanNeighbors is the average number of neighbours seen by an agent.
func (f FrameStats) MeanNeighbors() float64 {
	if f.Agents == 0 {
		return 0
	}
	return float64(f.Neighbors) / float64(f.Agents)
}

func (f FrameStats) String() string {
	return fmt.Sprintf("frame=%d agents=%d neighbours(mean=%.2f) candidates=%d rejected=%d step=%s",
		f.Frame, f.Agents, f.MeanNeighbors(), f.Candidates, f.Rejected, f.Duration)
}

func (f *FrameStats) add(o FrameStats) {
	f.Candidates += o.Candidates
	f.Neighbors += o.Neighbors
}

// Step advances every live agent by dt seconds, then reports each of them to r
// (which may be nil). A negative or non-finite dt is treated as zero: velocities
// are steered but nobody moves.
// When ctx is done before the frame is committed, Step returns its error and the
// world is left as it was: no agent moved and r is not called.
func (s *Simulator) Step(ctx context.Context, dt float64, r Renderer) (FrameStats, error) {
	start := time.Now()
	if !(dt > 0) || math.IsInf(dt, 0) {
		dt = 0
	}

	var (
		stats FrameStats
		err   error
	)
	switch s.policy {
	case Sequential:
		stats, err = s.stepSequential(ctx, dt)
	default:
		stats, err = s.stepBuffered(ctx, dt)
	}
	if err != nil {
		return FrameStats{}, fmt.Errorf("frame %d aborted: %w", s.frame+1, err)
	}

	s.Draw(r)

	s.frame++
	stats.Frame = s.frame
	stats.Agents = s.live
	stats.Duration = time.Since(start)
	return stats, nil
}

// Draw reports every live agent to r, in id order, without advancing the world.
func (s *Simulator) Draw(r Renderer) {
	if r == nil {
		return
	}
	for id := range s.agents {
		a := &s.agents[id]
		if a.alive {
			r.DrawAgent(id, a.Pos, a.Vel.Angle(), a.Sprite)
		}
	}
}

// steer computes the next state of agent id from the agents table as it is now.
// buf is scratch space for the index query and is returned for reuse.
func (s *Simulator) steer(id AgentID, self Agent, dt float64, buf []spatial.ID, st *FrameStats) (Agent, []spatial.ID) {
	buf = s.index.Query(geometry.RadiusRegion(self.Pos, s.sight), buf[:0])
	st.Candidates += len(buf)

	var steering behavior.Steering
	r2 := s.sight * s.sight
	for _, j := range buf {
		if j == id {
			continue
		}
		other := &s.agents[j]
		if !other.alive || self.Pos.DistanceSquaredTo(other.Pos) > r2 {
			continue
		}
		steering.Observe(self.Pos, behavior.Neighbor{ID: j, Pos: other.Pos, Vel: other.Vel})
	}
	st.Neighbors += steering.Neighbors()

	self.Vel = s.limits.Clamp(steering.Apply(self.Pos, self.Vel, s.weights), self.Vel)
	self.Pos = s.bounds.Wrap(self.Pos.Add(self.Vel.Mul(dt)))
	return self, buf
}

// relocate files agent id at its new position. When the index refuses the move
// the agent is put back where it was so its handle stays true.
func (s *Simulator) relocate(id AgentID, a *Agent, previous geometry.Vector2D) bool {
	h, err := s.index.Update(geometry.PointRegion(a.Pos), id, a.handle)
	if err != nil {
		s.logger.Debugf("agent %d stays at %v: %v", id, previous, err)
		a.Pos = previous
		return false
	}
	a.handle = h
	return true
}

// stepBuffered runs the compute phase against the frozen table, in parallel,
// then commits every result and its index move. Nothing is committed when a
// worker fails.
func (s *Simulator) stepBuffered(ctx context.Context, dt float64) (FrameStats, error) {
	n := len(s.agents)
	if cap(s.next) < n {
		s.next = make([]Agent, n)
	}
	s.next = s.next[:n]

	workers := s.workers
	if most := (n + minAgentsPerWorker - 1) / minAgentsPerWorker; workers > most {
		workers = max(most, 1)
	}
	chunk := (n + workers - 1) / max(workers, 1)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, min((w+1)*chunk, n)
		s.wstats[w] = FrameStats{}
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			buf := s.scratch[w]
			st := &s.wstats[w]
			for id := lo; id < hi; id++ {
				if (id-lo)%cancelCheckEvery == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				if !s.agents[id].alive {
					s.next[id] = s.agents[id]
					continue
				}
				s.next[id], buf = s.steer(id, s.agents[id], dt, buf, st)
			}
			s.scratch[w] = buf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return FrameStats{}, err
	}

	var stats FrameStats
	for w := 0; w < workers; w++ {
		stats.add(s.wstats[w])
	}

	for id := range s.next {
		a := &s.next[id]
		if !a.alive {
			continue
		}
		if !s.relocate(id, a, s.agents[id].Pos) {
			stats.Rejected++
		}
	}
	s.agents, s.next = s.next, s.agents
	return stats, nil
}

// stepSequential updates agents in id order, writing each back before the next
// one is steered. Agents are written back as they go, so ctx is only checked
// before the first one.
func (s *Simulator) stepSequential(ctx context.Context, dt float64) (FrameStats, error) {
	if err := ctx.Err(); err != nil {
		return FrameStats{}, err
	}
	var stats FrameStats
	buf := s.scratch[0]
	for id := range s.agents {
		if !s.agents[id].alive {
			continue
		}
		previous := s.agents[id].Pos
		var next Agent
		next, buf = s.steer(id, s.agents[id], dt, buf, &stats)
		if !s.relocate(id, &next, previous) {
			stats.Rejected++
		}
		s.agents[id] = next
	}
	s.scratch[0] = buf
	return stats, nil
}
