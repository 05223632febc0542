package simulation

import (
	"fmt"
	"time"

	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// WorldActor owns the Simulator. The render loop drives it with messages:
//
//   - *durationpb.Duration steps one frame of that length and pushes a WorldSnapshot
//   - *structpb.Struct carries configuration overrides (live tuning)
//   - *emptypb.Empty asks for the current statistics, answered with a *structpb.Struct
type WorldActor struct {
	cfg *Config
	sim *Simulator

	// Communication with UI
	snapshotCh chan<- *WorldSnapshot
	last       FrameStats

	// --- Benchmark Stats ---
	framesSinceLog int
	stepTime       time.Duration
	lastLogTime    time.Time
}

// NewWorldActor creates the world logic unit. snapshotCh may be nil when nobody
// draws the world.
func NewWorldActor(snapshotCh chan<- *WorldSnapshot, cfg *Config) *WorldActor {
	c := *cfg
	return &WorldActor{
		cfg:         &c,
		snapshotCh:  snapshotCh,
		lastLogTime: time.Now(),
	}
}

func (w *WorldActor) PreStart(ctx *actor.Context) error {
	logger := ctx.ActorSystem().Logger()
	logger.Infof("World is populating the flock with %d agents...", w.cfg.NumAgents)

	sim, err := NewSimulator(w.cfg, WithLogger(logger))
	if err != nil {
		return err
	}
	if err := sim.Populate(w.cfg.NumAgents); err != nil {
		return fmt.Errorf("failed to populate world: %w", err)
	}
	w.sim = sim
	return nil
}

func (w *WorldActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {

	case *goaktpb.PostStart:
		ctx.Logger().Infof("World started with %d agents, index %s", w.sim.Len(), w.sim.IndexStats())

	// The main simulation step, driven by the game loop
	case *durationpb.Duration:
		stats, err := w.sim.Step(ctx.Context(), msg.AsDuration().Seconds(), nil)
		if err != nil {
			ctx.Logger().Warnf("Skipping frame: %v", err)
			return
		}
		w.last = stats
		w.logBenchmarks(ctx)
		w.pushSnapshot()

	// Dynamic slider updates from UI
	case *structpb.Struct:
		if err := w.cfg.ApplyOverrides(msg); err != nil {
			ctx.Logger().Warnf("Ignoring configuration update: %v", err)
			return
		}
		w.sim.Retune(w.cfg)
		ctx.Logger().Debugf("Configuration updated: %s", msg)

	case *emptypb.Empty:
		ctx.Response(w.statsStruct())

	default:
		ctx.Unhandled()
	}
}

func (w *WorldActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("World is shutdown after %d frames...", w.sim.Frame())
	return nil
}

func (w *WorldActor) logBenchmarks(ctx *actor.ReceiveContext) {
	w.framesSinceLog++
	w.stepTime += w.last.Duration
	if elapsed := time.Since(w.lastLogTime); elapsed >= time.Second {
		mean := w.stepTime / time.Duration(w.framesSinceLog)
		ctx.Logger().Infof("📊 FRAME RATE: %.1f/sec (step: %s) | Agents: %d | Neighbours: %.2f | Index: %d entries",
			float64(w.framesSinceLog)/elapsed.Seconds(), mean, w.last.Agents, w.last.MeanNeighbors(), w.sim.IndexStats().Entries)
		w.framesSinceLog = 0
		w.stepTime = 0
		w.lastLogTime = time.Now()
	}
}

func (w *WorldActor) pushSnapshot() {
	if w.snapshotCh == nil {
		return
	}
	select {
	case w.snapshotCh <- w.buildSnapshot():
	default:
		// UI busy, skip frame
	}
}

func (w *WorldActor) buildSnapshot() *WorldSnapshot {
	rec := &snapshotRenderer{views: make([]AgentView, 0, w.sim.Len())}
	w.sim.Draw(rec)
	return &WorldSnapshot{
		Agents:      rec.views,
		Stats:       w.last,
		Index:       w.sim.IndexStats(),
		Bounds:      w.sim.Bounds(),
		CellSize:    w.sim.CellSize(),
		SightRadius: w.sim.SightRadius(),
	}
}

func (w *WorldActor) statsStruct() *structpb.Struct {
	idx := w.sim.IndexStats()
	s, _ := structpb.NewStruct(map[string]any{
		"frame":          float64(w.last.Frame),
		"agents":         w.sim.Len(),
		"candidates":     w.last.Candidates,
		"neighbours":     w.last.Neighbors,
		"meanNeighbours": w.last.MeanNeighbors(),
		"rejected":       w.last.Rejected,
		"stepMicros":     w.last.Duration.Microseconds(),
		"indexEntries":   idx.Entries,
		"indexOccupied":  idx.Occupied,
		"indexMaxLoad":   idx.MaxLoad,
		"sightRadius":    w.sim.SightRadius(),
	})
	return s
}
