package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/simulation"
)

// boundsCheck counts the agents a renderer would see outside the world.
type boundsCheck struct {
	bounds   geometry.Bounds
	outside  int
	rendered int
}

func (c *boundsCheck) DrawAgent(_ simulation.AgentID, pos geometry.Vector2D, _ float64, _ simulation.SpriteID) {
	c.rendered++
	if !c.bounds.Contains(pos) {
		c.outside++
	}
}

func main() {
	var configFile, framePolicy, boundsPolicy, logLevel string
	var agents, frames, workers int
	var seed uint64
	var dt, cellSize float64

	flag.StringVar(&configFile, "config", "", "JSON configuration file, empty for built-in defaults")
	flag.IntVar(&agents, "agents", -1, "number of agents, negative keeps the configured value")
	flag.IntVar(&frames, "frames", 600, "frames to simulate")
	flag.Float64Var(&dt, "dt", 1.0/60, "frame length in seconds")
	flag.StringVar(&framePolicy, "frame-policy", "", "double-buffer or sequential")
	flag.StringVar(&boundsPolicy, "bounds-policy", "", "clamp or reject")
	flag.IntVar(&workers, "workers", -1, "compute workers, 0 means GOMAXPROCS")
	flag.Float64Var(&cellSize, "cell", 0, "index cell size, 0 keeps the configured value")
	flag.Uint64Var(&seed, "seed", 42, "population seed")
	flag.StringVar(&logLevel, "log-level", "warn", "debug, info, warn or error")
	flag.Parse()

	if frames <= 0 {
		fmt.Println("error: -frames must be > 0")
		return
	}

	cfg, err := simulation.LoadConfigOrDefault(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if agents >= 0 {
		cfg.NumAgents = agents
	}
	if framePolicy != "" {
		cfg.FramePolicy = framePolicy
	}
	if boundsPolicy != "" {
		cfg.BoundsPolicy = boundsPolicy
	}
	if workers >= 0 {
		cfg.Workers = workers
	}
	if cellSize > 0 {
		cfg.CellSize = cellSize
	}
	cfg.Seed = seed

	sim, err := simulation.NewSimulator(cfg, simulation.WithLogger(simulation.NewLogger(logLevel)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	start := time.Now()
	if err := sim.Populate(cfg.NumAgents); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	populate := time.Since(start)

	fmt.Printf("=== Headless Flock Report ===\n")
	fmt.Printf("agents=%d frames=%d dt=%.4f frame_policy=%s bounds_policy=%s workers=%d cell=%.1f sight=%.1f seed=%d\n\n",
		cfg.NumAgents, frames, dt, cfg.FramePolicy, cfg.BoundsPolicy, cfg.Workers, cfg.CellSize, cfg.SightRadius, seed)

	check := &boundsCheck{bounds: sim.Bounds()}
	steps := make([]time.Duration, 0, frames)
	var neighbours, candidates, rejected int
	var last simulation.FrameStats
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	for i := 0; i < frames; i++ {
		last, err = sim.Step(ctx, dt, check)
		if err != nil {
			fmt.Fprintf(os.Stderr, "stopped after %d frames: %v\n", i, err)
			break
		}
		steps = append(steps, last.Duration)
		neighbours += last.Neighbors
		candidates += last.Candidates
		rejected += last.Rejected
	}
	if len(steps) == 0 {
		os.Exit(1)
	}
	frames = len(steps)
	idx := sim.IndexStats()

	sort.Slice(steps, func(i, j int) bool { return steps[i] < steps[j] })
	var total time.Duration
	for _, d := range steps {
		total += d
	}
	agentFrames := max(cfg.NumAgents*frames, 1)

	fmt.Printf("populate: %s\n", populate)
	fmt.Printf("step: mean=%s p50=%s p95=%s max=%s (%.1f frames/sec)\n",
		total/time.Duration(frames), steps[frames/2], steps[frames*95/100], steps[frames-1],
		float64(frames)/total.Seconds())
	fmt.Printf("neighbours/agent: %.2f  candidates/agent: %.2f  filter hit rate: %.1f%%\n",
		float64(neighbours)/float64(agentFrames), float64(candidates)/float64(agentFrames),
		100*float64(neighbours)/float64(max(candidates, 1)))
	fmt.Printf("index: %s\n", idx)
	fmt.Printf("rejected index updates: %d\n", rejected)
	headings := make([]geometry.Vector2D, 0, sim.Len())
	for id := 0; id < cfg.NumAgents; id++ {
		if a, ok := sim.Agent(id); ok {
			headings = append(headings, a.Vel.Normalize())
		}
	}
	// 1 when every agent flies the same way, near 0 for random headings
	fmt.Printf("polarisation: %.3f\n\n", geometry.Average(headings).Len())

	fmt.Printf("=== Invariants ===\n")
	ok := true
	report := func(name string, pass bool, detail string) {
		status := "ok"
		if !pass {
			status = "FAIL"
			ok = false
		}
		fmt.Printf("%-32s %-4s %s\n", name, status, detail)
	}
	report("index ids == live agents", idx.IDs == sim.Len(), fmt.Sprintf("(%d / %d)", idx.IDs, sim.Len()))
	report("renderer calls == agent frames", check.rendered == cfg.NumAgents*frames, fmt.Sprintf("(%d)", check.rendered))
	report("agents inside bounds", check.outside == 0, fmt.Sprintf("(%d outside)", check.outside))
	tooFast, tooSlow := 0, 0
	for id := 0; id < cfg.NumAgents; id++ {
		a, _ := sim.Agent(id)
		speed := a.Vel.Len()
		if speed > cfg.MaxSpeed+geometry.Epsilon {
			tooFast++
		}
		if speed < cfg.MinSpeed-geometry.Epsilon {
			tooSlow++
		}
	}
	report("speed within limits", tooFast+tooSlow == 0, fmt.Sprintf("(%d fast, %d slow)", tooFast, tooSlow))
	if !ok {
		os.Exit(1)
	}
}
