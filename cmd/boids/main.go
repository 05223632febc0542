package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lao-tseu-is-alive/go-flock-simulation/internal/view"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/simulation"
)

func main() {
	var configFile, logLevel string
	var agents int
	flag.StringVar(&configFile, "config", "configs/flock.json", "JSON configuration file, empty for built-in defaults")
	flag.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	flag.IntVar(&agents, "agents", -1, "override the number of agents")
	flag.Parse()

	cfg, err := simulation.LoadConfigOrDefault(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if agents >= 0 {
		cfg.NumAgents = agents
	}

	ctx := context.Background()
	logger := simulation.NewLogger(logLevel)
	host, err := simulation.StartHost(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("failed to start the world: %v", err)
	}
	defer host.Stop(ctx)

	ebiten.SetWindowSize(int(cfg.WorldWidth), int(cfg.WorldHeight))
	ebiten.SetWindowTitle(fmt.Sprintf("Flock: %d boids", cfg.NumAgents))

	game := view.NewGame(ctx, host, cfg, logger)
	if err := ebiten.RunGame(game); err != nil {
		logger.Errorf("game stopped: %v", err)
	}
}
