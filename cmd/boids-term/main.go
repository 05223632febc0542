package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"
	"github.com/lao-tseu-is-alive/go-flock-simulation/internal/view"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/simulation"
	"github.com/tochemey/goakt/v3/log"
)

func main() {
	var configFile string
	var agents, tps int
	flag.StringVar(&configFile, "config", "configs/flock.json", "JSON configuration file, empty for built-in defaults")
	flag.IntVar(&agents, "agents", 1500, "number of agents, negative keeps the configured value")
	flag.IntVar(&tps, "tps", 30, "frames per second")
	flag.Parse()

	if tps <= 0 {
		fmt.Println("error: -tps must be > 0")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// the terminal belongs to tcell, logs would garble it
	host, err := simulation.StartHost(ctx, cfg, log.DiscardLogger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start the world: %v\n", err)
		os.Exit(1)
	}
	defer host.Stop(context.Background())

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	if err := view.NewTermView(screen).Run(ctx, host, tps); err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
