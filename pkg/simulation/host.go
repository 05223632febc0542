package simulation

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const askTimeout = 2 * time.Second

// Host runs a WorldActor inside its own actor system and gives the front ends
// a typed way to talk to it.
type Host struct {
	System    actor.ActorSystem
	World     *actor.PID
	Snapshots <-chan *WorldSnapshot
}

// StartHost creates the actor system, spawns the world and waits until it is
// populated.
func StartHost(ctx context.Context, cfg *Config, logger log.Logger) (*Host, error) {
	system, err := actor.NewActorSystem("FlockSimulationSystem",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		return nil, fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start actor system: %w", err)
	}

	// Buffer to avoid blocking the world when the UI is slow
	snapshotCh := make(chan *WorldSnapshot, 10)
	pid, err := system.Spawn(ctx, "world", NewWorldActor(snapshotCh, cfg))
	if err != nil {
		_ = system.Stop(ctx)
		return nil, fmt.Errorf("failed to spawn world: %w", err)
	}
	return &Host{System: system, World: pid, Snapshots: snapshotCh}, nil
}

// Tick asks the world to advance one frame of length dt.
func (h *Host) Tick(ctx context.Context, dt time.Duration) error {
	return actor.Tell(ctx, h.World, durationpb.New(dt))
}

// Tune sends configuration overrides, keyed by their JSON name. Settings the
// running world cannot pick up are refused with ErrNotLive and nothing is sent.
// Values are validated by the world itself, which logs and drops a bad update.
func (h *Host) Tune(ctx context.Context, overrides map[string]any) error {
	msg, err := structpb.NewStruct(overrides)
	if err != nil {
		return fmt.Errorf("invalid overrides: %w", err)
	}
	if err := CheckLiveOverrides(msg); err != nil {
		return err
	}
	return actor.Tell(ctx, h.World, msg)
}

// Stats returns the statistics of the last frame, as the world reports them.
func (h *Host) Stats(ctx context.Context) (map[string]any, error) {
	reply, err := actor.Ask(ctx, h.World, &emptypb.Empty{}, askTimeout)
	if err != nil {
		return nil, err
	}
	s, ok := reply.(*structpb.Struct)
	if !ok {
		return nil, fmt.Errorf("unexpected stats reply %T", reply)
	}
	return s.AsMap(), nil
}

// Stop shuts the actor system down.
func (h *Host) Stop(ctx context.Context) error {
	return h.System.Stop(ctx)
}

// NewLogger builds the console logger used by the binaries. level is one of
// debug, info, warn or error; anything else means info.
func NewLogger(level string) log.Logger {
	lvl := log.InfoLevel
	switch level {
	case "debug":
		lvl = log.DebugLevel
	case "warn":
		lvl = log.WarningLevel
	case "error":
		lvl = log.ErrorLevel
	}
	return log.New(lvl, os.Stdout)
}
