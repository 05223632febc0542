package view

import (
	"fmt"
	"time"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/simulation"
)

// statusLine is the one-line summary shown by both views and copied to the clipboard.
func statusLine(snap *simulation.WorldSnapshot) string {
	if snap == nil {
		return "waiting for the world..."
	}
	st := snap.Stats
	return fmt.Sprintf("frame %d | agents %d | step %s | neighbours %.2f | candidates %d | index %s",
		st.Frame, st.Agents, st.Duration.Round(time.Microsecond), st.MeanNeighbors(), st.Candidates, snap.Index)
}
