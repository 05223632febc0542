package spatial

import "fmt"

// Stats summarises how the grid is loaded.
type Stats struct {
	Cells    int // total cells
	Occupied int // cells holding at least one entry
	Entries  int // cell entries, counts a multi-cell id once per cell
	IDs      int // distinct ids filed
	MaxLoad  int // entries in the fullest cell
}

// MeanLoad is the average number of entries per occupied cell.
func (s Stats) MeanLoad() float64 {
	if s.Occupied == 0 {
		return 0
	}
	return float64(s.Entries) / float64(s.Occupied)
}

func (s Stats) String() string {
	return fmt.Sprintf("ids=%d entries=%d cells=%d/%d load(mean=%.1f max=%d)",
		s.IDs, s.Entries, s.Occupied, s.Cells, s.MeanLoad(), s.MaxLoad)
}

// Stats walks every cell. It is meant for telemetry, not for the hot path.
func (g *Grid) Stats() Stats {
	s := Stats{Cells: len(g.cells), IDs: g.count}
	for _, cell := range g.cells {
		n := len(cell)
		if n == 0 {
			continue
		}
		s.Occupied++
		s.Entries += n
		s.MaxLoad = max(s.MaxLoad, n)
	}
	return s
}
