package spatial

import "fmt"

// Handle locates an entry in the grid: the inclusive range of cells it is filed in.
// It is a plain lookup key with no ownership of its own.
type Handle struct {
	MinX, MinY int32
	MaxX, MaxY int32
}

// Cells returns how many cells the handle spans.
func (h Handle) Cells() int {
	return int(h.MaxX-h.MinX+1) * int(h.MaxY-h.MinY+1)
}

func (h Handle) String() string {
	if h.MinX == h.MaxX && h.MinY == h.MaxY {
		return fmt.Sprintf("cell(%d,%d)", h.MinX, h.MinY)
	}
	return fmt.Sprintf("cells(%d,%d)-(%d,%d)", h.MinX, h.MinY, h.MaxX, h.MaxY)
}

// StaleHandleError reports a handle that no longer locates its id.
// It is raised with panic: the caller lost track of where the entry lives.
type StaleHandleError struct {
	ID     ID
	Handle Handle
}

func (e *StaleHandleError) Error() string {
	return fmt.Sprintf("spatial: stale handle %v for id %d", e.Handle, e.ID)
}
