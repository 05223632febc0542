// Package spatial implements the uniform grid used for neighbor discovery.
//
// Entries are opaque integer ids filed against a region (a point is a degenerate
// region). A region is filed in every cell it overlaps, so a query only visits the
// cells overlapping the query region and never needs a fixed 3x3 neighbourhood scan.
// Insert and Update return a Handle that locates the entry for later relocation.
//
// The grid is not safe for concurrent mutation. Concurrent Query calls are safe as long
// as no Insert, Update or Remove runs at the same time.
package spatial

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
)

// ID identifies an indexed entry. The grid gives it no meaning.
type ID = int

// ErrOutOfBounds is returned by Insert and Update when the region cannot be filed:
// it lies (partly) outside the grid under the Reject policy, or it has non-finite coordinates.
var ErrOutOfBounds = errors.New("spatial: region out of bounds")

// BoundsPolicy decides what happens to regions that reach outside the grid extents.
type BoundsPolicy int

const (
	// Clamp files out-of-bounds regions in the nearest edge cells.
	Clamp BoundsPolicy = iota
	// Reject refuses them with ErrOutOfBounds.
	Reject
)

func (p BoundsPolicy) String() string {
	switch p {
	case Clamp:
		return "clamp"
	case Reject:
		return "reject"
	}
	return fmt.Sprintf("BoundsPolicy(%d)", int(p))
}

// ParseBoundsPolicy maps a configuration string to a BoundsPolicy.
func ParseBoundsPolicy(s string) (BoundsPolicy, error) {
	switch strings.ToLower(s) {
	case "", "clamp":
		return Clamp, nil
	case "reject":
		return Reject, nil
	}
	return Clamp, fmt.Errorf("unknown bounds policy %q", s)
}

type entry struct {
	id ID
	h  Handle
}

// Grid is a fixed partition of a rectangle into square cells.
type Grid struct {
	bounds   orb.Bound
	cellSize float64
	cols     int
	rows     int
	cells    [][]entry // index = cy*cols + cx
	policy   BoundsPolicy
	count    int
}

// Option configures a Grid.
type Option func(*Grid)

// WithBoundsPolicy sets the out-of-bounds policy (default Clamp).
func WithBoundsPolicy(p BoundsPolicy) Option {
	return func(g *Grid) { g.policy = p }
}

// NewGrid partitions bounds into cells of cellSize. The grid is never rebuilt:
// extents and cell size are fixed for its lifetime.
func NewGrid(bounds orb.Bound, cellSize float64, opts ...Option) (*Grid, error) {
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		return nil, fmt.Errorf("spatial: cell size must be positive, got %v", cellSize)
	}
	w := bounds.Max.X() - bounds.Min.X()
	h := bounds.Max.Y() - bounds.Min.Y()
	if !(w > 0) || !(h > 0) {
		return nil, fmt.Errorf("spatial: empty bounds %v", bounds)
	}

	cols := max(int(math.Ceil(w/cellSize)), 1)
	rows := max(int(math.Ceil(h/cellSize)), 1)

	g := &Grid{
		bounds:   bounds,
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    make([][]entry, cols*rows),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Bounds returns the extents the grid was built with.
func (g *Grid) Bounds() orb.Bound { return g.bounds }

// CellSize returns the edge length of a cell.
func (g *Grid) CellSize() float64 { return g.cellSize }

// Dims returns the number of columns and rows.
func (g *Grid) Dims() (cols, rows int) { return g.cols, g.rows }

// Policy returns the out-of-bounds policy.
func (g *Grid) Policy() BoundsPolicy { return g.policy }

// Len returns the number of ids currently filed.
func (g *Grid) Len() int { return g.count }

// Insert files id in every cell overlapping r and returns its handle.
func (g *Grid) Insert(r orb.Bound, id ID) (Handle, error) {
	h, err := g.handleFor(r)
	if err != nil {
		return Handle{}, fmt.Errorf("insert %d: %w", id, err)
	}
	g.add(h, id)
	g.count++
	return h, nil
}

// Update moves id from the cells referenced by old to the cells overlapping r.
// When the cell range does not change the grid is left untouched.
// On error the entry stays where old says it is and old is returned.
// A handle that does not locate id panics with *StaleHandleError.
func (g *Grid) Update(r orb.Bound, id ID, old Handle) (Handle, error) {
	h, err := g.handleFor(r)
	if err != nil {
		return old, fmt.Errorf("update %d: %w", id, err)
	}
	if h == old {
		if !g.valid(old) || g.find(g.cellIndex(old.MinX, old.MinY), id) < 0 {
			panic(&StaleHandleError{ID: id, Handle: old})
		}
		return old, nil
	}
	g.remove(old, id)
	g.add(h, id)
	return h, nil
}

// Remove deletes id from the cells referenced by h.
// Removing an id twice is a contract violation and panics with *StaleHandleError.
func (g *Grid) Remove(h Handle, id ID) {
	g.remove(h, id)
	g.count--
}

// Query appends to dst every id filed in a cell overlapping r and returns the
// extended slice. dst is not cleared. An id filed in several cells is reported once.
// The result is a superset of the ids whose region intersects r: exact filtering
// belongs to the caller.
func (g *Grid) Query(r orb.Bound, dst []ID) []ID {
	q := g.clampedRange(r)
	for cy := q.MinY; cy <= q.MaxY; cy++ {
		row := int(cy) * g.cols
		for cx := q.MinX; cx <= q.MaxX; cx++ {
			for _, e := range g.cells[row+int(cx)] {
				// report a multi-cell entry only from the first cell it shares with q
				if cx == max(e.h.MinX, q.MinX) && cy == max(e.h.MinY, q.MinY) {
					dst = append(dst, e.id)
				}
			}
		}
	}
	return dst
}

// Contents returns a copy of the ids filed in cell (cx, cy).
func (g *Grid) Contents(cx, cy int) []ID {
	if cx < 0 || cx >= g.cols || cy < 0 || cy >= g.rows {
		return nil
	}
	cell := g.cells[g.cellIndex(int32(cx), int32(cy))]
	ids := make([]ID, len(cell))
	for i, e := range cell {
		ids[i] = e.id
	}
	return ids
}

// CellOf returns the cell coordinates a point maps to, after clamping.
func (g *Grid) CellOf(p orb.Point) (cx, cy int) {
	return int(g.col(p.X())), int(g.row(p.Y()))
}

func (g *Grid) handleFor(r orb.Bound) (Handle, error) {
	for _, v := range [4]float64{r.Min.X(), r.Min.Y(), r.Max.X(), r.Max.Y()} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Handle{}, ErrOutOfBounds
		}
	}
	if g.policy == Reject && !(g.bounds.Contains(r.Min) && g.bounds.Contains(r.Max)) {
		return Handle{}, ErrOutOfBounds
	}
	return g.clampedRange(r), nil
}

func (g *Grid) clampedRange(r orb.Bound) Handle {
	h := Handle{
		MinX: g.col(r.Min.X()),
		MinY: g.row(r.Min.Y()),
		MaxX: g.col(r.Max.X()),
		MaxY: g.row(r.Max.Y()),
	}
	// an inverted bound still selects the cells between its corners
	if h.MinX > h.MaxX {
		h.MinX, h.MaxX = h.MaxX, h.MinX
	}
	if h.MinY > h.MaxY {
		h.MinY, h.MaxY = h.MaxY, h.MinY
	}
	return h
}

func (g *Grid) col(x float64) int32 {
	return clampCell((x-g.bounds.Min.X())/g.cellSize, g.cols)
}

func (g *Grid) row(y float64) int32 {
	return clampCell((y-g.bounds.Min.Y())/g.cellSize, g.rows)
}

func clampCell(f float64, n int) int32 {
	c := math.Floor(f)
	switch {
	case !(c >= 0):
		return 0
	case c >= float64(n):
		return int32(n - 1)
	}
	return int32(c)
}

func (g *Grid) cellIndex(cx, cy int32) int {
	return int(cy)*g.cols + int(cx)
}

func (g *Grid) add(h Handle, id ID) {
	for cy := h.MinY; cy <= h.MaxY; cy++ {
		for cx := h.MinX; cx <= h.MaxX; cx++ {
			idx := g.cellIndex(cx, cy)
			g.cells[idx] = append(g.cells[idx], entry{id: id, h: h})
		}
	}
}

// remove checks every cell before touching any, so a stale handle leaves the grid intact.
func (g *Grid) remove(h Handle, id ID) {
	if !g.valid(h) {
		panic(&StaleHandleError{ID: id, Handle: h})
	}
	for cy := h.MinY; cy <= h.MaxY; cy++ {
		for cx := h.MinX; cx <= h.MaxX; cx++ {
			if g.find(g.cellIndex(cx, cy), id) < 0 {
				panic(&StaleHandleError{ID: id, Handle: h})
			}
		}
	}
	for cy := h.MinY; cy <= h.MaxY; cy++ {
		for cx := h.MinX; cx <= h.MaxX; cx++ {
			idx := g.cellIndex(cx, cy)
			cell := g.cells[idx]
			i := g.find(idx, id)
			// swap-remove keeps the cell dense, order is irrelevant
			last := len(cell) - 1
			cell[i] = cell[last]
			cell[last] = entry{}
			g.cells[idx] = cell[:last]
		}
	}
}

func (g *Grid) valid(h Handle) bool {
	return h.MinX >= 0 && h.MinY >= 0 && h.MinX <= h.MaxX && h.MinY <= h.MaxY &&
		int(h.MaxX) < g.cols && int(h.MaxY) < g.rows
}

func (g *Grid) find(idx int, id ID) int {
	for i, e := range g.cells[idx] {
		if e.id == id {
			return i
		}
	}
	return -1
}
