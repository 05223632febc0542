package spatial

import (
	"errors"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/paulmach/orb"
)

func pt(x, y float64) orb.Bound {
	return orb.Bound{Min: orb.Point{x, y}, Max: orb.Point{x, y}}
}

func around(x, y, r float64) orb.Bound {
	return orb.Bound{Min: orb.Point{x - r, y - r}, Max: orb.Point{x + r, y + r}}
}

func newTestGrid(t testing.TB, cellSize float64, opts ...Option) *Grid {
	t.Helper()
	g, err := NewGrid(orb.Bound{Max: orb.Point{1000, 600}}, cellSize, opts...)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	return g
}

// snapshotCells copies every cell so tests can compare grid states.
func snapshotCells(g *Grid) [][]ID {
	out := make([][]ID, 0, g.cols*g.rows)
	for cy := 0; cy < g.rows; cy++ {
		for cx := 0; cx < g.cols; cx++ {
			ids := g.Contents(cx, cy)
			slices.Sort(ids)
			out = append(out, ids)
		}
	}
	return out
}

func TestNewGrid(t *testing.T) {
	tests := []struct {
		name     string
		bounds   orb.Bound
		cellSize float64
		cols     int
		rows     int
		wantErr  bool
	}{
		{"exact fit", orb.Bound{Max: orb.Point{1000, 600}}, 20, 50, 30, false},
		{"partial last cell", orb.Bound{Max: orb.Point{1000, 600}}, 15, 67, 40, false},
		{"cell larger than world", orb.Bound{Max: orb.Point{10, 10}}, 100, 1, 1, false},
		{"zero cell size", orb.Bound{Max: orb.Point{10, 10}}, 0, 0, 0, true},
		{"negative cell size", orb.Bound{Max: orb.Point{10, 10}}, -1, 0, 0, true},
		{"NaN cell size", orb.Bound{Max: orb.Point{10, 10}}, math.NaN(), 0, 0, true},
		{"empty bounds", orb.Bound{}, 10, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGrid(tt.bounds, tt.cellSize)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got grid %dx%d", g.cols, g.rows)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cols, rows := g.Dims(); cols != tt.cols || rows != tt.rows {
				t.Errorf("Dims = %dx%d; want %dx%d", cols, rows, tt.cols, tt.rows)
			}
		})
	}
}

func TestGrid_InsertPoint(t *testing.T) {
	g := newTestGrid(t, 20)

	h, err := g.Insert(pt(45, 10), 7)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if want := (Handle{MinX: 2, MinY: 0, MaxX: 2, MaxY: 0}); h != want {
		t.Errorf("handle = %v; want %v", h, want)
	}
	if got := g.Contents(2, 0); !slices.Equal(got, []ID{7}) {
		t.Errorf("cell(2,0) = %v; want [7]", got)
	}
	if g.Len() != 1 {
		t.Errorf("Len = %d; want 1", g.Len())
	}
}

func TestGrid_InsertRegionSpansCells(t *testing.T) {
	g := newTestGrid(t, 20)

	h, err := g.Insert(around(40, 40, 5), 1)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if h.Cells() != 4 {
		t.Fatalf("region around a cell corner should span 4 cells, got %v", h)
	}
	for _, c := range [][2]int{{1, 1}, {2, 1}, {1, 2}, {2, 2}} {
		if got := g.Contents(c[0], c[1]); !slices.Contains(got, 1) {
			t.Errorf("cell%v = %v; want it to hold 1", c, got)
		}
	}

	// a query covering every cell of the region still reports the id once
	got := g.Query(around(40, 40, 30), nil)
	if !slices.Equal(got, []ID{1}) {
		t.Errorf("Query = %v; want [1]", got)
	}
	if s := g.Stats(); s.Entries != 4 || s.IDs != 1 {
		t.Errorf("Stats = %v; want 4 entries for 1 id", s)
	}
}

func TestGrid_QueryAccumulates(t *testing.T) {
	g := newTestGrid(t, 20)
	mustInsert(t, g, pt(5, 5), 1)
	mustInsert(t, g, pt(500, 300), 2)

	out := []ID{99}
	out = g.Query(around(5, 5, 1), out)
	out = g.Query(around(500, 300, 1), out)

	if !slices.Equal(out, []ID{99, 1, 2}) {
		t.Errorf("Query must append without clearing, got %v", out)
	}
}

func TestGrid_QuerySupersetProperty(t *testing.T) {
	const (
		n      = 2000
		radius = 20.0
	)
	rng := rand.New(rand.NewPCG(7, 11))
	pos := make([]orb.Point, n)
	for i := range pos {
		pos[i] = orb.Point{rng.Float64() * 1000, rng.Float64() * 600}
	}

	for _, cellSize := range []float64{3, 15, 20, 47, 333, 5000} {
		g := newTestGrid(t, cellSize)
		for i, p := range pos {
			mustInsert(t, g, orb.Bound{Min: p, Max: p}, i)
		}

		var buf []ID
		for q := 0; q < 200; q++ {
			c := orb.Point{rng.Float64() * 1000, rng.Float64() * 600}
			buf = g.Query(around(c[0], c[1], radius), buf[:0])

			seen := make(map[ID]bool, len(buf))
			for _, id := range buf {
				if seen[id] {
					t.Fatalf("cell=%v: id %d reported twice", cellSize, id)
				}
				seen[id] = true
			}
			for i, p := range pos {
				dx, dy := p[0]-c[0], p[1]-c[1]
				if dx*dx+dy*dy <= radius*radius && !seen[i] {
					t.Fatalf("cell=%v: id %d at %v within %v of %v missing from query", cellSize, i, p, radius, c)
				}
			}
		}
	}
}

func TestGrid_UpdateSameCellIsNoop(t *testing.T) {
	g := newTestGrid(t, 20)
	h1 := mustInsert(t, g, pt(21, 21), 1)
	mustInsert(t, g, pt(22, 23), 2)
	mustInsert(t, g, pt(300, 300), 3)
	before := snapshotCells(g)

	h, err := g.Update(pt(39, 39), 1, h1)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if h != h1 {
		t.Errorf("handle changed within the same cell: %v -> %v", h1, h)
	}
	if !slices.EqualFunc(before, snapshotCells(g), slices.Equal[[]ID]) {
		t.Error("relocating inside the same cell changed cell contents")
	}
}

func TestGrid_UpdateMovesEntry(t *testing.T) {
	g := newTestGrid(t, 20)
	h := mustInsert(t, g, pt(10, 10), 4)

	h2, err := g.Update(pt(110, 50), 4, h)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := g.Contents(0, 0); len(got) != 0 {
		t.Errorf("old cell still holds %v", got)
	}
	if got := g.Contents(5, 2); !slices.Equal(got, []ID{4}) {
		t.Errorf("new cell = %v; want [4]", got)
	}
	if h2 == h {
		t.Error("handle should change when the cell changes")
	}
	if g.Len() != 1 {
		t.Errorf("Len = %d; want 1", g.Len())
	}
}

func TestGrid_UpdateIdempotent(t *testing.T) {
	once := newTestGrid(t, 20)
	twice := newTestGrid(t, 20)

	h1 := mustInsert(t, once, pt(10, 10), 1)
	h2 := mustInsert(t, twice, pt(10, 10), 1)

	h1, _ = once.Update(pt(250, 130), 1, h1)
	h2, _ = twice.Update(pt(250, 130), 1, h2)
	h2, _ = twice.Update(pt(250, 130), 1, h2)

	if h1 != h2 {
		t.Errorf("handles differ: %v vs %v", h1, h2)
	}
	if !slices.EqualFunc(snapshotCells(once), snapshotCells(twice), slices.Equal[[]ID]) {
		t.Error("second identical Update changed the grid")
	}
}

func TestGrid_Remove(t *testing.T) {
	g := newTestGrid(t, 20)
	h1 := mustInsert(t, g, around(40, 40, 5), 1)
	mustInsert(t, g, pt(41, 41), 2)

	g.Remove(h1, 1)

	if g.Len() != 1 {
		t.Errorf("Len = %d; want 1", g.Len())
	}
	if got := g.Query(around(40, 40, 30), nil); !slices.Equal(got, []ID{2}) {
		t.Errorf("Query after Remove = %v; want [2]", got)
	}
	if s := g.Stats(); s.Entries != 1 {
		t.Errorf("entries after Remove = %d; want 1", s.Entries)
	}
}

func TestGrid_StaleHandlePanics(t *testing.T) {
	tests := []struct {
		name string
		run  func(g *Grid, h Handle)
	}{
		{"remove twice", func(g *Grid, h Handle) { g.Remove(h, 1); g.Remove(h, 1) }},
		{"remove wrong handle", func(g *Grid, h Handle) { g.Remove(Handle{MinX: 9, MinY: 9, MaxX: 9, MaxY: 9}, 1) }},
		{"remove handle outside grid", func(g *Grid, h Handle) { g.Remove(Handle{MinX: 900, MaxX: 900}, 1) }},
		{"update wrong handle", func(g *Grid, h Handle) { _, _ = g.Update(pt(500, 500), 1, Handle{MinX: 3, MaxX: 3}) }},
		{"update same cell for unknown id", func(g *Grid, h Handle) { _, _ = g.Update(pt(10, 10), 42, h) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGrid(t, 20)
			h := mustInsert(t, g, pt(10, 10), 1)

			defer func() {
				r := recover()
				var stale *StaleHandleError
				err, ok := r.(error)
				if !ok || !errors.As(err, &stale) {
					t.Fatalf("expected *StaleHandleError panic, got %v", r)
				}
			}()
			tt.run(g, h)
		})
	}
}

func TestGrid_BoundsPolicy(t *testing.T) {
	t.Run("Clamp", func(t *testing.T) {
		g := newTestGrid(t, 20)
		h, err := g.Insert(pt(-50, 700), 1)
		if err != nil {
			t.Fatalf("clamp policy should accept, got %v", err)
		}
		if want := (Handle{MinX: 0, MinY: 29, MaxX: 0, MaxY: 29}); h != want {
			t.Errorf("handle = %v; want %v", h, want)
		}
		// the clamped entry is still found by a query around its real position
		if got := g.Query(around(-50, 700, 20), nil); !slices.Equal(got, []ID{1}) {
			t.Errorf("Query = %v; want [1]", got)
		}
	})

	t.Run("Reject", func(t *testing.T) {
		g := newTestGrid(t, 20, WithBoundsPolicy(Reject))
		if _, err := g.Insert(pt(-1, 10), 1); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Insert outside = %v; want ErrOutOfBounds", err)
		}
		if g.Len() != 0 {
			t.Errorf("rejected insert changed Len to %d", g.Len())
		}

		h := mustInsert(t, g, pt(1000, 600), 2) // edges are inside
		got, err := g.Update(pt(1000.5, 10), 2, h)
		if !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Update outside = %v; want ErrOutOfBounds", err)
		}
		if got != h {
			t.Errorf("rejected Update returned %v; want old handle %v", got, h)
		}
		if ids := g.Contents(49, 29); !slices.Equal(ids, []ID{2}) {
			t.Errorf("rejected Update moved the entry: corner cell = %v", ids)
		}
	})

	t.Run("NonFinite", func(t *testing.T) {
		g := newTestGrid(t, 20)
		if _, err := g.Insert(pt(math.NaN(), 1), 1); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("NaN insert = %v; want ErrOutOfBounds", err)
		}
		if _, err := g.Insert(pt(1, math.Inf(1)), 1); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Inf insert = %v; want ErrOutOfBounds", err)
		}
	})
}

func TestParseBoundsPolicy(t *testing.T) {
	for in, want := range map[string]BoundsPolicy{"": Clamp, "clamp": Clamp, "Reject": Reject} {
		got, err := ParseBoundsPolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseBoundsPolicy(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseBoundsPolicy("bounce"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestGrid_LenMatchesUnionOfCells(t *testing.T) {
	g := newTestGrid(t, 15)
	rng := rand.New(rand.NewPCG(3, 5))
	handles := make(map[ID]Handle)

	for i := 0; i < 500; i++ {
		handles[i] = mustInsert(t, g, pt(rng.Float64()*1000, rng.Float64()*600), i)
	}
	for frame := 0; frame < 20; frame++ {
		for id, h := range handles {
			nh, err := g.Update(pt(rng.Float64()*1000, rng.Float64()*600), id, h)
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			handles[id] = nh
		}
		for id := frame * 10; id < frame*10+5; id++ {
			g.Remove(handles[id], id)
			delete(handles, id)
		}
	}

	union := make(map[ID]int)
	for _, cell := range snapshotCells(g) {
		for _, id := range cell {
			union[id]++
		}
	}
	if len(union) != len(handles) || g.Len() != len(handles) {
		t.Errorf("union=%d Len=%d live=%d", len(union), g.Len(), len(handles))
	}
	for id, n := range union {
		if n != 1 {
			t.Errorf("point id %d filed %d times", id, n)
		}
		if _, ok := handles[id]; !ok {
			t.Errorf("removed id %d still filed", id)
		}
	}
}

func mustInsert(t testing.TB, g *Grid, r orb.Bound, id ID) Handle {
	t.Helper()
	h, err := g.Insert(r, id)
	if err != nil {
		t.Fatalf("Insert(%v, %d): %v", r, id, err)
	}
	return h
}

func BenchmarkGrid_Update(b *testing.B) {
	g := newTestGrid(b, 20)
	rng := rand.New(rand.NewPCG(1, 2))
	handles := make([]Handle, 10000)
	pos := make([]orb.Point, len(handles))
	for i := range handles {
		pos[i] = orb.Point{rng.Float64() * 1000, rng.Float64() * 600}
		handles[i] = mustInsert(b, g, orb.Bound{Min: pos[i], Max: pos[i]}, i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id := i % len(handles)
		p := orb.Point{math.Mod(pos[id][0]+1.5, 1000), pos[id][1]}
		pos[id] = p
		handles[id], _ = g.Update(orb.Bound{Min: p, Max: p}, id, handles[id])
	}
}

func BenchmarkGrid_Query(b *testing.B) {
	g := newTestGrid(b, 20)
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 10000; i++ {
		mustInsert(b, g, pt(rng.Float64()*1000, rng.Float64()*600), i)
	}
	buf := make([]ID, 0, 64)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf = g.Query(around(500, 300, 20), buf[:0])
	}
}
