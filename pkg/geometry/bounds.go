package geometry

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Bounds is the axis-aligned rectangle of the world. Read-only after construction.
type Bounds struct {
	orb.Bound
}

// NewBounds builds the rectangle [minX,maxX] x [minY,maxY].
func NewBounds(minX, minY, maxX, maxY float64) Bounds {
	return Bounds{orb.Bound{Min: orb.Point{minX, minY}, Max: orb.Point{maxX, maxY}}}
}

// Width of the rectangle.
func (b Bounds) Width() float64 { return b.Max.X() - b.Min.X() }

// Height of the rectangle.
func (b Bounds) Height() float64 { return b.Max.Y() - b.Min.Y() }

func (b Bounds) String() string {
	return fmt.Sprintf("[%.1f,%.1f]-[%.1f,%.1f]", b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y())
}

// Contains reports whether p lies inside the rectangle, edges included.
func (b Bounds) Contains(p Vector2D) bool {
	return b.Bound.Contains(p.Point())
}

// Clamp moves p onto the nearest point of the rectangle.
func (b Bounds) Clamp(p Vector2D) Vector2D {
	p.X = min(max(p.X, b.Min.X()), b.Max.X())
	p.Y = min(max(p.Y, b.Min.Y()), b.Max.Y())
	return p
}

// Wrap applies toroidal wrapping: a coordinate that left the rectangle on one side
// is placed exactly on the opposite edge, the other coordinate is kept.
func (b Bounds) Wrap(p Vector2D) Vector2D {
	switch {
	case p.X < b.Min.X():
		p.X = b.Max.X()
	case p.X > b.Max.X():
		p.X = b.Min.X()
	}
	switch {
	case p.Y < b.Min.Y():
		p.Y = b.Max.Y()
	case p.Y > b.Max.Y():
		p.Y = b.Min.Y()
	}
	return p
}

// Point converts v to an orb.Point.
func (v Vector2D) Point() orb.Point {
	return orb.Point{v.X, v.Y}
}

// FromPoint converts an orb.Point to a Vector2D.
func FromPoint(p orb.Point) Vector2D {
	return Vector2D{X: p.X(), Y: p.Y()}
}

// PointRegion is the degenerate region occupied by a single point.
func PointRegion(v Vector2D) orb.Bound {
	p := v.Point()
	return orb.Bound{Min: p, Max: p}
}

// RadiusRegion is the square region that encloses the circle of radius r around v.
func RadiusRegion(v Vector2D, r float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{v.X - r, v.Y - r},
		Max: orb.Point{v.X + r, v.Y + r},
	}
}
