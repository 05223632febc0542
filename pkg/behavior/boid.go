// Package behavior holds the flocking rules, independent of how neighbours are found.
//
// Boids is an artificial life program, developed by Craig Reynolds in 1986,
// which simulates the flocking behaviour of birds, and related group motion.
// The name "boid" corresponds to a shortened version of "bird-oid object".
// https://en.wikipedia.org/wiki/Boids
package behavior

import (
	"math"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

// goldenAngle spreads the escape directions of coincident neighbours.
const goldenAngle = 2.399963229728653

// Weights controls how strongly each rule bends the velocity.
type Weights struct {
	Repel    float64 // Separation strength
	Align    float64 // Alignment strength
	Cohesion float64 // Cohesion strength
}

// Neighbor is what an agent perceives of another agent.
type Neighbor struct {
	ID  int
	Pos geometry.Vector2D
	Vel geometry.Vector2D
}

// Steering accumulates the three rules for one agent over its visible neighbours.
// The zero value is ready to use.
type Steering struct {
	Avoidance geometry.Vector2D

	posSum geometry.Vector2D
	velSum geometry.Vector2D
	count  int
}

// Observe adds one neighbour seen from self.
// Separation is the vector from the neighbour to self scaled by the inverse square
// of the distance, so its magnitude is 1/distance. Two agents on the same spot have
// no direction between them: the neighbour then pushes along a direction derived
// from its id, at the strength of a unit distance.
func (s *Steering) Observe(self geometry.Vector2D, n Neighbor) {
	away := self.Sub(n.Pos)
	if d2 := away.LenSqr(); d2 > 0 {
		s.Avoidance = s.Avoidance.Add(away.Mul(1 / d2))
	} else {
		s.Avoidance = s.Avoidance.Add(geometry.NewVectorPolar(1, math.Mod(float64(n.ID)*goldenAngle, 2*math.Pi)))
	}
	s.posSum = s.posSum.Add(n.Pos)
	s.velSum = s.velSum.Add(n.Vel)
	s.count++
}

// Neighbors is the number of observed neighbours.
func (s *Steering) Neighbors() int { return s.count }

// Alignment is the mean velocity of the neighbours, zero when there are none.
func (s *Steering) Alignment() geometry.Vector2D {
	if s.count == 0 {
		return geometry.Zero
	}
	return s.velSum.Mul(1 / float64(s.count))
}

// Cohesion is the offset from self to the mean position of the neighbours,
// zero when there are none.
func (s *Steering) Cohesion(self geometry.Vector2D) geometry.Vector2D {
	if s.count == 0 {
		return geometry.Zero
	}
	return s.posSum.Mul(1 / float64(s.count)).Sub(self)
}

// Apply returns vel bent by the weighted rules. The result is not speed limited.
func (s *Steering) Apply(self, vel geometry.Vector2D, w Weights) geometry.Vector2D {
	return vel.
		Add(s.Avoidance.Mul(w.Repel)).
		Add(s.Alignment().Mul(w.Align)).
		Add(s.Cohesion(self).Mul(w.Cohesion))
}

// Limits bounds the speed of an agent.
type Limits struct {
	MinSpeed float64
	MaxSpeed float64
}

// Clamp forces the magnitude of vel into [MinSpeed, MaxSpeed].
// A zero or non-finite velocity takes the direction of previous instead.
func (l Limits) Clamp(vel, previous geometry.Vector2D) geometry.Vector2D {
	if !vel.IsFinite() {
		vel = geometry.Zero
	}
	if !previous.IsFinite() {
		previous = geometry.Zero
	}
	return vel.Clamped(l.MinSpeed, l.MaxSpeed, previous)
}
