// Package fov builds triangular field-of-view regions and classifies
// points against them.
package fov

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/l1jgo/fovscan/internal/geom"
	"github.com/l1jgo/fovscan/internal/quadtree"
)

var (
	ErrInvalidFOV          = errors.New("fov must be in (0, 180) degrees")
	ErrInvalidViewDistance = errors.New("view distance must be positive")
)

// Validate rejects angles and distances that would make the triangle
// degenerate (cos <= 0 or a negative value under the square root).
func Validate(fovDegrees, viewDistance float32) error {
	if !(fovDegrees > 0 && fovDegrees < 180) {
		return fmt.Errorf("%w: got %v", ErrInvalidFOV, fovDegrees)
	}
	if !(viewDistance > 0) || math.IsInf(float64(viewDistance), 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidViewDistance, viewDistance)
	}
	return nil
}

// HalfBase returns half the width of the far edge of the view triangle.
// The slant side is viewDistance/cos(fov/2); the far edge follows from the
// right triangle formed with the view distance.
func HalfBase(fovDegrees, viewDistance float32) float32 {
	l := viewDistance / float32(math.Cos(float64(mgl32.DegToRad(fovDegrees/2))))
	return float32(math.Sqrt(float64(l*l - viewDistance*viewDistance)))
}

// Frustum is the view triangle: the observer at Apex, the far edge between
// Left and Right.
type Frustum struct {
	Apex  geom.Vec2
	Left  geom.Vec2
	Right geom.Vec2
}

// Build constructs the frustum for an observer. dir must be a unit vector.
// Callers are expected to have passed fovDegrees through Validate.
func Build(pos, dir geom.Vec2, fovDegrees, viewDistance float32) Frustum {
	return FromHalfBase(pos, dir, viewDistance, HalfBase(fovDegrees, viewDistance))
}

// FromHalfBase is Build with the half-base width already computed.
func FromHalfBase(pos, dir geom.Vec2, viewDistance, halfBase float32) Frustum {
	height := dir.Mul(viewDistance)
	side := geom.Normalize(geom.Perpendicular(height)).Mul(halfBase)
	return Frustum{
		Apex:  pos,
		Left:  pos.Add(height).Add(side),
		Right: pos.Add(height).Sub(side),
	}
}

// Bounds returns the axis-aligned box around the triangle.
func (f Frustum) Bounds() geom.Box {
	return geom.BoundsOf(f.Apex, f.Left, f.Right)
}

// Contains reports whether p is inside the triangle.
func (f Frustum) Contains(p geom.Vec2) bool {
	return PointInTriangle(p, f.Apex, f.Left, f.Right)
}

// PointInTriangle classifies p against triangle v1 v2 v3 of either winding.
//
// Each edge test uses a strict < 0, so a point exactly on an edge may come
// out either way depending on rounding. This is kept as is; nothing
// downstream relies on boundary points.
func PointInTriangle(p, v1, v2, v3 geom.Vec2) bool {
	b1 := edgeSign(p, v1, v2) < 0
	b2 := edgeSign(p, v2, v3) < 0
	b3 := edgeSign(p, v3, v1) < 0
	return b1 == b2 && b2 == b3
}

// edgeSign is the 2-D cross product of (p - end) and (start - end).
func edgeSign(p, start, end geom.Vec2) float32 {
	return (p[0]-end[0])*(start[1]-end[1]) - (start[0]-end[0])*(p[1]-end[1])
}

// CountVisible runs one range query over the frustum's bounds and counts
// the points inside the triangle, skipping any point equal to the apex.
// It also returns how many index entries the query examined.
func CountVisible[T any](f Frustum, index *quadtree.Tree[T]) (visible, examined int) {
	examined = index.ForEachInBox(f.Bounds(), func(p geom.Vec2, _ T) {
		if p != f.Apex && f.Contains(p) {
			visible++
		}
	})
	return visible, examined
}
