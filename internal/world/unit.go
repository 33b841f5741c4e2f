package world

import (
	"fmt"

	"github.com/l1jgo/fovscan/internal/fov"
	"github.com/l1jgo/fovscan/internal/geom"
)

// UnitID is a unit's position in the level, assigned in insertion order.
type UnitID uint32

// Unit is an observer with a triangular field of view.
// FOV and ViewDistance are fixed for the unit's lifetime; the far
// vertices follow every SetTransform. Fields written directly are picked
// up when the unit is passed to Builder.Add.
type Unit struct {
	Position     geom.Vec2
	Direction    geom.Vec2 // unit length, normalized by the caller
	FOV          float32   // degrees
	ViewDistance float32

	halfBase float32
	left     geom.Vec2
	right    geom.Vec2
}

// NewUnit validates the view parameters and precomputes the frustum width.
func NewUnit(fovDegrees, viewDistance float32) (Unit, error) {
	if err := fov.Validate(fovDegrees, viewDistance); err != nil {
		return Unit{}, err
	}
	return Unit{
		FOV:          fovDegrees,
		ViewDistance: viewDistance,
		halfBase:     fov.HalfBase(fovDegrees, viewDistance),
	}, nil
}

// SetTransform moves and turns the unit.
func (u *Unit) SetTransform(pos, dir geom.Vec2) {
	u.Position = pos
	u.Direction = dir
	f := fov.FromHalfBase(pos, dir, u.ViewDistance, u.halfBase)
	u.left, u.right = f.Left, f.Right
}

// Frustum returns the unit's current view triangle.
func (u *Unit) Frustum() fov.Frustum {
	return fov.Frustum{Apex: u.Position, Left: u.left, Right: u.right}
}

func (u Unit) String() string {
	return fmt.Sprintf("pos = [%g, %g]; dir = [%g, %g]",
		u.Position[0], u.Position[1], u.Direction[0], u.Direction[1])
}
