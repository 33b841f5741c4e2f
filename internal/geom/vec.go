package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Vec2 is the point and direction type used throughout the scan.
// Value type, comparable with ==.
type Vec2 = mgl32.Vec2

// V is shorthand for building a Vec2.
func V(x, y float32) Vec2 { return Vec2{x, y} }

// FastInvSqrt approximates 1/sqrt(x) with the bit-level estimate plus a
// single Newton step. Relative error stays under 0.2% for positive x.
func FastInvSqrt(x float32) float32 {
	half := x * 0.5
	i := math.Float32bits(x)
	i = 0x5f3759df - (i >> 1)
	y := math.Float32frombits(i)
	return y * (1.5 - half*y*y)
}

// Length is the exact euclidean length.
func Length(v Vec2) float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}

// FastLength approximates Length via FastInvSqrt.
func FastLength(v Vec2) float32 {
	sq := v.Dot(v)
	if sq == 0 {
		return 0
	}
	return 1 / FastInvSqrt(sq)
}

// Normalize scales v to (approximately) unit length. The zero vector is
// returned unchanged.
func Normalize(v Vec2) Vec2 {
	sq := v.Dot(v)
	if sq == 0 {
		return v
	}
	return v.Mul(FastInvSqrt(sq))
}

// Perpendicular rotates v by +90 degrees.
func Perpendicular(v Vec2) Vec2 {
	return Vec2{-v[1], v[0]}
}
