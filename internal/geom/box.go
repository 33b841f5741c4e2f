package geom

// Box is an axis-aligned rectangle anchored at its top-left corner.
// Y grows upward, so Top >= Bottom(). Width and Height are never negative.
type Box struct {
	Left   float32
	Top    float32
	Width  float32
	Height float32
}

// BoxAround returns the square box of the given half extent centred on the origin.
func BoxAround(halfExtent float32) Box {
	return Box{
		Left:   -halfExtent,
		Top:    halfExtent,
		Width:  2 * halfExtent,
		Height: 2 * halfExtent,
	}
}

// BoundsOf returns the smallest box covering all of pts.
func BoundsOf(pts ...Vec2) Box {
	if len(pts) == 0 {
		return Box{}
	}
	minX, maxX := pts[0][0], pts[0][0]
	minY, maxY := pts[0][1], pts[0][1]
	for _, p := range pts[1:] {
		minX = min(minX, p[0])
		maxX = max(maxX, p[0])
		minY = min(minY, p[1])
		maxY = max(maxY, p[1])
	}
	return Box{Left: minX, Top: maxY, Width: maxX - minX, Height: maxY - minY}
}

func (b Box) Right() float32  { return b.Left + b.Width }
func (b Box) Bottom() float32 { return b.Top - b.Height }

// Center returns the midpoint of the box.
func (b Box) Center() Vec2 {
	return Vec2{b.Left + b.Width/2, b.Top - b.Height/2}
}

// Contains reports whether p lies inside b, edges included.
func (b Box) Contains(p Vec2) bool {
	return p[0] >= b.Left && p[1] <= b.Top &&
		p[0] <= b.Right() && p[1] >= b.Bottom()
}

// Intersects reports whether b and o overlap. Boxes that only share an
// edge do not intersect.
func (b Box) Intersects(o Box) bool {
	return !(b.Left >= o.Right() ||
		b.Right() <= o.Left ||
		b.Top <= o.Bottom() ||
		b.Bottom() >= o.Top)
}
