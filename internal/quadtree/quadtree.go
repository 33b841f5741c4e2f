package quadtree

import "github.com/l1jgo/fovscan/internal/geom"

// Quadrant order of a node's children.
const (
	NE = iota // right, top
	NW        // left, top
	SW        // left, bottom
	SE        // right, bottom
	quadrants
)

const (
	// DefaultCapacity is the number of entries a leaf holds before it splits.
	DefaultCapacity = 8
	// DefaultMaxDepth caps subdivision; leaves at this depth grow past capacity
	// so duplicate or near-duplicate points cannot recurse forever.
	DefaultMaxDepth = 16
)

// Entry is one indexed point plus the caller's handle for it. The tree never
// interprets Ref.
type Entry[T any] struct {
	Point geom.Vec2
	Ref   T
}

type node[T any] struct {
	box      geom.Box
	depth    int
	entries  []Entry[T]
	children *[quadrants]node[T] // nil for leaves; internal nodes hold no entries
}

func (n *node[T]) isLeaf() bool { return n.children == nil }

// Tree is a bounded-capacity point quadtree over a fixed square centred on
// the origin. Insert is not safe for concurrent use. Once inserts stop, any
// number of goroutines may call ForEachInBox concurrently.
type Tree[T any] struct {
	root     node[T]
	capacity int
	maxDepth int
	size     int
	nodes    int
	depth    int
}

// New creates a tree covering [-halfExtent, halfExtent] on both axes.
// capacity < 1 and maxDepth < 1 fall back to the defaults.
func New[T any](halfExtent float32, capacity, maxDepth int) *Tree[T] {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	return &Tree[T]{
		root: node[T]{
			box:     geom.BoxAround(halfExtent),
			entries: make([]Entry[T], 0, capacity),
		},
		capacity: capacity,
		maxDepth: maxDepth,
		nodes:    1,
	}
}

// Insert stores p with ref. Points outside the root box are dropped and
// Insert reports false.
func (t *Tree[T]) Insert(p geom.Vec2, ref T) bool {
	if !t.root.box.Contains(p) {
		return false
	}
	cur := &t.root
	for !cur.isLeaf() {
		cur = cur.childFor(p)
	}
	for len(cur.entries) >= t.capacity && cur.depth < t.maxDepth {
		t.split(cur)
		cur = cur.childFor(p)
	}
	cur.entries = append(cur.entries, Entry[T]{Point: p, Ref: ref})
	t.size++
	if cur.depth > t.depth {
		t.depth = cur.depth
	}
	return true
}

// ForEachInBox calls visit for every stored point inside area and returns
// how many entries were examined, including those outside area. Visit order
// is unspecified.
func (t *Tree[T]) ForEachInBox(area geom.Box, visit func(p geom.Vec2, ref T)) int {
	if !t.root.box.Intersects(area) {
		return 0
	}
	checked := 0
	stack := make([]*node[T], 0, 4*(t.depth+1))
	stack = append(stack, &t.root)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for i := range n.entries {
			e := &n.entries[i]
			if area.Contains(e.Point) {
				visit(e.Point, e.Ref)
			}
			checked++
		}

		if n.children == nil {
			continue
		}
		for i := range n.children {
			if c := &n.children[i]; c.box.Intersects(area) {
				stack = append(stack, c)
			}
		}
	}
	return checked
}

// Bounds returns the root box.
func (t *Tree[T]) Bounds() geom.Box { return t.root.box }

// Len returns the number of stored points.
func (t *Tree[T]) Len() int { return t.size }

// Nodes returns the number of allocated nodes, root included.
func (t *Tree[T]) Nodes() int { return t.nodes }

// Depth returns the deepest level that holds an entry (root = 0).
func (t *Tree[T]) Depth() int { return t.depth }

// Capacity returns the nominal per-leaf capacity.
func (t *Tree[T]) Capacity() int { return t.capacity }

// split turns leaf n into an internal node and moves its entries down.
func (t *Tree[T]) split(n *node[T]) {
	hw := n.box.Width / 2
	hh := n.box.Height / 2
	d := n.depth + 1

	n.children = &[quadrants]node[T]{
		NE: {box: geom.Box{Left: n.box.Left + hw, Top: n.box.Top, Width: hw, Height: hh}},
		NW: {box: geom.Box{Left: n.box.Left, Top: n.box.Top, Width: hw, Height: hh}},
		SW: {box: geom.Box{Left: n.box.Left, Top: n.box.Top - hh, Width: hw, Height: hh}},
		SE: {box: geom.Box{Left: n.box.Left + hw, Top: n.box.Top - hh, Width: hw, Height: hh}},
	}
	for i := range n.children {
		c := &n.children[i]
		c.depth = d
		c.entries = make([]Entry[T], 0, t.capacity)
	}
	t.nodes += quadrants

	for _, e := range n.entries {
		c := n.childFor(e.Point)
		c.entries = append(c.entries, e)
		if d > t.depth {
			t.depth = d
		}
	}
	n.entries = nil
}

// childFor returns the first child, in NE/NW/SW/SE order, whose box holds p.
// Rounding can leave a point on the parent's outer edge just outside every
// child box; the centre comparison catches that case.
func (n *node[T]) childFor(p geom.Vec2) *node[T] {
	for i := range n.children {
		if c := &n.children[i]; c.box.Contains(p) {
			return c
		}
	}
	mid := n.box.Center()
	switch {
	case p[0] >= mid[0] && p[1] >= mid[1]:
		return &n.children[NE]
	case p[1] >= mid[1]:
		return &n.children[NW]
	case p[0] < mid[0]:
		return &n.children[SW]
	default:
		return &n.children[SE]
	}
}
