package quadtree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/fovscan/internal/geom"
)

func collect(t *Tree[int], area geom.Box) (map[int]geom.Vec2, int) {
	seen := make(map[int]geom.Vec2)
	checked := t.ForEachInBox(area, func(p geom.Vec2, ref int) {
		if _, dup := seen[ref]; dup {
			panic("point visited twice")
		}
		seen[ref] = p
	})
	return seen, checked
}

func TestInsertDiagonalSplitsRoot(t *testing.T) {
	tr := New[int](10, 4, 0)
	pts := []geom.Vec2{geom.V(0, 0), geom.V(1, 1), geom.V(2, 2), geom.V(3, 3), geom.V(4, 4)}
	for i, p := range pts {
		require.True(t, tr.Insert(p, i))
	}

	assert.False(t, tr.root.isLeaf(), "root should have split on the fifth point")
	assert.Empty(t, tr.root.entries)
	assert.Equal(t, 5, tr.Len())

	seen, checked := collect(tr, tr.Bounds())
	assert.Len(t, seen, 5)
	assert.Equal(t, 5, checked)
	for i, p := range pts {
		assert.Equal(t, p, seen[i])
	}
}

func TestInsertOutsideRootIsDropped(t *testing.T) {
	tr := New[int](10, 4, 0)
	assert.False(t, tr.Insert(geom.V(10.5, 0), 1))
	assert.False(t, tr.Insert(geom.V(0, -11), 2))
	assert.True(t, tr.Insert(geom.V(10, -10), 3))
	assert.Equal(t, 1, tr.Len())
}

func TestFullBoxQueryFindsEveryPointOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, capacity := range []int{1, 2, 4, 8} {
		tr := New[int](50, capacity, 0)
		want := make(map[int]geom.Vec2)
		for i := 0; i < 2000; i++ {
			p := geom.V(rng.Float32()*100-50, rng.Float32()*100-50)
			require.True(t, tr.Insert(p, i))
			want[i] = p
		}

		seen, checked := collect(tr, tr.Bounds())
		assert.Equal(t, want, seen, "capacity %d", capacity)
		assert.Equal(t, 2000, checked)
	}
}

func TestQueryMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tr := New[int](100, 4, 0)
	pts := make([]geom.Vec2, 5000)
	for i := range pts {
		pts[i] = geom.V(rng.Float32()*200-100, rng.Float32()*200-100)
		tr.Insert(pts[i], i)
	}

	for q := 0; q < 50; q++ {
		area := geom.Box{
			Left:   rng.Float32()*200 - 100,
			Top:    rng.Float32()*200 - 100,
			Width:  rng.Float32() * 40,
			Height: rng.Float32() * 40,
		}
		seen, checked := collect(tr, area)

		want := 0
		for i, p := range pts {
			if area.Contains(p) {
				want++
				assert.Contains(t, seen, i)
			}
		}
		assert.Len(t, seen, want)
		assert.Less(t, checked, len(pts), "query should prune")
	}
}

func TestDisjointQueryVisitsNothing(t *testing.T) {
	tr := New[int](10, 4, 0)
	for i := 0; i < 20; i++ {
		tr.Insert(geom.V(float32(i%10), float32(-i%10)), i)
	}
	visited := 0
	n := tr.ForEachInBox(geom.Box{Left: 20, Top: 40, Width: 5, Height: 5}, func(geom.Vec2, int) { visited++ })
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, visited)
}

func TestSplitPartitionsParent(t *testing.T) {
	tr := New[int](8, 3, 0)
	pts := []geom.Vec2{geom.V(1, 1), geom.V(-1, 1), geom.V(-1, -1), geom.V(1, -1)}
	for i, p := range pts[:3] {
		tr.Insert(p, i)
	}
	require.True(t, tr.root.isLeaf())
	before := append([]Entry[int](nil), tr.root.entries...)

	tr.split(&tr.root)

	parent := tr.root.box
	var area float32
	for i := range tr.root.children {
		c := tr.root.children[i].box
		area += c.Width * c.Height
		assert.Equal(t, parent.Width/2, c.Width)
		assert.Equal(t, parent.Height/2, c.Height)
		for j := range tr.root.children {
			if i != j {
				assert.False(t, c.Intersects(tr.root.children[j].box), "children %d and %d overlap", i, j)
			}
		}
	}
	assert.Equal(t, parent.Width*parent.Height, area)

	ch := tr.root.children
	assert.Equal(t, geom.Box{Left: 0, Top: 8, Width: 8, Height: 8}, ch[NE].box)
	assert.Equal(t, geom.Box{Left: -8, Top: 8, Width: 8, Height: 8}, ch[NW].box)
	assert.Equal(t, geom.Box{Left: -8, Top: 0, Width: 8, Height: 8}, ch[SW].box)
	assert.Equal(t, geom.Box{Left: 0, Top: 0, Width: 8, Height: 8}, ch[SE].box)

	assert.Empty(t, tr.root.entries)
	total := 0
	for _, e := range before {
		holders := 0
		for i := range ch {
			for _, ce := range ch[i].entries {
				if ce == e {
					holders++
				}
			}
		}
		assert.Equal(t, 1, holders, "entry %v", e)
		total += holders
	}
	assert.Equal(t, len(before), total)
	assert.Equal(t, 5, tr.Nodes())
}

func TestDuplicatePointsStopAtMaxDepth(t *testing.T) {
	tr := New[int](10, 1, 6)
	for i := 0; i < 50; i++ {
		require.True(t, tr.Insert(geom.V(3, 3), i))
	}
	assert.Equal(t, 6, tr.Depth())
	assert.Equal(t, 50, tr.Len())

	seen, _ := collect(tr, geom.Box{Left: 2, Top: 4, Width: 2, Height: 2})
	assert.Len(t, seen, 50)
}

func TestEdgePointsLandInAChild(t *testing.T) {
	tr := New[int](10, 1, 0)
	corners := []geom.Vec2{geom.V(10, 10), geom.V(-10, 10), geom.V(-10, -10), geom.V(10, -10), geom.V(0, 0), geom.V(10, 0)}
	for i, p := range corners {
		require.True(t, tr.Insert(p, i))
	}
	seen, _ := collect(tr, tr.Bounds())
	assert.Len(t, seen, len(corners))
}
