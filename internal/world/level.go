package world

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/l1jgo/fovscan/internal/core/worker"
	"github.com/l1jgo/fovscan/internal/fov"
	"github.com/l1jgo/fovscan/internal/quadtree"
)

var (
	ErrSealed      = errors.New("level is sealed, units can no longer be added")
	ErrUnknownUnit = errors.New("unknown unit id")
)

// BuilderOptions configures the level and its index.
type BuilderOptions struct {
	Capacity     int     // expected unit count
	HalfExtent   float32 // index covers [-HalfExtent, HalfExtent] on both axes
	NodeCapacity int     // 0 = quadtree.DefaultCapacity
	MaxDepth     int     // 0 = quadtree.DefaultMaxDepth
	Pool         *worker.Pool
}

// Builder is the insert phase of a level. Not safe for concurrent use.
// Build seals it and hands back the read-only Level.
type Builder struct {
	opts    BuilderOptions
	units   []Unit
	tree    *quadtree.Tree[UnitID]
	dropped int
	sealed  bool
	log     *zap.Logger
}

func NewBuilder(opts BuilderOptions, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{
		opts:  opts,
		units: make([]Unit, 0, max(opts.Capacity, 0)),
		tree:  quadtree.New[UnitID](opts.HalfExtent, opts.NodeCapacity, opts.MaxDepth),
		log:   log,
	}
}

// Add appends u and indexes its position. A position outside the scene
// keeps its id but is not indexed, so no other unit will ever see it.
func (b *Builder) Add(u Unit) (UnitID, error) {
	if b.sealed {
		return 0, ErrSealed
	}
	// fields may have been set directly, so the view is always re-derived
	if err := fov.Validate(u.FOV, u.ViewDistance); err != nil {
		return 0, fmt.Errorf("add unit: %w", err)
	}
	u.halfBase = fov.HalfBase(u.FOV, u.ViewDistance)
	u.SetTransform(u.Position, u.Direction)
	id := UnitID(len(b.units))
	b.units = append(b.units, u)
	if !b.tree.Insert(u.Position, id) {
		b.dropped++
		b.log.Debug("unit outside scene, not indexed",
			zap.Uint32("unit", uint32(id)),
			zap.Float32("x", u.Position[0]),
			zap.Float32("y", u.Position[1]),
		)
	}
	return id, nil
}

// Len returns the number of units added so far.
func (b *Builder) Len() int { return len(b.units) }

// Build seals the builder. Every later Add fails with ErrSealed.
func (b *Builder) Build() *Level {
	b.sealed = true
	l := &Level{
		units:   b.units,
		tree:    b.tree,
		pool:    b.opts.Pool,
		dropped: b.dropped,
		log:     b.log,
	}
	b.log.Debug("level sealed",
		zap.Int("units", len(l.units)),
		zap.Int("indexed", l.tree.Len()),
		zap.Int("dropped", l.dropped),
		zap.Int("depth", l.tree.Depth()),
	)
	return l
}

// Level is the query phase: units and their index, never mutated again.
// All methods are safe for concurrent use.
type Level struct {
	units   []Unit
	tree    *quadtree.Tree[UnitID]
	pool    *worker.Pool
	dropped int
	log     *zap.Logger
}

// Len returns the number of units.
func (l *Level) Len() int { return len(l.units) }

// Unit returns a copy of the unit with the given id.
func (l *Level) Unit(id UnitID) (Unit, error) {
	if int(id) >= len(l.units) {
		return Unit{}, fmt.Errorf("%w: %d", ErrUnknownUnit, id)
	}
	return l.units[id], nil
}

// CountVisible returns how many other indexed units lie inside the view
// of unit id. A unit sharing id's exact position is counted as id itself.
func (l *Level) CountVisible(id UnitID) (int, error) {
	if int(id) >= len(l.units) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownUnit, id)
	}
	n, _ := fov.CountVisible(l.units[id].Frustum(), l.tree)
	return n, nil
}

// ForEachUnit calls fn once per unit with a copy of it; the level itself
// cannot be changed from fn. With a pool, each call is queued as its own
// task and ForEachUnit returns without waiting; completion tracking is up to
// fn. Without a pool, calls run here in id order.
func (l *Level) ForEachUnit(fn func(id UnitID, u Unit)) error {
	if l.pool == nil {
		for i := range l.units {
			fn(UnitID(i), l.units[i])
		}
		return nil
	}
	for i := range l.units {
		id, u := UnitID(i), l.units[i]
		if err := l.pool.Submit(func() { fn(id, u) }); err != nil {
			return fmt.Errorf("queue unit %d: %w", id, err)
		}
	}
	return nil
}

// ScanResult holds per-unit visible counts, indexed by UnitID.
type ScanResult struct {
	Counts   []int
	Examined int64 // index entries examined over all queries
	Elapsed  time.Duration
}

// Scan counts visible units for every unit, fanning out over the pool when
// one is attached, and returns once every count is in.
func (l *Level) Scan(ctx context.Context) (ScanResult, error) {
	res := ScanResult{Counts: make([]int, len(l.units))}
	var examined atomic.Int64
	count := func(id UnitID, u *Unit) {
		n, e := fov.CountVisible(u.Frustum(), l.tree)
		res.Counts[id] = n
		examined.Add(int64(e))
	}

	start := time.Now()
	if l.pool == nil {
		for i := range l.units {
			if err := ctx.Err(); err != nil {
				return ScanResult{}, err
			}
			count(UnitID(i), &l.units[i])
		}
	} else {
		b := worker.NewBatch(l.pool)
		for i := range l.units {
			id, u := UnitID(i), &l.units[i]
			if err := b.Go(func() { count(id, u) }); err != nil {
				// queued tasks may still be writing res
				return ScanResult{}, fmt.Errorf("queue unit %d: %w", id, err)
			}
		}
		if err := b.Wait(ctx); err != nil {
			return ScanResult{}, fmt.Errorf("scan: %w", err)
		}
	}
	res.Elapsed = time.Since(start)
	res.Examined = examined.Load()
	return res, nil
}

// Stats describes the level's index.
type Stats struct {
	Units        int
	Indexed      int
	Dropped      int
	Depth        int
	Nodes        int
	NodeCapacity int
}

func (l *Level) Stats() Stats {
	return Stats{
		Units:        len(l.units),
		Indexed:      l.tree.Len(),
		Dropped:      l.dropped,
		Depth:        l.tree.Depth(),
		Nodes:        l.tree.Nodes(),
		NodeCapacity: l.tree.Capacity(),
	}
}

// Digest is a blake2b-256 over every unit's view parameters, position and
// direction in id order. Two levels with the same digest scan identically.
func (l *Level) Digest() string {
	h, _ := blake2b.New256(nil)
	var buf [24]byte
	for i := range l.units {
		u := &l.units[i]
		for j, f := range [6]float32{u.Position[0], u.Position[1], u.Direction[0], u.Direction[1], u.FOV, u.ViewDistance} {
			binary.LittleEndian.PutUint32(buf[j*4:], math.Float32bits(f))
		}
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
