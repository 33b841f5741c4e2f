package system

import (
	"github.com/google/uuid"

	"github.com/l1jgo/fovscan/internal/world"
)

// Scene carries one run's state from phase to phase.
// 只由 Runner 所在的 goroutine 存取，不需加鎖。
type Scene struct {
	RunID   uuid.UUID
	Builder *world.Builder
	Level   *world.Level // set by ScanSystem
	Result  world.ScanResult
	Workers int // 0 when scanning inline
}

func NewScene(b *world.Builder, workers int) *Scene {
	return &Scene{
		RunID:   uuid.New(),
		Builder: b,
		Workers: workers,
	}
}
