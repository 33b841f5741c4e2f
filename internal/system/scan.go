package system

import (
	"context"
	"errors"

	"go.uber.org/zap"

	coresys "github.com/l1jgo/fovscan/internal/core/system"
)

// ScanSystem seals the builder and counts visible units for everyone.
// Phase 1 (Scan). 此階段之後 Level 唯讀，不可再加入單位。
type ScanSystem struct {
	scene *Scene
	log   *zap.Logger
}

func NewScanSystem(scene *Scene, log *zap.Logger) *ScanSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScanSystem{scene: scene, log: log}
}

func (s *ScanSystem) Phase() coresys.Phase { return coresys.PhaseScan }

func (s *ScanSystem) Update(ctx context.Context) error {
	if s.scene.Builder == nil {
		return errors.New("scene has no builder")
	}
	s.scene.Level = s.scene.Builder.Build()

	res, err := s.scene.Level.Scan(ctx)
	if err != nil {
		return err
	}
	s.scene.Result = res

	st := s.scene.Level.Stats()
	s.log.Info("scan complete",
		zap.Stringer("run", s.scene.RunID),
		zap.Int("units", st.Units),
		zap.Int("indexed", st.Indexed),
		zap.Int("dropped", st.Dropped),
		zap.Int("depth", st.Depth),
		zap.Int("nodes", st.Nodes),
		zap.Int("node_capacity", st.NodeCapacity),
		zap.Int64("examined", res.Examined),
		zap.Duration("elapsed", res.Elapsed),
	)
	return nil
}
