package system

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	coresys "github.com/l1jgo/fovscan/internal/core/system"
	"github.com/l1jgo/fovscan/internal/persist"
)

// RunStore keeps finished runs. *persist.RunRepo implements it.
type RunStore interface {
	Save(ctx context.Context, run persist.Run) error
	FindByDigest(ctx context.Context, digest string) ([]uuid.UUID, error)
	LoadCounts(ctx context.Context, id uuid.UUID) ([]int, error)
}

// PersistSystem writes the run to the result store. Phase 3 (Persist).
//
// 同一佈局（digest 相同）的前一次結果若存在，先比對每個單位的計數；
// 不一致只記錄警告，不阻止寫入。
type PersistSystem struct {
	repo  RunStore
	scene *Scene
	log   *zap.Logger
}

func NewPersistSystem(repo RunStore, scene *Scene, log *zap.Logger) *PersistSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &PersistSystem{repo: repo, scene: scene, log: log}
}

func (s *PersistSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistSystem) Update(ctx context.Context) error {
	if s.scene.Level == nil {
		return errors.New("nothing scanned")
	}
	run := persist.Run{
		ID:       s.scene.RunID,
		Digest:   s.scene.Level.Digest(),
		Indexed:  s.scene.Level.Stats().Indexed,
		Workers:  s.scene.Workers,
		Examined: s.scene.Result.Examined,
		Elapsed:  s.scene.Result.Elapsed,
		Counts:   s.scene.Result.Counts,
	}
	if err := s.compareWithPrevious(ctx, run); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, run); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	s.log.Info("run saved", zap.Stringer("run", run.ID), zap.String("digest", run.Digest))
	return nil
}

// compareWithPrevious checks run against the newest stored run over the
// same layout.
func (s *PersistSystem) compareWithPrevious(ctx context.Context, run persist.Run) error {
	prior, err := s.repo.FindByDigest(ctx, run.Digest)
	if err != nil {
		return fmt.Errorf("find earlier runs: %w", err)
	}
	if len(prior) == 0 {
		return nil
	}
	counts, err := s.repo.LoadCounts(ctx, prior[0])
	if err != nil {
		return fmt.Errorf("load counts of run %s: %w", prior[0], err)
	}
	if !slices.Equal(counts, run.Counts) {
		s.log.Warn("counts differ from an earlier run over the same layout",
			zap.Stringer("run", run.ID),
			zap.Stringer("earlier", prior[0]),
			zap.Int("earlier_runs", len(prior)),
		)
		return nil
	}
	s.log.Info("counts match earlier run",
		zap.Stringer("earlier", prior[0]),
		zap.Int("earlier_runs", len(prior)),
	)
	return nil
}
