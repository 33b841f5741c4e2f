package system

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/fovscan/internal/config"
	coresys "github.com/l1jgo/fovscan/internal/core/system"
	"github.com/l1jgo/fovscan/internal/data"
	"github.com/l1jgo/fovscan/internal/geom"
	"github.com/l1jgo/fovscan/internal/scripting"
	"github.com/l1jgo/fovscan/internal/world"
)

// SpawnSystem fills the scene's builder. Phase 0 (Spawn).
//
// 來源優先順序：場景檔 > Lua place_unit 腳本 > 均勻隨機位置與方向。
type SpawnSystem struct {
	cfg      config.SceneConfig
	scene    *Scene
	scenario *data.Scenario
	script   *scripting.Engine
	rng      *rand.Rand
	log      *zap.Logger
}

func NewSpawnSystem(cfg config.SceneConfig, scene *Scene, scenario *data.Scenario, script *scripting.Engine, rng *rand.Rand, log *zap.Logger) *SpawnSystem {
	if log == nil {
		log = zap.NewNop()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &SpawnSystem{cfg: cfg, scene: scene, scenario: scenario, script: script, rng: rng, log: log}
}

func (s *SpawnSystem) Phase() coresys.Phase { return coresys.PhaseSpawn }

func (s *SpawnSystem) Update(ctx context.Context) error {
	switch {
	case s.scenario != nil:
		return s.fromScenario()
	case s.script != nil && s.script.HasPlacement():
		return s.fromScript(ctx)
	default:
		return s.random(ctx)
	}
}

func (s *SpawnSystem) fromScenario() error {
	for i := range s.scenario.Units {
		e := s.scenario.Resolved(i)
		u, err := world.NewUnit(e.FOV, e.ViewDistance)
		if err != nil {
			return fmt.Errorf("scenario unit %d: %w", i, err)
		}
		u.SetTransform(geom.V(e.X, e.Y), geom.Normalize(geom.V(e.DirX, e.DirY)))
		if _, err := s.scene.Builder.Add(u); err != nil {
			return err
		}
	}
	s.log.Debug("spawned from scenario", zap.Int("units", s.scenario.Count()))
	return nil
}

func (s *SpawnSystem) fromScript(ctx context.Context) error {
	tmpl, err := world.NewUnit(s.cfg.FOV, s.cfg.ViewDistance)
	if err != nil {
		return fmt.Errorf("scene view settings: %w", err)
	}
	for i := 0; i < s.cfg.UnitCount; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		pos, dir, err := s.script.Place(i, s.cfg.HalfExtent)
		if err != nil {
			return err
		}
		u := tmpl
		u.SetTransform(pos, dir)
		if _, err := s.scene.Builder.Add(u); err != nil {
			return err
		}
	}
	s.log.Debug("spawned from script", zap.Int("units", s.cfg.UnitCount))
	return nil
}

func (s *SpawnSystem) random(ctx context.Context) error {
	tmpl, err := world.NewUnit(s.cfg.FOV, s.cfg.ViewDistance)
	if err != nil {
		return fmt.Errorf("scene view settings: %w", err)
	}
	h := s.cfg.HalfExtent
	for i := 0; i < s.cfg.UnitCount; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		u := tmpl
		u.SetTransform(s.randomVec(-h, h), s.randomDir())
		if _, err := s.scene.Builder.Add(u); err != nil {
			return err
		}
	}
	s.log.Debug("spawned at random", zap.Int("units", s.cfg.UnitCount))
	return nil
}

func (s *SpawnSystem) randomVec(lo, hi float32) geom.Vec2 {
	return geom.V(lo+s.rng.Float32()*(hi-lo), lo+s.rng.Float32()*(hi-lo))
}

func (s *SpawnSystem) randomDir() geom.Vec2 {
	for {
		if d := s.randomVec(-1, 1); d != (geom.Vec2{}) {
			return geom.Normalize(d)
		}
	}
}
