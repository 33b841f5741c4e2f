package system

import (
	"context"
	"fmt"
	"sort"
)

// Runner executes systems in phase order. Systems sharing a phase keep
// their registration order.
type Runner struct {
	systems []System
	sorted  bool
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 8),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Run updates every system once and stops at the first error.
func (r *Runner) Run(ctx context.Context) error {
	r.ensureSorted()
	for _, s := range r.systems {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Update(ctx); err != nil {
			return fmt.Errorf("%s phase: %w", s.Phase(), err)
		}
	}
	return nil
}

// RunPhase updates only the systems registered for phase.
func (r *Runner) RunPhase(ctx context.Context, phase Phase) error {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() != phase {
			continue
		}
		if err := s.Update(ctx); err != nil {
			return fmt.Errorf("%s phase: %w", phase, err)
		}
	}
	return nil
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
