package system

import "context"

// Phase defines execution ordering within one run.
type Phase int

const (
	PhaseSpawn   Phase = iota // 0: place units into the level builder
	PhaseScan                 // 1: seal the level, fan out visibility counts
	PhaseReport               // 2: print results
	PhasePersist              // 3: store the run
)

func (p Phase) String() string {
	switch p {
	case PhaseSpawn:
		return "spawn"
	case PhaseScan:
		return "scan"
	case PhaseReport:
		return "report"
	case PhasePersist:
		return "persist"
	}
	return "unknown"
}

// System is one step of a run.
type System interface {
	Phase() Phase
	Update(ctx context.Context) error
}
