package system

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	phase Phase
	name  string
	log   *[]string
	err   error
}

func (r recorder) Phase() Phase { return r.phase }

func (r recorder) Update(context.Context) error {
	*r.log = append(*r.log, r.name)
	return r.err
}

func TestRunnerOrdersByPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{PhasePersist, "persist", &log, nil})
	r.Register(recorder{PhaseScan, "scan", &log, nil})
	r.Register(recorder{PhaseSpawn, "spawn-a", &log, nil})
	r.Register(recorder{PhaseReport, "report", &log, nil})
	r.Register(recorder{PhaseSpawn, "spawn-b", &log, nil})

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []string{"spawn-a", "spawn-b", "scan", "report", "persist"}, log)
}

func TestRunnerStopsAtFirstError(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	r := NewRunner()
	r.Register(recorder{PhaseReport, "report", &log, nil})
	r.Register(recorder{PhaseScan, "scan", &log, boom})

	err := r.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "scan phase")
	assert.Equal(t, []string{"scan"}, log)
}

func TestRunPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{PhaseSpawn, "spawn", &log, nil})
	r.Register(recorder{PhaseReport, "report", &log, nil})

	require.NoError(t, r.RunPhase(context.Background(), PhaseReport))
	assert.Equal(t, []string{"report"}, log)
}

func TestRunnerHonoursCancel(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{PhaseSpawn, "spawn", &log, nil})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Run(ctx), context.Canceled)
	assert.Empty(t, log)
}
