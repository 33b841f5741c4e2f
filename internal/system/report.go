package system

import (
	"context"
	"errors"
	"io"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/l1jgo/fovscan/internal/config"
	coresys "github.com/l1jgo/fovscan/internal/core/system"
)

// ReportSystem prints the scan timing and, optionally, every unit's
// count. Phase 2 (Report).
type ReportSystem struct {
	out   io.Writer
	cfg   config.ReportConfig
	scene *Scene
	p     *message.Printer
}

func NewReportSystem(out io.Writer, cfg config.ReportConfig, scene *Scene) *ReportSystem {
	tag, err := language.Parse(cfg.Language)
	if err != nil {
		tag = language.English
	}
	return &ReportSystem{out: out, cfg: cfg, scene: scene, p: message.NewPrinter(tag)}
}

func (s *ReportSystem) Phase() coresys.Phase { return coresys.PhaseReport }

func (s *ReportSystem) Update(_ context.Context) error {
	if s.scene.Level == nil {
		return errors.New("nothing scanned")
	}
	res := s.scene.Result
	ms := float64(res.Elapsed) / float64(time.Millisecond)

	if _, err := s.p.Fprintf(s.out, "units traverse takes %f millisec\n", ms); err != nil {
		return err
	}
	if _, err := s.p.Fprintf(s.out, "units: %d  examined: %d\n", len(res.Counts), res.Examined); err != nil {
		return err
	}
	if !s.cfg.PrintUnits {
		return nil
	}
	for id, n := range res.Counts {
		if _, err := s.p.Fprintf(s.out, "unit %d: %d\n", id, n); err != nil {
			return err
		}
	}
	return nil
}
