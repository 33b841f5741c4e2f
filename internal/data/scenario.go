package data

import (
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/l1jgo/fovscan/internal/fov"
)

// UnitEntry places one unit. Zero FOV or ViewDistance take the scenario
// defaults.
type UnitEntry struct {
	X            float32 `yaml:"x"`
	Y            float32 `yaml:"y"`
	DirX         float32 `yaml:"dir_x"`
	DirY         float32 `yaml:"dir_y"`
	FOV          float32 `yaml:"fov"`
	ViewDistance float32 `yaml:"view_distance"`
	Note         string  `yaml:"note"`
}

// Scenario is a hand-authored unit layout.
type Scenario struct {
	HalfExtent   float32     `yaml:"half_extent"` // 0 = keep the configured extent
	FOV          float32     `yaml:"fov"`
	ViewDistance float32     `yaml:"view_distance"`
	Units        []UnitEntry `yaml:"units"`
}

// LoadScenario reads and validates a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	s, err := ParseScenario(raw)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(raw []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate reports every unit whose view settings are unusable or whose
// direction is the zero vector.
func (s *Scenario) Validate() error {
	var err error
	if s.HalfExtent < 0 {
		err = multierr.Append(err, fmt.Errorf("half_extent must not be negative, got %v", s.HalfExtent))
	}
	for i := range s.Units {
		u := s.Resolved(i)
		if verr := fov.Validate(u.FOV, u.ViewDistance); verr != nil {
			err = multierr.Append(err, fmt.Errorf("unit %d: %w", i, verr))
		}
		if u.DirX == 0 && u.DirY == 0 {
			err = multierr.Append(err, fmt.Errorf("unit %d: direction is zero", i))
		}
	}
	return err
}

// Resolved returns unit i with scenario defaults filled in.
func (s *Scenario) Resolved(i int) UnitEntry {
	u := s.Units[i]
	if u.FOV == 0 {
		u.FOV = s.FOV
	}
	if u.ViewDistance == 0 {
		u.ViewDistance = s.ViewDistance
	}
	return u
}

// Count returns the number of units in the scenario.
func (s *Scenario) Count() int {
	return len(s.Units)
}
