package simulation

import (
	"fmt"
	"sort"
	"strings"
)

// Preset names accepted by NewScenario.
const (
	Baseline       = "baseline"
	Platoon        = "platoon"
	Closure        = "closure"
	PlatoonClosure = "platoon-closure"
)

// LaneClosure temporarily forbids vehicle classes on a set of lanes.
type LaneClosure struct {
	Lanes      []string
	Begin      float64
	End        float64
	Disallowed []string
}

// Validate checks that the closure describes a usable interval.
func (c LaneClosure) Validate() error {
	if len(c.Lanes) == 0 {
		return fmt.Errorf("lane closure has no lanes")
	}
	if c.Begin > c.End {
		return fmt.Errorf("lane closure begins at %g after it ends at %g", c.Begin, c.End)
	}
	if len(c.Disallowed) == 0 {
		return fmt.Errorf("lane closure disallows no vehicle classes")
	}
	return nil
}

// Scenario is one configured run.
type Scenario struct {
	Name    string
	EndTime float64
	// Plugin is a plugin configuration loaded before the first step.
	Plugin  string
	Closure *LaneClosure
}

// PresetNames lists the scenarios NewScenario understands.
func PresetNames() []string {
	names := []string{Baseline, Platoon, Closure, PlatoonClosure}
	sort.Strings(names)
	return names
}

// NewScenario builds a preset from the shared run settings.
func NewScenario(name string, endTime float64, plugin string, closure LaneClosure) (Scenario, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = Baseline
	}
	if endTime <= 0 {
		return Scenario{}, fmt.Errorf("end time must be positive, got %g", endTime)
	}
	var withPlugin, withClosure bool
	switch name {
	case Baseline:
	case Platoon:
		withPlugin = true
	case Closure:
		withClosure = true
	case PlatoonClosure:
		withPlugin, withClosure = true, true
	default:
		return Scenario{}, fmt.Errorf("unknown scenario %q (want one of %s)", name, strings.Join(PresetNames(), ", "))
	}

	sc := Scenario{Name: name, EndTime: endTime}
	if withPlugin {
		if strings.TrimSpace(plugin) == "" {
			return Scenario{}, fmt.Errorf("scenario %s needs a plugin configuration file", name)
		}
		sc.Plugin = plugin
	}
	if withClosure {
		if err := closure.Validate(); err != nil {
			return Scenario{}, fmt.Errorf("scenario %s: %w", name, err)
		}
		c := closure
		c.Lanes = append([]string(nil), closure.Lanes...)
		c.Disallowed = append([]string(nil), closure.Disallowed...)
		sc.Closure = &c
	}
	return sc, nil
}
