// Package engine talks to a running traffic simulator through its control
// bridge and manages the simulator process lifetime.
package engine

import (
	"context"
	"errors"
	"fmt"
)

// ErrConnectionLost reports that the engine went away mid-run.
var ErrConnectionLost = errors.New("engine connection lost")

// ErrHomeNotSet is returned when the engine install location is unknown.
var ErrHomeNotSet = errors.New("SUMO_HOME is not set; point it at the simulator installation")

// CommandError is a command the engine received but rejected.
type CommandError struct {
	Op      string
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("engine rejected %s: %s", e.Op, e.Message)
}

// Conn is a control connection to one simulator instance.
type Conn interface {
	// Step advances the simulation by one step.
	Step(ctx context.Context) error
	// Time returns the current simulation time in seconds.
	Time(ctx context.Context) (float64, error)
	LaneAllowed(ctx context.Context, laneID string) ([]string, error)
	SetLaneAllowed(ctx context.Context, laneID string, classes []string) error
	SetLaneDisallowed(ctx context.Context, laneID string, classes []string) error
	// LoadPlugin loads a plugin configuration file such as a platooning config.
	LoadPlugin(ctx context.Context, configFile string) error
	Close() error
}
