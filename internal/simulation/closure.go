package simulation

import (
	"context"
	"fmt"

	"github.com/mwiater/simlab/internal/engine"
)

// ClosurePhase is where a lane closure stands during a run.
type ClosurePhase int

const (
	ClosurePending ClosurePhase = iota
	ClosureActive
	ClosureRestored
)

func (p ClosurePhase) String() string {
	switch p {
	case ClosurePending:
		return "pending"
	case ClosureActive:
		return "closed"
	case ClosureRestored:
		return "restored"
	}
	return "none"
}

// ClosureEvent records a lane permission change.
type ClosureEvent struct {
	Phase ClosurePhase `json:"phase"`
	Time  float64      `json:"time"`
	Lanes []string     `json:"lanes"`
}

// closureController applies a LaneClosure once and restores it once.
type closureController struct {
	cfg      LaneClosure
	original map[string][]string
	phase    ClosurePhase
}

// newClosureController snapshots the allowed classes of every lane before
// anything is changed.
func newClosureController(ctx context.Context, conn engine.Conn, cfg LaneClosure) (*closureController, error) {
	original := make(map[string][]string, len(cfg.Lanes))
	for _, lane := range cfg.Lanes {
		allowed, err := conn.LaneAllowed(ctx, lane)
		if err != nil {
			return nil, fmt.Errorf("read allowed classes for lane %s: %w", lane, err)
		}
		original[lane] = allowed
	}
	return &closureController{cfg: cfg, original: original}, nil
}

// Update moves the closure forward for simulation time t and returns the
// event it applied, if any.
func (c *closureController) Update(ctx context.Context, conn engine.Conn, t float64) (*ClosureEvent, error) {
	switch c.phase {
	case ClosurePending:
		if t < c.cfg.Begin {
			return nil, nil
		}
		for _, lane := range c.cfg.Lanes {
			if err := conn.SetLaneDisallowed(ctx, lane, c.cfg.Disallowed); err != nil {
				return nil, fmt.Errorf("close lane %s: %w", lane, err)
			}
		}
		c.phase = ClosureActive
		return &ClosureEvent{Phase: ClosureActive, Time: t, Lanes: c.cfg.Lanes}, nil
	case ClosureActive:
		if t < c.cfg.End {
			return nil, nil
		}
		for _, lane := range c.cfg.Lanes {
			if err := conn.SetLaneAllowed(ctx, lane, c.original[lane]); err != nil {
				return nil, fmt.Errorf("restore lane %s: %w", lane, err)
			}
		}
		c.phase = ClosureRestored
		return &ClosureEvent{Phase: ClosureRestored, Time: t, Lanes: c.cfg.Lanes}, nil
	}
	return nil, nil
}
