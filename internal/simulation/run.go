package simulation

import (
	"context"
	"errors"
	"fmt"

	"github.com/mwiater/simlab/internal/logging"
)

// Reason explains why a run stopped.
type Reason string

const (
	ReasonComplete       Reason = "complete"
	ReasonConnectionLost Reason = "connection lost"
	ReasonCanceled       Reason = "canceled"
	ReasonFailed         Reason = "failed"
)

// Outcome summarizes a finished run.
type Outcome struct {
	RunID     string         `json:"runId"`
	Scenario  string         `json:"scenario"`
	EndTime   float64        `json:"endTime"`
	FinalTime float64        `json:"finalTime"`
	Steps     int            `json:"steps"`
	Events    []ClosureEvent `json:"events,omitempty"`
	Reason    Reason         `json:"reason"`
	// Detail carries the error text for runs that did not complete.
	Detail string `json:"detail,omitempty"`
}

// Progress is a snapshot handed to an Observer while a run advances.
type Progress struct {
	RunID    string
	Scenario string
	Time     float64
	EndTime  float64
	Steps    int
	Closure  string
	Done     bool
	Reason   Reason
}

// Fraction is the share of simulated time already covered, in [0, 1].
func (p Progress) Fraction() float64 {
	if p.EndTime <= 0 {
		return 0
	}
	f := p.Time / p.EndTime
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// Observer receives progress snapshots. It is called from the run goroutine.
type Observer func(Progress)

// ProgressEvery is how many steps pass between routine progress reports.
var ProgressEvery = 50

// Run steps the session until the scenario end time, a lost connection, a
// failure or cancellation. The session is closed on every path. The Outcome
// is filled in on every path too; a lost connection returns Reason
// ReasonConnectionLost together with an error wrapping engine.ErrConnectionLost.
func Run(ctx context.Context, s *Session, sc Scenario, obs Observer) (out Outcome, err error) {
	out = Outcome{RunID: s.ID, Scenario: sc.Name, EndTime: sc.EndTime}
	var closure *closureController
	defer func() {
		out.FinalTime = s.Now()
		out.Steps = s.Steps()
		if err != nil {
			out.Detail = err.Error()
		}
		_ = s.Close()
		logging.LogRun(s.ID, sc.Name, "end", map[string]any{
			"reason": out.Reason, "finalTime": out.FinalTime, "steps": out.Steps,
		})
		notify(obs, s, sc, closureLabel(closure), true, out.Reason)
	}()

	logging.LogRun(s.ID, sc.Name, "start", map[string]any{"endTime": sc.EndTime, "plugin": sc.Plugin})
	conn := s.Conn()

	if sc.Plugin != "" {
		if err := conn.LoadPlugin(ctx, sc.Plugin); err != nil {
			out.Reason = ReasonFailed
			return out, fmt.Errorf("load plugin %s: %w", sc.Plugin, err)
		}
	}

	if sc.Closure != nil {
		closure, err = newClosureController(ctx, conn, *sc.Closure)
		if err != nil {
			out.Reason = ReasonFailed
			return out, err
		}
	}

	now, err := s.Time(ctx)
	if err != nil {
		return stopped(out, s.failure(err))
	}

	// A closure due at the starting time takes effect before the first step.
	updateClosure := func(now float64) error {
		if closure == nil {
			return nil
		}
		ev, cerr := closure.Update(ctx, conn, now)
		if cerr != nil || ev == nil {
			return cerr
		}
		out.Events = append(out.Events, *ev)
		logging.LogRun(s.ID, sc.Name, "lanes "+ev.Phase.String(), map[string]any{"time": ev.Time, "lanes": ev.Lanes})
		notify(obs, s, sc, closureLabel(closure), false, "")
		return nil
	}
	if err := updateClosure(now); err != nil {
		return stopped(out, s.failure(err))
	}

	for now < sc.EndTime {
		res := s.Step(ctx, sc.EndTime)
		switch res.Kind {
		case StepConnectionLost, StepFailed:
			return stopped(out, res)
		}
		now = res.Time

		if err := updateClosure(now); err != nil {
			return stopped(out, s.failure(err))
		}
		if s.Steps()%ProgressEvery == 0 {
			notify(obs, s, sc, closureLabel(closure), false, "")
		}
	}
	out.Reason = ReasonComplete
	return out, nil
}

// stopped converts a non-continuing step into the run result.
func stopped(out Outcome, res StepResult) (Outcome, error) {
	switch {
	case res.Kind == StepConnectionLost:
		logging.Warnf("engine connection lost at %.2f: %v", res.Time, res.Err)
		out.Reason = ReasonConnectionLost
		return out, fmt.Errorf("engine connection lost at %.2f: %w", res.Time, res.Err)
	case isCanceled(res.Err):
		out.Reason = ReasonCanceled
		return out, res.Err
	}
	out.Reason = ReasonFailed
	return out, res.Err
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func notify(obs Observer, s *Session, sc Scenario, closure string, done bool, reason Reason) {
	if obs == nil {
		return
	}
	obs(Progress{
		RunID:    s.ID,
		Scenario: sc.Name,
		Time:     s.Now(),
		EndTime:  sc.EndTime,
		Steps:    s.Steps(),
		Closure:  closure,
		Done:     done,
		Reason:   reason,
	})
}

func closureLabel(c *closureController) string {
	if c == nil {
		return ""
	}
	return c.phase.String()
}
