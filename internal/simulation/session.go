// Package simulation drives scenario runs against an engine connection.
package simulation

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/mwiater/simlab/internal/engine"
	"github.com/mwiater/simlab/internal/logging"
)

// StepKind classifies the outcome of a single Step.
type StepKind int

const (
	// StepContinue means the end time has not been reached.
	StepContinue StepKind = iota
	// StepComplete means the simulation reached its end time.
	StepComplete
	// StepConnectionLost means the engine went away.
	StepConnectionLost
	// StepFailed covers rejected commands and cancellation.
	StepFailed
)

func (k StepKind) String() string {
	switch k {
	case StepContinue:
		return "continue"
	case StepComplete:
		return "complete"
	case StepConnectionLost:
		return "connection lost"
	case StepFailed:
		return "failed"
	}
	return "unknown"
}

// StepResult is what the driving loop branches on after each step.
type StepResult struct {
	Kind StepKind
	// Time is the simulation time after the step. It keeps the last known
	// time when the step did not complete.
	Time float64
	Err  error
}

// Session owns one engine connection for the length of a run.
type Session struct {
	ID string

	conn      engine.Conn
	now       float64
	steps     int
	closeOnce sync.Once
	closeErr  error
}

// NewSession wraps conn under a fresh run id.
func NewSession(conn engine.Conn) *Session {
	return &Session{ID: uuid.NewString(), conn: conn}
}

// Conn exposes the underlying connection for scenario setup.
func (s *Session) Conn() engine.Conn { return s.conn }

// Now returns the last simulation time observed by the session.
func (s *Session) Now() float64 { return s.now }

// Steps returns the number of completed steps.
func (s *Session) Steps() int { return s.steps }

// Time queries the engine clock and records it.
func (s *Session) Time(ctx context.Context) (float64, error) {
	t, err := s.conn.Time(ctx)
	if err != nil {
		return s.now, err
	}
	s.now = t
	return t, nil
}

// Step advances the engine once and reports whether endTime was reached.
func (s *Session) Step(ctx context.Context, endTime float64) StepResult {
	if err := s.conn.Step(ctx); err != nil {
		return s.failure(err)
	}
	s.steps++
	t, err := s.Time(ctx)
	if err != nil {
		return s.failure(err)
	}
	if t >= endTime {
		return StepResult{Kind: StepComplete, Time: t}
	}
	return StepResult{Kind: StepContinue, Time: t}
}

func (s *Session) failure(err error) StepResult {
	if errors.Is(err, engine.ErrConnectionLost) {
		return StepResult{Kind: StepConnectionLost, Time: s.now, Err: err}
	}
	return StepResult{Kind: StepFailed, Time: s.now, Err: err}
}

// Close releases the engine connection. Later calls return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		logging.LogEvent("simulation ended, actual time: %.2f", s.now)
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
