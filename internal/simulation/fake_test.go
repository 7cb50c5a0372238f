package simulation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mwiater/simlab/internal/engine"
)

// fakeConn is an in-memory engine.Conn.
type fakeConn struct {
	mu        sync.Mutex
	now       float64
	step      float64
	lanes     map[string][]string
	calls     []string
	plugins   []string
	loseAt    float64
	pluginErr error
	closed    int
	onStep    func(now float64)
}

func newFakeConn(step float64) *fakeConn {
	return &fakeConn{step: step, lanes: map[string][]string{}}
}

func (f *fakeConn) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeConn) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loseAt > 0 && f.now+f.step > f.loseAt {
		return fmt.Errorf("step: %w", engine.ErrConnectionLost)
	}
	f.now += f.step
	if f.onStep != nil {
		f.onStep(f.now)
	}
	return nil
}

func (f *fakeConn) Time(ctx context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now, nil
}

func (f *fakeConn) LaneAllowed(ctx context.Context, lane string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("get " + lane)
	allowed, ok := f.lanes[lane]
	if !ok {
		return nil, &engine.CommandError{Op: engine.OpLaneAllowed, Message: "unknown lane " + lane}
	}
	return append([]string(nil), allowed...), nil
}

func (f *fakeConn) SetLaneAllowed(ctx context.Context, lane string, classes []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(fmt.Sprintf("allow %s@%g", lane, f.now))
	f.lanes[lane] = append([]string(nil), classes...)
	return nil
}

func (f *fakeConn) SetLaneDisallowed(ctx context.Context, lane string, classes []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(fmt.Sprintf("disallow %s@%g", lane, f.now))
	f.lanes[lane] = []string{"!" + strings.Join(classes, ",")}
	return nil
}

func (f *fakeConn) LoadPlugin(ctx context.Context, cfg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("plugin " + cfg)
	if f.pluginErr != nil {
		return f.pluginErr
	}
	f.plugins = append(f.plugins, cfg)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeConn) callsWithPrefix(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}
