package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/mwiater/simlab/internal/logging"
)

// Options describe how to start or reach the engine.
type Options struct {
	Home           string
	Binary         string
	GUI            bool
	ConfigFile     string
	NetFile        string
	StepLength     float64
	RemotePort     int
	ExtraArgs      []string
	BridgeURL      string
	StartupTimeout time.Duration
	// Attach connects to an engine that is already running instead of
	// starting a new process.
	Attach bool
}

var (
	execCommand  = exec.Command
	dialBridge   = Dial
	pollInterval = 200 * time.Millisecond
)

// ResolveBinary returns the engine executable under Home. The GUI variant
// carries a "-gui" suffix.
func ResolveBinary(opts Options) (string, error) {
	if opts.Home == "" {
		return "", ErrHomeNotSet
	}
	name := opts.Binary
	if name == "" {
		name = "sumo"
	}
	if opts.GUI {
		name += "-gui"
	}
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(opts.Home, "bin", name), nil
}

// BuildArgs returns the engine command line for opts.
func BuildArgs(opts Options) []string {
	args := []string{"-c", opts.ConfigFile}
	if opts.NetFile != "" {
		args = append(args, "--net-file", opts.NetFile)
	}
	if opts.StepLength > 0 {
		args = append(args, "--step-length", strconv.FormatFloat(opts.StepLength, 'f', -1, 64))
	}
	args = append(args, "--xml-validation.routes", "never")
	if opts.RemotePort > 0 {
		args = append(args, "--remote-port", strconv.Itoa(opts.RemotePort))
	}
	return append(args, opts.ExtraArgs...)
}

// Start launches the engine (unless attaching) and connects to its bridge.
func Start(ctx context.Context, opts Options) (Conn, error) {
	if opts.BridgeURL == "" {
		return nil, errors.New("engine bridge url is empty")
	}
	if opts.Attach {
		return dialUntil(ctx, opts)
	}

	bin, err := ResolveBinary(opts)
	if err != nil {
		return nil, err
	}
	args := BuildArgs(opts)
	cmd := execCommand(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	logging.LogEvent("starting engine: %s %v", bin, args)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine %s: %w", bin, err)
	}

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	conn, err := dialUntil(ctx, opts)
	if err != nil {
		_ = cmd.Process.Kill()
		<-exited
		return nil, err
	}
	return &processConn{Conn: conn, proc: cmd.Process, exited: exited}, nil
}

// dialUntil retries the bridge until it answers or StartupTimeout passes.
func dialUntil(ctx context.Context, opts Options) (Conn, error) {
	timeout := opts.StartupTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	for {
		conn, err := dialBridge(ctx, opts.BridgeURL, timeout)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		logging.Debugf("engine bridge not ready: %v", err)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("engine bridge %s unreachable after %s: %w", opts.BridgeURL, timeout, lastErr)
		case <-time.After(pollInterval):
		}
	}
}

// processConn owns the engine process started for a Conn.
type processConn struct {
	Conn
	proc   *os.Process
	exited chan error
	done   bool
}

func (p *processConn) Close() error {
	if p.done {
		return nil
	}
	p.done = true
	err := p.Conn.Close()
	select {
	case <-p.exited:
	case <-time.After(5 * time.Second):
		logging.Warnf("engine did not exit after close; killing pid %d", p.proc.Pid)
		_ = p.proc.Kill()
		<-p.exited
	}
	return err
}
