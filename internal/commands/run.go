// internal/commands/run.go
package simlab

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/mwiater/simlab/internal/appconfig"
	"github.com/mwiater/simlab/internal/engine"
	"github.com/mwiater/simlab/internal/metrics"
	"github.com/mwiater/simlab/internal/simulation"
	"github.com/mwiater/simlab/internal/tui"
	"github.com/spf13/cobra"
)

var (
	startEngine     = engine.Start
	runWithProgress = tui.RunWithProgress

	runNoGUI       bool
	runAttach      bool
	runOutcomePath string
)

// runCmd implements 'run', which executes one scenario against the engine.
var runCmd = &cobra.Command{
	Use:   "run [baseline|platoon|closure|platoon-closure]",
	Short: "Run a simulation scenario",
	Long: `Start the simulator (or attach to a running one), optionally load the
platooning plugin and apply the timed lane closure, then step until the
configured end time. A lost engine connection ends the run with a warning.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: simulation.PresetNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := simulation.Baseline
		if len(args) == 1 {
			name = args[0]
		}
		return runScenario(cmd, name)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runNoGUI, "nogui", false, "run the headless engine binary")
	runCmd.Flags().BoolVar(&runAttach, "attach", false, "attach to an engine that is already running")
	runCmd.Flags().StringVar(&runOutcomePath, "outcome-output", "", "optional path to write the run outcome as JSON")

	rootCmd.AddCommand(runCmd)
}

func runScenario(cmd *cobra.Command, name string) error {
	cfg := currentOrDefault()
	sc, err := simulation.NewScenario(name, cfg.EndTime, cfg.Plugin.ConfigFile, simulation.LaneClosure{
		Lanes:      cfg.Closure.Lanes,
		Begin:      cfg.Closure.Begin,
		End:        cfg.Closure.End,
		Disallowed: cfg.Closure.Disallowed,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	conn, err := startEngine(ctx, engineOptions(cfg, runNoGUI, runAttach))
	if err != nil {
		if errors.Is(err, engine.ErrHomeNotSet) {
			return &appconfig.ConfigError{Problems: []string{err.Error()}}
		}
		return fmt.Errorf("failed to start engine: %w", err)
	}
	session := simulation.NewSession(conn)

	var out simulation.Outcome
	if cfg.TUI {
		out, err = runWithProgress(ctx, sc, func(ctx context.Context, obs simulation.Observer) (simulation.Outcome, error) {
			return simulation.Run(ctx, session, sc, obs)
		})
	} else {
		out, err = simulation.Run(ctx, session, sc, nil)
	}

	writeOutcome(cmd.OutOrStdout(), out)
	if runOutcomePath != "" {
		if werr := metrics.WriteAnalysisJSON(runOutcomePath, out); werr != nil {
			return werr
		}
	}
	return err
}

func engineOptions(cfg appconfig.Config, noGUI, attach bool) engine.Options {
	return engine.Options{
		Home:           cfg.Engine.Home,
		Binary:         cfg.Engine.Binary,
		GUI:            cfg.Engine.GUI && !noGUI,
		ConfigFile:     cfg.Engine.ConfigFile,
		NetFile:        cfg.Engine.NetFile,
		StepLength:     cfg.Engine.StepLength,
		RemotePort:     cfg.Engine.RemotePort,
		ExtraArgs:      cfg.Engine.ExtraArgs,
		BridgeURL:      cfg.Engine.BridgeURL,
		StartupTimeout: cfg.StartupTimeoutDuration(),
		Attach:         cfg.Engine.Attach || attach,
	}
}

func writeOutcome(w io.Writer, out simulation.Outcome) {
	fmt.Fprintf(w, "run %s (%s): %s at %.2f s after %d steps\n", out.RunID, out.Scenario, out.Reason, out.FinalTime, out.Steps)
	for _, ev := range out.Events {
		fmt.Fprintf(w, "  lanes %s at %.2f s: %d lanes\n", ev.Phase, ev.Time, len(ev.Lanes))
	}
	if out.Reason == simulation.ReasonConnectionLost {
		fmt.Fprintln(w, color.YellowString("warning: engine connection lost before %.2f s: %s", out.EndTime, out.Detail))
	}
}
