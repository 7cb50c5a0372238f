package appconfig

import (
	"fmt"
	"io"
	"strings"

	"github.com/k0kubun/pp/v3"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	home := cfg.Engine.Home
	if home == "" {
		home = "(unset)"
	}
	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Engine Home:      %s\n", home)
	fmt.Fprintf(out, "  Engine Binary:    %s\n", cfg.Engine.Binary)
	fmt.Fprintf(out, "  GUI:              %v\n", cfg.Engine.GUI)
	fmt.Fprintf(out, "  Scenario Config:  %s\n", cfg.Engine.ConfigFile)
	fmt.Fprintf(out, "  Network File:     %s\n", cfg.Engine.NetFile)
	fmt.Fprintf(out, "  Step Length:      %g s\n", cfg.Engine.StepLength)
	fmt.Fprintf(out, "  Bridge URL:       %s\n", cfg.Engine.BridgeURL)
	fmt.Fprintf(out, "  Attach:           %v\n", cfg.Engine.Attach)
	fmt.Fprintf(out, "  Startup Timeout:  %s\n", cfg.StartupTimeoutDuration())
	fmt.Fprintf(out, "  Plugin Config:    %s\n", cfg.Plugin.ConfigFile)
	fmt.Fprintf(out, "  End Time:         %g s\n", cfg.EndTime)
	fmt.Fprintf(out, "  Closure:          %g-%g s on %d lanes\n", cfg.Closure.Begin, cfg.Closure.End, len(cfg.Closure.Lanes))
	fmt.Fprintf(out, "  Closed Lanes:     %s\n", strings.Join(cfg.Closure.Lanes, ", "))
	fmt.Fprintf(out, "  Travel Window:    %g-%g s\n", cfg.Windows.TravelTime.Start, cfg.Windows.TravelTime.End)
	fmt.Fprintf(out, "  Conflict Window:  %g-%g s\n", cfg.Windows.Conflicts.Start, cfg.Windows.Conflicts.End)
	fmt.Fprintf(out, "  Output Dir:       %s\n", cfg.Output.Dir)
	fmt.Fprintf(out, "  Log File:         %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Debug:            %v\n", cfg.Debug)
	fmt.Fprintf(out, "  TUI:              %v\n", cfg.TUI)
}

// DumpConfig pretty prints every field of cfg.
func DumpConfig(out io.Writer, cfg Config, color bool) error {
	printer := pp.New()
	printer.SetOutput(out)
	printer.SetColoringEnabled(color)
	_, err := printer.Println(cfg)
	return err
}
