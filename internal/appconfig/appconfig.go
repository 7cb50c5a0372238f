// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// legacyConfigPath is checked when the default file does not exist.
	legacyConfigPath = "simlab.json"
	// defaultStartupTimeout bounds how long the engine bridge may take to come up.
	defaultStartupTimeout = 30 * time.Second
)

//go:embed schema.json
var schemaJSON []byte

// DisallowedClasses is the vehicle class list blocked on closed lanes.
var DisallowedClasses = []string{
	"private", "passenger", "truck", "bus", "taxi", "coach", "delivery", "trailer",
	"motorcycle", "evehicle", "vip", "army", "hov", "custom1", "custom2",
}

// ClosedLanes are the corridor lanes closed during the incident scenario.
var ClosedLanes = []string{
	"106130759-AddedOffRampEdge_3",
	"328393125-AddedOnRampEdge_3",
	"615002705#0_1",
	"615002705#0_3",
}

// Config represents the top-level application configuration.
type Config struct {
	Engine     EngineConfig  `json:"engine"`
	Plugin     PluginConfig  `json:"plugin"`
	Closure    ClosureConfig `json:"closure"`
	EndTime    float64       `json:"endTime"`
	Windows    WindowsConfig `json:"windows"`
	Inputs     InputsConfig  `json:"inputs"`
	Output     OutputConfig  `json:"output"`
	LogFile    string        `json:"logFile,omitempty"`
	Debug      bool          `json:"debug"`
	TUI        bool          `json:"tui"`
	ConfigPath string        `json:"-"`
}

// EngineConfig describes how the simulator is started and reached.
type EngineConfig struct {
	Home           string   `json:"home"`
	Binary         string   `json:"binary"`
	GUI            bool     `json:"gui"`
	ConfigFile     string   `json:"configFile"`
	NetFile        string   `json:"netFile"`
	StepLength     float64  `json:"stepLength"`
	RemotePort     int      `json:"remotePort"`
	BridgeURL      string   `json:"bridgeURL"`
	StartupTimeout int      `json:"startupTimeout"`
	ExtraArgs      []string `json:"extraArgs,omitempty"`
	Attach         bool     `json:"attach"`
}

// PluginConfig names the platooning plugin configuration.
type PluginConfig struct {
	ConfigFile string `json:"configFile"`
}

// ClosureConfig describes the timed lane closure.
type ClosureConfig struct {
	Lanes      []string `json:"lanes"`
	Begin      float64  `json:"begin"`
	End        float64  `json:"end"`
	Disallowed []string `json:"disallowed"`
}

// WindowConfig is an inclusive simulation time interval in seconds.
type WindowConfig struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// WindowsConfig holds the analysis windows.
type WindowsConfig struct {
	TravelTime WindowConfig `json:"travelTime"`
	Conflicts  WindowConfig `json:"conflicts"`
}

// InputsConfig holds the default log locations used by the analyze commands.
type InputsConfig struct {
	Tripinfo  string `json:"tripinfo"`
	Emissions string `json:"emissions"`
	Conflicts string `json:"conflicts"`
}

// OutputConfig holds where generated tables are written.
type OutputConfig struct {
	Dir string `json:"dir"`
}

// ConfigError lists everything wrong with a configuration.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Defaults returns the built-in configuration for the M50 corridor study.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			Binary:         "sumo",
			GUI:            true,
			ConfigFile:     "M50_simulation.sumocfg",
			NetFile:        "M50network.net.xml.gz",
			StepLength:     0.2,
			RemotePort:     8813,
			BridgeURL:      "ws://127.0.0.1:8814/control",
			StartupTimeout: int(defaultStartupTimeout.Seconds()),
		},
		Plugin: PluginConfig{ConfigFile: "simpla.cfg.xml"},
		Closure: ClosureConfig{
			Lanes:      append([]string(nil), ClosedLanes...),
			Begin:      27000,
			End:        27900,
			Disallowed: append([]string(nil), DisallowedClasses...),
		},
		EndTime: 28800,
		Windows: WindowsConfig{
			TravelTime: WindowConfig{Start: 25200, End: 28800},
			Conflicts:  WindowConfig{Start: 25200, End: 27000},
		},
		Inputs: InputsConfig{
			Tripinfo:  "tripinfo.xml",
			Emissions: "emission.xml",
			Conflicts: "ssm.xml",
		},
		Output:  OutputConfig{Dir: "analysis_output"},
		LogFile: "simlab.log",
	}
}

// DefaultValues flattens Defaults into dotted keys for viper.SetDefault.
func DefaultValues() map[string]any {
	d := Defaults()
	return map[string]any{
		"engine.binary":            d.Engine.Binary,
		"engine.gui":               d.Engine.GUI,
		"engine.configFile":        d.Engine.ConfigFile,
		"engine.netFile":           d.Engine.NetFile,
		"engine.stepLength":        d.Engine.StepLength,
		"engine.remotePort":        d.Engine.RemotePort,
		"engine.bridgeURL":         d.Engine.BridgeURL,
		"engine.startupTimeout":    d.Engine.StartupTimeout,
		"engine.attach":            d.Engine.Attach,
		"plugin.configFile":        d.Plugin.ConfigFile,
		"closure.lanes":            d.Closure.Lanes,
		"closure.begin":            d.Closure.Begin,
		"closure.end":              d.Closure.End,
		"closure.disallowed":       d.Closure.Disallowed,
		"endTime":                  d.EndTime,
		"windows.travelTime.start": d.Windows.TravelTime.Start,
		"windows.travelTime.end":   d.Windows.TravelTime.End,
		"windows.conflicts.start":  d.Windows.Conflicts.Start,
		"windows.conflicts.end":    d.Windows.Conflicts.End,
		"inputs.tripinfo":          d.Inputs.Tripinfo,
		"inputs.emissions":         d.Inputs.Emissions,
		"inputs.conflicts":         d.Inputs.Conflicts,
		"output.dir":               d.Output.Dir,
		"logFile":                  d.LogFile,
		"debug":                    d.Debug,
		"tui":                      d.TUI,
	}
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "simlab.log"
}

// StartupTimeoutDuration returns how long to wait for the engine bridge.
func (c Config) StartupTimeoutDuration() time.Duration {
	if c.Engine.StartupTimeout <= 0 {
		return defaultStartupTimeout
	}
	return time.Duration(c.Engine.StartupTimeout) * time.Second
}

// OutputPath joins name onto the output directory.
func (c Config) OutputPath(name string) string {
	dir := c.Output.Dir
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	return filepath.Join(dir, name)
}

// Check reports semantic problems the schema cannot express.
func (c Config) Check() error {
	var problems []string
	if c.EndTime <= 0 {
		problems = append(problems, "endTime must be positive")
	}
	if c.Engine.StepLength <= 0 {
		problems = append(problems, "engine.stepLength must be positive")
	}
	if strings.TrimSpace(c.Engine.ConfigFile) == "" {
		problems = append(problems, "engine.configFile is required")
	}
	if strings.TrimSpace(c.Engine.BridgeURL) == "" {
		problems = append(problems, "engine.bridgeURL is required")
	}
	if c.Closure.Begin > c.Closure.End {
		problems = append(problems, fmt.Sprintf("closure.begin (%g) is after closure.end (%g)", c.Closure.Begin, c.Closure.End))
	}
	if c.Closure.End > c.EndTime && c.EndTime > 0 {
		problems = append(problems, fmt.Sprintf("closure.end (%g) is after endTime (%g)", c.Closure.End, c.EndTime))
	}
	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}

// Validate checks raw JSON against the embedded configuration schema.
func Validate(raw []byte) error {
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var details []string
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return &ConfigError{Problems: details}
}

// ValidateConfig checks an already decoded Config against the schema.
func ValidateConfig(c Config) error {
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewGoLoader(c))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return &ConfigError{Problems: details}
	}
	return c.Check()
}

// Load reads the application configuration from the specified path, with fallback to a legacy path.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err == nil {
		config.ConfigPath = path
		return config, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		if path == DefaultConfigPath {
			config, legacyErr := loadFromPath(legacyConfigPath)
			if legacyErr == nil {
				config.ConfigPath = legacyConfigPath
				return config, nil
			}
			if errors.Is(legacyErr, os.ErrNotExist) {
				return Config{}, fmt.Errorf("no configuration file found (searched %q and %q)", DefaultConfigPath, legacyConfigPath)
			}
			return Config{}, fmt.Errorf("could not read config file %q: %w", legacyConfigPath, legacyErr)
		}
		return Config{}, fmt.Errorf("no configuration file found at %q", path)
	}

	return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
}

// loadFromPath validates the file and decodes it over the defaults.
func loadFromPath(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := Validate(raw); err != nil {
		return Config{}, err
	}

	config := Defaults()
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&config); err != nil {
		return Config{}, err
	}
	if err := config.Check(); err != nil {
		return Config{}, err
	}
	return config, nil
}
