// internal/commands/helpers_test.go
package simlab

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/mwiater/simlab/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func resetFlag(cmdFlag string) {
	flag := rootCmd.PersistentFlags().Lookup(cmdFlag)
	if flag == nil {
		return
	}
	_ = flag.Value.Set(flag.DefValue)
	flag.Changed = false
}

// resetAllFlags restores every flag in the command tree to its default.
func resetAllFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetAllFlags(child)
	}
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// useConfig points the root command at a temporary config file.
func useConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := writeTempConfig(t, content)
	prevCfgFile := cfgFile
	cfgFile = configPath
	viper.SetConfigFile(configPath)
	t.Cleanup(func() {
		cfgFile = prevCfgFile
		viper.SetConfigFile(prevCfgFile)
		currentConfig = nil
	})
	t.Cleanup(func() {
		_ = logging.Close()
		logging.SetDebug(false)
	})
	return configPath
}

// executeArgs runs the CLI with a fresh flag state and returns its output.
func executeArgs(t *testing.T, config string, args ...string) (string, error) {
	t.Helper()
	useConfig(t, config)
	resetAllFlags(rootCmd)
	t.Cleanup(func() { resetAllFlags(rootCmd) })

	logPath := filepath.Join(t.TempDir(), "simlab.log")
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append([]string{"--logFile", logPath}, args...))
	t.Cleanup(func() { rootCmd.SetArgs([]string{}) })
	_, err := rootCmd.ExecuteC()
	return buf.String(), err
}
