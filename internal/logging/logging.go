package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mwiater/simlab/internal/util"
)

// maxCommandPayload caps traced engine payloads, in runes.
const maxCommandPayload = 512

var (
	mu      sync.Mutex
	logFile *os.File
	debug   bool
)

// Init routes the standard logger to stdout and, when logPath is set, to an
// appended log file.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writers []io.Writer
	writers = append(writers, os.Stdout)

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	log.SetOutput(io.MultiWriter(writers...))
	return nil
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	log.SetOutput(os.Stderr)
	err := logFile.Close()
	logFile = nil
	return err
}

// SetDebug toggles Debugf and engine command tracing.
func SetDebug(enabled bool) {
	mu.Lock()
	debug = enabled
	mu.Unlock()
}

func debugEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return debug
}

func LogEvent(format string, args ...any) {
	log.Println(fmt.Sprintf(format, args...))
}

func Warnf(format string, args ...any) {
	log.Println("[WARN] " + fmt.Sprintf(format, args...))
}

func Errorf(format string, args ...any) {
	log.Println("[ERROR] " + fmt.Sprintf(format, args...))
}

func Debugf(format string, args ...any) {
	if !debugEnabled() {
		return
	}
	log.Println("[DEBUG] " + fmt.Sprintf(format, args...))
}

// LogRun records a simulation lifecycle event tagged with its run ID.
func LogRun(runID, scenario, event string, detail any) {
	log.Println(buildRunMessage(runID, scenario, event, detail))
}

// LogCommand traces one engine control exchange when debug is on.
func LogCommand(direction, op string, payload any) {
	if !debugEnabled() {
		return
	}
	log.Println(buildCommandMessage(direction, op, payload))
}

func buildRunMessage(runID, scenario, event string, detail any) string {
	id := strings.TrimSpace(runID)
	if id == "" {
		id = "unknown"
	}
	name := strings.TrimSpace(scenario)
	if name == "" {
		name = "unknown"
	}
	parts := []string{
		fmt.Sprintf("[RUN %s]", id),
		fmt.Sprintf("scenario=%s", name),
		fmt.Sprintf("event=%s", strings.TrimSpace(event)),
	}
	if detail != nil {
		parts = append(parts, fmt.Sprintf("detail=%s", formatPayload(detail)))
	}
	return strings.Join(parts, " ")
}

func buildCommandMessage(direction, op string, payload any) string {
	dir := strings.ToUpper(strings.TrimSpace(direction))
	opValue := strings.TrimSpace(op)
	if opValue == "" {
		opValue = "unknown"
	}
	return fmt.Sprintf("[%s] op=%s payload=%s", dir, opValue, util.Truncate(formatPayload(payload), maxCommandPayload))
}

func formatPayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return "null"
	case string:
		if strings.TrimSpace(v) == "" {
			return `""`
		}
		return v
	case []byte:
		if len(v) == 0 {
			return "[]"
		}
		return string(v)
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
