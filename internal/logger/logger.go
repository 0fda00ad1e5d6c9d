package logger

import (
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	mu     sync.Mutex
	output = newBackend(os.Stderr, "json")
)

func newBackend(w io.Writer, format string) *log.Logger {
	formatter := log.JSONFormatter
	if strings.EqualFold(format, "text") {
		formatter = log.LogfmtFormatter
	}
	return log.NewWithOptions(w, log.Options{
		TimeFunction:    log.NowUTC,
		TimeFormat:      time.RFC3339,
		ReportTimestamp: true,
		Formatter:       formatter,
		Level:           log.InfoLevel,
	})
}

// Configure sets level ("debug", "info", "warn", "error") and format ("json" or "text").
// Unknown levels keep the current level.
func Configure(level, format string) {
	mu.Lock()
	defer mu.Unlock()
	prev := output.GetLevel()
	output = newBackend(os.Stderr, format)
	output.SetLevel(prev)
	if lvl, err := log.ParseLevel(level); err == nil {
		output.SetLevel(lvl)
	}
}

// SetOutput redirects log lines to w, keeping the JSON format. Used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	lvl := output.GetLevel()
	output = newBackend(w, "json")
	output.SetLevel(lvl)
}

func emit(level log.Level, msg string, extra map[string]interface{}) {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kv := make([]interface{}, 0, 2*len(keys))
	for _, k := range keys {
		kv = append(kv, k, extra[k])
	}

	mu.Lock()
	l := output
	mu.Unlock()
	l.Log(level, msg, kv...)
}

func Debug(msg string, extra map[string]interface{}) {
	emit(log.DebugLevel, msg, extra)
}

func Info(msg string, extra map[string]interface{}) {
	emit(log.InfoLevel, msg, extra)
}

func Warn(msg string, extra map[string]interface{}) {
	emit(log.WarnLevel, msg, extra)
}

func Error(msg string, extra map[string]interface{}) {
	emit(log.ErrorLevel, msg, extra)
}
