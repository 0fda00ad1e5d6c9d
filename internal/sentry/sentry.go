package sentryutil

import (
	"fmt"
	"healthhelper/internal/config"
	"healthhelper/internal/logger"
	"os"
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"
)

func Init() {
	dsn := config.Cfg.SentryDSN
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: config.Cfg.SentryEnvironment,
		Release:     config.Cfg.SentryRelease,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			// Profile answers are health data; they never leave the process.
			event.User = sentry.User{}
			event.Extra = nil
			return event
		},
	})
	if err != nil {
		logger.Warn("sentry: init failed (non-blocking)", map[string]interface{}{"error": err.Error()})
	}
	if dsn == "" {
		logger.Debug("sentry: SENTRY_DSN empty, error tracking disabled", nil)
	} else {
		logger.Info("sentry: initialized", nil)
	}
}

func Flush() { sentry.Flush(2 * time.Second) }

func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

func CaptureMessage(msg string, level sentry.Level, tags map[string]string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(level)
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureMessage(msg)
	})
}

// LevelWarning returns sentry.LevelWarning so callers don't need to import sentry-go directly.
func LevelWarning() sentry.Level { return sentry.LevelWarning }

// Recover reports a panic to Sentry, flushes, and exits with status 2.
// Use as the first deferred call in main.
func Recover() {
	if r := recover(); r != nil {
		logger.Error("panic", map[string]interface{}{
			"error": fmt.Sprintf("%v", r), "stack": string(debug.Stack()),
		})
		hub := sentry.CurrentHub().Clone()
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetLevel(sentry.LevelFatal)
			hub.Recover(r)
		})
		hub.Flush(2 * time.Second)
		os.Exit(2)
	}
}
