// telemetry.go: optional Sentry reporting for enhanced errors
package errors

import (
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

var (
	telemetryEnabled bool
	telemetryMu      sync.RWMutex
)

// InitTelemetry configures Sentry error reporting. Reporting stays disabled
// if dsn is empty or initialization fails, and errors are then handled
// locally only.
func InitTelemetry(dsn, release string, debug bool) error {
	if dsn == "" {
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Release:          release,
		Debug:            debug,
		AttachStacktrace: true,
	})
	if err != nil {
		return New(err).Component("errors").Category(CategoryConfiguration).Build()
	}

	telemetryMu.Lock()
	telemetryEnabled = true
	telemetryMu.Unlock()
	return nil
}

// FlushTelemetry drains pending events before shutdown.
func FlushTelemetry(timeout time.Duration) {
	telemetryMu.RLock()
	enabled := telemetryEnabled
	telemetryMu.RUnlock()
	if enabled {
		sentry.Flush(timeout)
	}
}

func reportToTelemetry(ee *EnhancedError) {
	telemetryMu.RLock()
	enabled := telemetryEnabled
	telemetryMu.RUnlock()
	if !enabled {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", ee.GetComponent())
		scope.SetTag("category", string(ee.Category))
		if ee.Priority != "" {
			scope.SetTag("priority", ee.Priority)
		}
		if ctx := ee.GetContext(); ctx != nil {
			scope.SetContext("error_context", ctx)
		}
		sentry.CaptureException(ee.Err)
	})
}
