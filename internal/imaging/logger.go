// logger.go: structured logging for the imaging package
package imaging

import (
	"log/slog"
	"sync"

	"github.com/tphakala/cardmatch-go/internal/logging"
)

var (
	serviceLogger *slog.Logger
	loggerOnce    sync.Once
)

// getLogger returns the imaging package logger scoped to the imaging service.
func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		serviceLogger = logging.ForService("imaging")
		if serviceLogger == nil {
			serviceLogger = slog.Default()
		}
	})
	return serviceLogger
}
