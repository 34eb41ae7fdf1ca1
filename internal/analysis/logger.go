// logger.go: structured logging for the analysis package
package analysis

import (
	"log/slog"
	"sync"

	"github.com/tphakala/cardmatch-go/internal/logging"
)

var (
	serviceLogger *slog.Logger
	loggerOnce    sync.Once
)

func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		serviceLogger = logging.ForService("analysis")
		if serviceLogger == nil {
			serviceLogger = slog.Default()
		}
	})
	return serviceLogger
}
