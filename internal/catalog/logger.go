// logger.go: structured logging for the catalog package
package catalog

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
		serviceLogger = logging.ForService("catalog")
		if serviceLogger == nil {
			serviceLogger = slog.Default()
		}
	})
	return serviceLogger
}
