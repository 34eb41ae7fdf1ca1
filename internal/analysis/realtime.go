// realtime.go: live scan session against a frame source
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/tphakala/cardmatch-go/internal/conf"
	"github.com/tphakala/cardmatch-go/internal/logging"
	"github.com/tphakala/cardmatch-go/internal/observability"
	"github.com/tphakala/cardmatch-go/internal/scanner"
)

// RealtimeAnalysis starts the periodic scan loop against the given frame
// source and blocks until a termination signal arrives. Confirmed matches
// are printed as they are emitted; the collection layer consumes the same
// channel in an embedded deployment.
func RealtimeAnalysis(settings *conf.Settings, source scanner.FrameSource) error {
	sessionID := uuid.New().String()

	// Confirmed matches additionally go to the rotated session log so a
	// long-running node keeps a durable record across restarts.
	var matchLog *slog.Logger
	if settings.Main.Log.Enabled {
		fileLogger, closeLog, err := logging.NewFileLogger(
			settings.Main.Log.Path, settings.Main.Name, slog.LevelInfo,
			settings.Main.Log.MaxSize, settings.Main.Log.MaxAge)
		if err != nil {
			getLogger().Error("failed to open session log, continuing without it",
				"path", settings.Main.Log.Path, "error", err)
		} else {
			matchLog = fileLogger
			defer func() { _ = closeLog() }()
		}
	}

	var metrics *observability.Metrics
	if settings.Metrics.Enabled {
		var err error
		metrics, err = observability.NewMetrics()
		if err != nil {
			return fmt.Errorf("error initializing metrics: %w", err)
		}
		go func() {
			if err := metrics.Serve(settings.Metrics.Listen); err != nil {
				getLogger().Error("metrics endpoint failed", "error", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	idx, closeCatalog, err := loadIndex(ctx, settings, metrics)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeCatalog(); err != nil {
			getLogger().Error("failed to close catalog", "error", err)
		}
	}()

	encoder, err := buildEncoder(settings)
	if err != nil {
		return err
	}

	processor := scanner.NewProcessor(&settings.Realtime, metrics)
	loop := scanner.NewLoop(settings, source, encoder, idx, buildReader(settings), processor, metrics)

	getLogger().Info("starting realtime scan session",
		"session_id", sessionID,
		"interval_ms", settings.Realtime.Interval,
		"encoder", encoder.ID(),
		"catalog_size", idx.Size())
	fmt.Printf("Starting scanner in realtime mode. Interval: %dms, window: %.1fs, min detections: %d\n",
		settings.Realtime.Interval,
		settings.Realtime.Window,
		settings.Realtime.MinDetections)

	go loop.Run(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case match := <-processor.Matches():
			fmt.Printf("Confirmed: %s (%s) score %.2f at %s\n",
				match.DisplayName, match.EntryID, match.Score,
				match.Timestamp.Format("15:04:05"))
			if matchLog != nil {
				matchLog.Info("confirmed match",
					"session_id", sessionID,
					"entry_id", match.EntryID,
					"display_name", match.DisplayName,
					"score", match.Score)
			}
		case sig := <-sigChan:
			getLogger().Info("received signal, stopping scan session",
				"signal", sig.String(), "session_id", sessionID)
			cancel()
			return nil
		}
	}
}
