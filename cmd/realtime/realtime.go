package realtime

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tphakala/cardmatch-go/internal/analysis"
	"github.com/tphakala/cardmatch-go/internal/conf"
	"github.com/tphakala/cardmatch-go/internal/scanner"
)

// Command creates a new command for continuous card scanning.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "realtime",
		Short: "Scan frames in realtime mode",
		Long:  "Watch the frame source directory and identify cards as frames arrive.",
		RunE: func(cmd *cobra.Command, args []string) error {
			source := scanner.NewDirectorySource(settings.Realtime.Source)
			return analysis.RealtimeAnalysis(settings, source)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the realtime command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Realtime.Source, "source", viper.GetString("realtime.source"), "Directory watched for captured frames")
	cmd.Flags().IntVar(&settings.Realtime.Interval, "interval", viper.GetInt("realtime.interval"), "Scan interval in milliseconds")
	cmd.Flags().Float64Var(&settings.Realtime.Window, "window", viper.GetFloat64("realtime.window"), "Detection window in seconds")
	cmd.Flags().IntVar(&settings.Realtime.MinDetections, "mindetections", viper.GetInt("realtime.mindetections"), "Samples required within the window to confirm")
	cmd.Flags().Float64Var(&settings.Realtime.Cooldown, "cooldown", viper.GetFloat64("realtime.cooldown"), "Per-card confirmation cooldown in seconds")
	cmd.Flags().BoolVar(&settings.Metrics.Enabled, "metrics", viper.GetBool("metrics.enabled"), "Enable Prometheus metrics endpoint")
	cmd.Flags().StringVar(&settings.Metrics.Listen, "listen", viper.GetString("metrics.listen"), "Listen address and port of metrics endpoint")

	// Bind flags to the viper settings
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
