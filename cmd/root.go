package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tphakala/cardmatch-go/cmd/benchmark"
	"github.com/tphakala/cardmatch-go/cmd/catalog"
	"github.com/tphakala/cardmatch-go/cmd/compare"
	"github.com/tphakala/cardmatch-go/cmd/file"
	"github.com/tphakala/cardmatch-go/cmd/realtime"
	"github.com/tphakala/cardmatch-go/internal/conf"
	"github.com/tphakala/cardmatch-go/internal/logging"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cardmatch",
		Short: "CardMatch-Go CLI",
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
	}

	subcommands := []*cobra.Command{
		realtime.Command(settings),
		file.Command(settings),
		compare.Command(settings),
		benchmark.Command(settings),
		catalog.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := cmd.Flags().Parse(args); err != nil {
			return err
		}
		if settings.Debug {
			logging.SetLevel(slog.LevelDebug)
		}
		// Re-validate after flags override file values.
		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().IntVarP(&settings.Matcher.TopK, "topk", "k", viper.GetInt("matcher.topk"), "Number of visual candidates per frame")
	rootCmd.PersistentFlags().BoolVar(&settings.OCR.Enabled, "ocr", viper.GetBool("ocr.enabled"), "Enable the OCR signal")
	rootCmd.PersistentFlags().StringVar(&settings.Catalog.SQLite.Path, "catalog", viper.GetString("catalog.sqlite.path"), "Path to the catalog database")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
