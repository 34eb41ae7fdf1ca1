package catalog

import (
	"github.com/spf13/cobra"
	"github.com/tphakala/cardmatch-go/internal/analysis"
	"github.com/tphakala/cardmatch-go/internal/conf"
)

// Command creates the catalog command group for managing the card catalog.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the card catalog",
	}

	cmd.AddCommand(importCommand(settings), listCommand(settings))

	return cmd
}

func importCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "import [directory]",
		Short: "Import cards from a manifest directory",
		Long:  `Read manifest.yaml from the directory, embed each referenced image and upsert the entries into the catalog database.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return analysis.ImportCatalog(cmd.Context(), settings, args[0])
		},
	}
}

func listCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return analysis.ListCatalog(cmd.Context(), settings)
		},
	}
}
