package file

import (
	"github.com/spf13/cobra"
	"github.com/tphakala/cardmatch-go/internal/analysis"
	"github.com/tphakala/cardmatch-go/internal/conf"
)

// Command creates a new file command for identifying the card in a single image.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file [input.jpg]",
		Short: "Identify the card in an image file",
		Long:  `Run the full recognition pipeline on a single image and print the ranked candidates.`,
		Args:  cobra.ExactArgs(1), // the command expects exactly one argument
		RunE: func(cmd *cobra.Command, args []string) error {
			return analysis.FileAnalysis(cmd.Context(), settings, args[0])
		},
	}

	return cmd
}
