package compare

import (
	"github.com/spf13/cobra"
	"github.com/tphakala/cardmatch-go/internal/analysis"
	"github.com/tphakala/cardmatch-go/internal/conf"
)

// Command creates the compare command, a debugging harness that embeds two
// images and prints their vector norms and cosine similarity. Running it on
// two hosts against the same files checks that embeddings are bit-identical
// across machines.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [first.jpg] [second.jpg]",
		Short: "Compare the embeddings of two images",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := analysis.CompareImages(cmd.Context(), settings, args[0], args[1])
			return err
		},
	}

	return cmd
}
