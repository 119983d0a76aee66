package cli

import (
	"github.com/spf13/cobra"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show order statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := rootOpts.deps.API.Statistics(cmd.Context())
			if err != nil {
				return err
			}
			return rootOpts.printer(cmd).stats(stats)
		},
	}
}
