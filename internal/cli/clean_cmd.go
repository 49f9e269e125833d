package cli

import (
	"github.com/spf13/cobra"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [directories...]",
		Short: "Remove previously generated wiring files",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			directories := args
			if len(directories) == 0 {
				directories = []string{"./..."}
			}

			reporter := reporterFromFlags()
			defer reporter.Sync()

			removed, err := NewCleaner().CleanGeneratedFiles(directories)
			if err != nil {
				reporter.Error(err)
				return err
			}
			if len(removed) == 0 {
				reporter.Info("nothing to clean")
				return nil
			}
			for _, f := range removed {
				reporter.Info("removed %s", f)
			}
			reporter.Success("removed %d generated file(s)", len(removed))
			return nil
		},
	}
}
