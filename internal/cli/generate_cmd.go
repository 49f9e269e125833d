package cli

import (
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [directories...]",
		Short: "Scan annotated Go source and write the generated wiring package",
		Long: `generate scans the given directories (or "./..." for the whole
module) for //alloy:service and //alloy:singleton annotated types, ingests
any manifests matched by --manifest, and writes a single generated wiring
file that registers every discovered service against the runtime container.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			directories := args
			if len(directories) == 0 {
				directories = []string{"./..."}
			}

			reporter := reporterFromFlags()
			defer reporter.Sync()

			gen := NewGenerator(reporter)
			err := gen.Run(Config{
				Directories:             directories,
				ManifestGlobs:           manifestGlobs,
				ModuleName:              resolvedModule(),
				OutputPackage:           packageFlag,
				OutputFile:              outputFlag,
				LazyServices:            resolvedLazyServices(),
				ContainerDeclarationDir: resolvedDeclDir(),
				Visualize:               resolvedVisualize(),
			})
			if err != nil {
				reporter.Error(err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outputFlag, "output", "", "path to write the generated wiring file (default: ./alloy_wiring_generated.go)")
	cmd.Flags().StringVar(&packageFlag, "package", "wiring", "package name of the generated wiring file")
	cmd.Flags().StringArrayVar(&manifestGlobs, "manifest", nil, "glob pattern matching manifest YAML files to ingest (repeatable)")

	return cmd
}
