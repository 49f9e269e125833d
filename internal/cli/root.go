// Package cli wires the alloy compiler's stages (directory scanning,
// manifest ingestion, codegen) into a cobra command tree, following the
// same command/config/reporter split as the reference CLI this compiler
// was adapted from.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	moduleFlag    string
	outputFlag    string
	packageFlag   string
	manifestGlobs []string
	lazyServices  []string
	declDirFlag   string
	visualizeFlag string
	verboseFlag   bool
	quietFlag     bool

	rootCmd = &cobra.Command{
		Use:   "alloy",
		Short: "A compile-time dependency injection compiler",
		Long: `alloy scans Go source for //alloy:service and //alloy:singleton
annotated types and generates a wiring package that registers every
discovered service, at init time, against a process-wide container.

It also ingests prebuilt-library manifests so packages that ship their own
alloy.manifest.yaml can be composed into a build without re-scanning their
source.`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .alloy.yaml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&moduleFlag, "module", "", "override the Go module path (default: read from go.mod)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose diagnostic output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringArrayVar(&lazyServices, "lazy-services", nil, "identifier key (alloy:<path>#<Class>) to emit as factory-deferred (repeatable)")
	rootCmd.PersistentFlags().StringVar(&declDirFlag, "container-declaration-dir", "", "directory to write the ambient declarations file to (default: alongside --output)")
	rootCmd.PersistentFlags().StringVar(&visualizeFlag, "visualize", "", "dependency-graph diagram path; no diagram is written, a non-empty value only prints a warning")

	_ = viper.BindPFlag("module", rootCmd.PersistentFlags().Lookup("module"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("lazy_services", rootCmd.PersistentFlags().Lookup("lazy-services"))
	_ = viper.BindPFlag("container_declaration_dir", rootCmd.PersistentFlags().Lookup("container-declaration-dir"))
	_ = viper.BindPFlag("visualize", rootCmd.PersistentFlags().Lookup("visualize"))

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newCleanCmd())
	rootCmd.AddCommand(newWatchCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".alloy")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("ALLOY")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "warning: failed to read config file: %v\n", err)
		}
	}
}

// Execute runs the root command. Called once from cmd/alloy/main.go.
func Execute() error {
	return rootCmd.Execute()
}

func reporterFromFlags() *Reporter {
	verbose := verboseFlag || viper.GetBool("verbose")
	quiet := quietFlag || viper.GetBool("quiet")
	return NewReporter(verbose, quiet)
}

func resolvedModule() string {
	if moduleFlag != "" {
		return moduleFlag
	}
	return viper.GetString("module")
}

func resolvedLazyServices() []string {
	if len(lazyServices) > 0 {
		return lazyServices
	}
	return viper.GetStringSlice("lazy_services")
}

func resolvedDeclDir() string {
	if declDirFlag != "" {
		return declDirFlag
	}
	return viper.GetString("container_declaration_dir")
}

func resolvedVisualize() string {
	if visualizeFlag != "" {
		return visualizeFlag
	}
	return viper.GetString("visualize")
}
