package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alloy-di/alloy/internal/hostadapter"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [directories...]",
		Short: "Regenerate the wiring file on every source change",
		Long: `watch performs one full scan, then keeps a filesystem watch on the
given directories and regenerates the wiring file whenever an annotated
source file is created, modified or removed. Exits on SIGINT/SIGTERM.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			directories := args
			if len(directories) == 0 {
				directories = []string{"./..."}
			}

			reporter := reporterFromFlags()
			defer reporter.Sync()

			resolver := NewModuleResolver()
			moduleName, err := resolver.ResolveModuleName(resolvedModule())
			if err != nil {
				reporter.Error(err)
				return err
			}

			outputFile := outputFlag
			if outputFile == "" {
				outputFile = filepath.Join(".", generatedFileName)
			}
			packageImportPath, err := resolver.BuildPackagePath(moduleName, filepath.Dir(outputFile))
			if err != nil {
				reporter.Error(err)
				return err
			}
			outputPackage := packageFlag
			if outputPackage == "" {
				outputPackage = "wiring"
			}

			factoryDeferred, err := factoryDeferredSet(resolvedLazyServices())
			if err != nil {
				reporter.Error(err)
				return err
			}
			declDir := resolvedDeclDir()
			if declDir == "" {
				declDir = filepath.Dir(outputFile)
			}
			if v := resolvedVisualize(); v != "" {
				reporter.Warning(fmt.Sprintf("--visualize %s requested but diagram emission is not implemented; skipping", v))
			}

			adapter := hostadapter.New(hostadapter.Options{
				PackageName:             outputPackage,
				PackageImportPath:       packageImportPath,
				RuntimeImport:           moduleName + "/pkg/alloy",
				FactoryDeferred:         factoryDeferred,
				ContainerDeclarationDir: declDir,
			})
			adapter.OnBuildStart(moduleName)

			dirScanner := NewDirectoryScanner()
			packageDirs, err := dirScanner.PackageDirs(directories)
			if err != nil {
				reporter.Error(err)
				return err
			}
			for _, dir := range packageDirs {
				importPath, err := resolver.BuildPackagePath(moduleName, dir)
				if err != nil {
					reporter.Error(err)
					return err
				}
				files, err := dirScanner.GoFiles(dir)
				if err != nil {
					reporter.Error(err)
					return err
				}
				for _, file := range files {
					source, err := os.ReadFile(file)
					if err != nil {
						reporter.Error(err)
						return err
					}
					if err := adapter.OnTransform(file, importPath, string(source)); err != nil {
						reporter.Error(err)
						return err
					}
				}
			}

			regenerate := func() {
				out, err := adapter.OnLoad(hostadapter.VirtualModuleID)
				if err != nil {
					reporter.Error(err)
					return
				}
				if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
					reporter.Error(err)
					return
				}
				if err := os.WriteFile(outputFile, []byte(out.Source), 0o644); err != nil {
					reporter.Error(err)
					return
				}
				reporter.Success("regenerated %s and %s (%d service(s))", outputFile, filepath.Join(declDir, "alloy_identifiers_gen.go"), len(out.Identifiers))
			}
			regenerate()

			watcher, err := hostadapter.NewWatcher(adapter, func(dir string) (string, error) {
				return resolver.BuildPackagePath(moduleName, dir)
			})
			if err != nil {
				reporter.Error(err)
				return err
			}
			defer watcher.Close()

			for _, dir := range packageDirs {
				if err := watcher.AddRoot(dir); err != nil {
					reporter.Error(err)
					return err
				}
			}

			reporter.Info("watching for changes, press Ctrl+C to stop")
			go watcher.Run(
				func(err error) { reporter.Warning(err.Error()) },
				regenerate,
			)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
			return nil
		},
	}

	cmd.Flags().StringVar(&outputFlag, "output", "", "path to write the generated wiring file (default: ./alloy_wiring_generated.go)")
	cmd.Flags().StringVar(&packageFlag, "package", "wiring", "package name of the generated wiring file")

	return cmd
}
