// Command alloy is the compiler's entrypoint: it scans annotated Go source,
// ingests prebuilt-library manifests, and writes the generated wiring
// package that populates the runtime container.
package main

import (
	"os"

	"github.com/alloy-di/alloy/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
