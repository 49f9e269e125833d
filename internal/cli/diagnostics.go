package cli

import (
	"fmt"
	"os"

	compileerrors "github.com/alloy-di/alloy/internal/errors"
	"github.com/fatih/color"
	"go.uber.org/zap"
)

// Reporter renders compiler diagnostics for a human at a terminal, and logs
// structured events for anything piping the CLI's output elsewhere.
type Reporter struct {
	log     *zap.Logger
	verbose bool
	quiet   bool
}

func NewReporter(verbose, quiet bool) *Reporter {
	var log *zap.Logger
	if verbose {
		log, _ = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		if quiet {
			cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
		}
		log, _ = cfg.Build()
	}
	return &Reporter{log: log, verbose: verbose, quiet: quiet}
}

func (r *Reporter) Info(format string, args ...any) {
	if r.quiet {
		return
	}
	color.New(color.FgCyan).Fprint(os.Stdout, "> ")
	fmt.Fprintf(os.Stdout, format+"\n", args...)
	r.log.Info(fmt.Sprintf(format, args...))
}

func (r *Reporter) Success(format string, args ...any) {
	if r.quiet {
		return
	}
	color.New(color.FgGreen, color.Bold).Fprint(os.Stdout, "✓ ")
	fmt.Fprintf(os.Stdout, format+"\n", args...)
	r.log.Info(fmt.Sprintf(format, args...))
}

func (r *Reporter) Warning(message string, suggestions ...string) {
	color.New(color.FgYellow, color.Bold).Fprint(os.Stderr, "! ")
	fmt.Fprintf(os.Stderr, "%s\n", message)
	for _, s := range suggestions {
		fmt.Fprintf(os.Stderr, "    - %s\n", s)
	}
	r.log.Warn(message)
}

// Error renders err with as much structure as it carries: a compileerrors
// CompileError gets its code, location and suggestions printed; anything
// else falls back to a bare message.
func (r *Reporter) Error(err error) {
	fmt.Fprintf(os.Stderr, "\nERROR: alloy generation failed\n")
	fmt.Fprintf(os.Stderr, "===============================\n\n")

	if agg, ok := err.(*compileerrors.MultipleErrors); ok {
		for _, e := range agg.Errors {
			r.reportCompileError(e)
		}
		r.log.Error("generation failed", zap.Int("errorCount", len(agg.Errors)))
		return
	}

	if ce, ok := err.(compileerrors.CompileError); ok {
		r.reportCompileError(ce)
		r.log.Error("generation failed", zap.String("code", ce.Code().String()))
		return
	}

	fmt.Fprintf(os.Stderr, "Message: %s\n\n", err.Error())
	r.log.Error("generation failed", zap.Error(err))
}

func (r *Reporter) reportCompileError(ce compileerrors.CompileError) {
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "[%s] ", ce.Code())
	fmt.Fprintf(os.Stderr, "%s\n", ce.Error())
	if loc := ce.Location(); !loc.IsEmpty() {
		fmt.Fprintf(os.Stderr, "  at %s\n", loc)
	}
	for _, s := range ce.Suggestions() {
		fmt.Fprintf(os.Stderr, "    - %s\n", s)
	}
	fmt.Fprintln(os.Stderr)
}

func (r *Reporter) Sync() {
	_ = r.log.Sync()
}
