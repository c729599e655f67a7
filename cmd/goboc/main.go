// Command goboc compiles a resolved goboscript project description into a
// Scratch 3 .sb3 archive (spec.md §1, §6). Lexing, parsing, and name
// resolution are out of scope; this binary starts from a resolved
// project.json (see internal/ast's DecodeProject and testdata/cat.json).
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// globalNoColor mirrors the root command's persistent --no-color flag.
// build.go/watch.go read it directly rather than threading it through
// buildOptions, since cobra sets it once while parsing flags, before any
// subcommand's RunE executes.
var globalNoColor bool

func main() {
	var verbose bool

	root := &cobra.Command{
		Use:           "goboc",
		Short:         "Compile resolved goboscript project descriptions to .sb3 archives",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
				ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			})))
		},
	}
	root.PersistentFlags().BoolVar(&globalNoColor, "no-color", false, "disable colored diagnostic output")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "raise the log level to debug")

	root.AddCommand(newBuildCmd(), newWatchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", colorize("error:", colorRed, shouldUseColor(globalNoColor)), err)
		os.Exit(1)
	}
}
