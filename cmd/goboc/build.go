package main

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goboscript/goboc/internal/ast"
	"github.com/goboscript/goboc/internal/cache"
	"github.com/goboscript/goboc/internal/sb3"
	"github.com/goboscript/goboc/internal/validate"
	"github.com/spf13/cobra"
)

// buildOptions carries the build subcommand's flags; watch reuses it for
// every recompile.
type buildOptions struct {
	output    string
	validate  bool
	cachePath string
}

func newBuildCmd() *cobra.Command {
	opts := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "build <dir>",
		Short: "Compile a resolved goboscript project description into a .sb3 archive",
		Long: `build reads <dir>/project.json — a resolved project description shaped
like the internal/ast.Project types (see SPEC_FULL.md §6, testdata/cat.json
for the shape) — and streams it into a Scratch 3 project archive.

Lexing, parsing, and name resolution are out of scope for this compiler
(spec.md §1): project.json is expected to already be the output of that
front end.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exitCode, err := runBuild(args[0], opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if exitCode != 0 {
				os.Exit(exitCode)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "out.sb3", "output .sb3 path")
	cmd.Flags().BoolVar(&opts.validate, "validate", false, "validate the emitted project.json against the embedded Scratch schema")
	cmd.Flags().StringVar(&opts.cachePath, "cache", "", "costume-hash cache file (default <dir>/.goboc-cache)")
	return cmd
}

// runBuild implements one compile: load, emit, diagnose, exit code. It is
// shared verbatim between `goboc build` and each recompile `goboc watch`
// triggers (SPEC_FULL.md 4.13: watch "recompiles the whole project").
func runBuild(dir string, opts *buildOptions, stdout io.Writer) (exitCode int, err error) {
	proj, err := loadProject(dir)
	if err != nil {
		return 1, err
	}

	cachePath := opts.cachePath
	if cachePath == "" {
		cachePath = filepath.Join(dir, ".goboc-cache")
	}
	assetCache, err := cache.Load(cachePath)
	if err != nil {
		return 1, fmt.Errorf("loading cache: %w", err)
	}

	f, err := os.Create(opts.output)
	if err != nil {
		return 1, fmt.Errorf("creating %s: %w", opts.output, err)
	}

	driver := sb3.New(f, assetCache)
	emitErr := driver.Emit(proj)
	closeErr := f.Close()
	if emitErr != nil {
		return 1, fmt.Errorf("emitting %s: %w", opts.output, emitErr)
	}
	if closeErr != nil {
		return 1, fmt.Errorf("closing %s: %w", opts.output, closeErr)
	}

	if err := assetCache.Save(); err != nil {
		fmt.Fprintf(stdout, "%s: saving build cache: %v\n", colorize("warning", colorYellow, shouldUseColor(globalNoColor)), err)
	}

	resolver := newSourceResolver(filepath.Join(dir, "main.gs"))
	hasErrors := renderDiagnostics(stdout, driver.Sinks, resolver, shouldUseColor(globalNoColor))

	if opts.validate {
		if ok := validateArchive(opts.output, stdout, globalNoColor); !ok {
			hasErrors = true
		}
	}

	if hasErrors {
		return 1, nil
	}
	fmt.Fprintf(stdout, "%s %s\n", colorize("wrote", colorCyan, shouldUseColor(globalNoColor)), opts.output)
	return 0, nil
}

// loadProject decodes <dir>/project.json and rewrites every costume path
// relative to dir, since the resolved project description's paths are
// relative to the project root rather than the CLI's working directory.
func loadProject(dir string) (*ast.Project, error) {
	path := filepath.Join(dir, "project.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	proj, err := ast.DecodeProject(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rebaseCostumes(dir, proj.Stage)
	for _, name := range proj.SpriteOrder {
		rebaseCostumes(dir, proj.Sprites[name])
	}
	return proj, nil
}

func rebaseCostumes(dir string, sprite *ast.Sprite) {
	for i, c := range sprite.Costumes {
		if !filepath.IsAbs(c.Path) {
			sprite.Costumes[i].Path = filepath.Join(dir, c.Path)
		}
	}
}

// validateArchive reads project.json back out of the just-written archive
// and runs it through the embedded schema (SPEC_FULL.md 4.12), printing one
// line per violation. Returns false if any violation was found.
func validateArchive(archivePath string, stdout io.Writer, noColor bool) bool {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		fmt.Fprintf(stdout, "%s: reopening archive for validation: %v\n", colorize("error", colorRed, shouldUseColor(noColor)), err)
		return false
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "project.json" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			fmt.Fprintf(stdout, "%s: %v\n", colorize("error", colorRed, shouldUseColor(noColor)), err)
			return false
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			fmt.Fprintf(stdout, "%s: %v\n", colorize("error", colorRed, shouldUseColor(noColor)), err)
			return false
		}
		violations, err := validate.Project(data)
		if err != nil {
			fmt.Fprintf(stdout, "%s: schema validation failed to run: %v\n", colorize("error", colorRed, shouldUseColor(noColor)), err)
			return false
		}
		for _, v := range violations {
			fmt.Fprintf(stdout, "%s: %s\n", colorize("schema", colorRed, shouldUseColor(noColor)), v)
		}
		return len(violations) == 0
	}
	fmt.Fprintf(stdout, "%s: archive has no project.json entry\n", colorize("error", colorRed, shouldUseColor(noColor)))
	return false
}
