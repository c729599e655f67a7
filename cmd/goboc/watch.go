package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goboscript/goboc/internal/ast"
	"github.com/goboscript/goboc/internal/preprocess"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	opts := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Recompile <dir> on every source or costume change",
		Long: `watch recompiles the whole project on any change to project.json, the
.gs sources the preprocessor's include table reaches from <dir>/main.gs (if
present), or any referenced costume file (SPEC_FULL.md §4.13). It never
attempts incremental recompilation — the compiler is single-threaded and
bounded by file I/O (spec §5), so a full recompile is cheap enough that
incrementality is not worth the complexity. A recompile already in flight
when another change arrives is coalesced trailing-edge, never queued.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(args[0], opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "out.sb3", "output .sb3 path")
	cmd.Flags().BoolVar(&opts.validate, "validate", false, "validate the emitted project.json against the embedded Scratch schema")
	cmd.Flags().StringVar(&opts.cachePath, "cache", "", "costume-hash cache file (default <dir>/.goboc-cache)")
	return cmd
}

func runWatch(dir string, opts *buildOptions, stdout io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	rearm := func() {
		for _, p := range watchSet(dir) {
			// Errors here (e.g. a costume path that does not exist yet) are
			// not fatal: the next rearm after a successful build will pick
			// it up once it exists.
			_ = watcher.Add(p)
		}
	}
	rearm()

	fmt.Fprintf(stdout, "%s %s\n", colorize("watching", colorCyan, shouldUseColor(globalNoColor)), dir)
	if _, err := runBuild(dir, opts, stdout); err != nil {
		fmt.Fprintf(stdout, "%s: %v\n", colorize("error", colorRed, shouldUseColor(globalNoColor)), err)
	}

	// debounce coalesces bursts of events (a save often fires several in a
	// row) into one trailing recompile. The timer only signals fire; the
	// rebuild itself runs on this loop, so builds never overlap.
	const debounce = 150 * time.Millisecond
	var timer *time.Timer
	fire := make(chan struct{}, 1)
	rebuild := func() {
		fmt.Fprintf(stdout, "%s\n", colorize("change detected, rebuilding", colorCyan, shouldUseColor(globalNoColor)))
		if _, err := runBuild(dir, opts, stdout); err != nil {
			fmt.Fprintf(stdout, "%s: %v\n", colorize("error", colorRed, shouldUseColor(globalNoColor)), err)
		}
		rearm()
	}

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			rebuild()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(stdout, "%s: %v\n", colorize("watch error", colorYellow, shouldUseColor(globalNoColor)), err)
		}
	}
}

// watchSet collects every path a rebuild of dir depends on: the resolved
// project description itself, every file the preprocessor's include table
// reaches from dir/main.gs if one exists, and every costume referenced by
// any sprite.
func watchSet(dir string) []string {
	paths := []string{filepath.Join(dir, "project.json")}

	entry := filepath.Join(dir, "main.gs")
	if u, err := preprocess.New(entry); err == nil {
		u.PreProcess()
		seen := map[string]bool{}
		for _, inc := range u.Includes() {
			if !seen[inc.Path] {
				seen[inc.Path] = true
				paths = append(paths, inc.Path)
			}
		}
	}

	if proj, err := loadProject(dir); err == nil {
		paths = append(paths, costumePaths(proj.Stage)...)
		for _, name := range proj.SpriteOrder {
			paths = append(paths, costumePaths(proj.Sprites[name])...)
		}
	}
	return paths
}

func costumePaths(sprite *ast.Sprite) []string {
	out := make([]string, 0, len(sprite.Costumes))
	for _, c := range sprite.Costumes {
		out = append(out, c.Path)
	}
	return out
}
