package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/goboscript/goboc/internal/diag"
	"github.com/goboscript/goboc/internal/preprocess"
)

// sourceResolver translates a diagnostic's translation-unit span back to a
// (file, line, column, line-text) tuple for Rust/Clang-style rendering
// (diag.Render). It is optional: the CLI's input surface is a resolved
// project description (SPEC_FULL.md §6), not raw .gs source, so a caller
// only has one to offer when the project directory also happens to carry
// the .gs sources the description was compiled from.
type sourceResolver struct {
	unit *preprocess.Unit
	text string
}

// newSourceResolver preprocesses entryPath (if it exists) purely to
// recover the position↔(file,offset) bijection (spec 4.10) diagnostics
// need for rendering; a missing entry point degrades to spanless
// rendering rather than failing the build.
func newSourceResolver(entryPath string) *sourceResolver {
	u, err := preprocess.New(entryPath)
	if err != nil {
		return nil
	}
	u.PreProcess()
	return &sourceResolver{unit: u, text: u.Text()}
}

func (r *sourceResolver) locate(span diagSpan) (file string, line, col int, sourceLine string, ok bool) {
	if r == nil || span.Start < 0 || span.Start >= len(r.text) {
		return "", 0, 0, "", false
	}
	file, offset := r.unit.TranslatePosition(span.Start)
	line, col, sourceLine = lineCol(r.text, span.Start, offset)
	return file, line, col, sourceLine, true
}

// diagSpan is the subset of ast.Span render needs; kept local so this file
// does not need to import internal/ast just for a two-field struct.
type diagSpan struct{ Start, End int }

func lineCol(text string, unitPos, fileOffset int) (line, col int, sourceLine string) {
	line = 1
	lineStart := 0
	for i := 0; i < unitPos && i < len(text); i++ {
		if text[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	lineEnd := len(text)
	if idx := strings.IndexByte(text[lineStart:], '\n'); idx >= 0 {
		lineEnd = lineStart + idx
	}
	col = unitPos - lineStart + 1
	return line, col, text[lineStart:lineEnd]
}

// renderDiagnostics writes every sink's diagnostics to w, sorted by sprite
// name for deterministic output, and reports whether any were
// error-severity (spec 7; the CLI's exit code depends on this).
func renderDiagnostics(w io.Writer, sinks map[string]*diag.Sink, resolver *sourceResolver, useColor bool) (hasErrors bool) {
	names := make([]string, 0, len(sinks))
	for name := range sinks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sink := sinks[name]
		for _, d := range sink.Diagnostics {
			hasErrors = hasErrors || d.Kind.IsError()
			renderOne(w, name, d, resolver, useColor)
		}
	}
	return hasErrors
}

func renderOne(w io.Writer, sprite string, d diag.Diagnostic, resolver *sourceResolver, useColor bool) {
	label := "warning"
	color := colorYellow
	if d.Kind.IsError() {
		label = "error"
		color = colorRed
	}
	prefix := colorize(label, color, useColor)

	file, line, col, sourceLine, ok := resolver.locate(diagSpan{d.Span.Start, d.Span.End})
	if !ok {
		fmt.Fprintf(w, "%s[%s]: %s (span %s)\n", prefix, sprite, d.Message(), d.Span)
		return
	}
	fmt.Fprintln(w, diag.Render(d, file, line, col, sourceLine))
}
