package sb3

import (
	"bytes"
	"os/exec"
	"sort"
	"strings"

	"github.com/goboscript/goboc/internal/ast"
	"github.com/goboscript/goboc/internal/diag"
)

// VarEntry is one row of the target's "variables" object: a storage key and
// the [display-name, initial, is_cloud?] value Scratch expects (spec 4.5).
type VarEntry struct {
	Key     string
	Display string
	IsCloud bool
}

// ListEntry is one row of the target's "lists" object.
type ListEntry struct {
	Key      string
	Display  string
	Contents []string
}

// DeclareVars expands every used sprite-level and local variable into its
// final set of scalar storage entries: struct variables become one entry per
// declared field, sharing the "{field}.{var}" prefix convention qualifyName
// uses, and locals are additionally prefixed with their owning callable's
// name (spec 4.5, testable scenarios 3 and 4). Unused declarations are
// dropped: a sprite var is skipped unless IsUsed, and a callable's locals
// are skipped unless the callable itself is in UsedProcs/UsedFuncs — dead
// code never reaches the archive.
func DeclareVars(sink *diag.Sink, stage, sprite *ast.Sprite) []VarEntry {
	var out []VarEntry
	for _, procName := range sortedKeys(sprite.Procs) {
		if !sprite.UsedProcs[procName] {
			continue
		}
		proc := sprite.Procs[procName]
		for _, localName := range sortedKeys(proc.Locals) {
			out = append(out, expandVar(sink, stage, sprite, proc.Locals[localName], procName)...)
		}
	}
	for _, fnName := range sortedKeys(sprite.Funcs) {
		if !sprite.UsedFuncs[fnName] {
			continue
		}
		fn := sprite.Funcs[fnName]
		for _, localName := range sortedKeys(fn.Locals) {
			out = append(out, expandVar(sink, stage, sprite, fn.Locals[localName], fnName)...)
		}
	}
	for _, name := range sortedKeys(sprite.Vars) {
		if !sprite.Vars[name].IsUsed {
			continue
		}
		out = append(out, expandVar(sink, stage, sprite, sprite.Vars[name], "")...)
	}
	return out
}

func expandVar(sink *diag.Sink, stage, sprite *ast.Sprite, v *ast.Var, callable string) []VarEntry {
	switch v.Type.Kind {
	case ast.TypeValue:
		key := v.Name
		if callable != "" {
			key = qualifyLocalVarName(callable, key)
		}
		display := key
		if v.IsCloud {
			display = "☁ " + key
		}
		return []VarEntry{{Key: key, Display: display, IsCloud: v.IsCloud}}
	case ast.TypeStruct:
		st := lookupStruct(stage, sprite, v.Type.Name)
		if st == nil {
			sink.Report(diag.Diagnostic{Kind: diag.UnrecognizedStruct, Span: v.Type.Span, StructName: v.Type.Name})
			return nil
		}
		out := make([]VarEntry, 0, len(st.Fields))
		for _, field := range st.Fields {
			key := qualifyStructVarName(field, v.Name)
			if callable != "" {
				key = qualifyLocalVarName(callable, key)
			}
			out = append(out, VarEntry{Key: key, Display: key})
		}
		return out
	default:
		return nil
	}
}

// DeclareLists expands every used list declaration, transposing struct-typed
// list contents from a row-major flat array into one per-field list (spec
// 4.5). An unused list (not IsUsed) is dropped, same as an unused var.
func DeclareLists(sink *diag.Sink, stage, sprite *ast.Sprite) []ListEntry {
	var out []ListEntry
	for _, name := range sortedKeys(sprite.Lists) {
		if !sprite.Lists[name].IsUsed {
			continue
		}
		out = append(out, expandList(sink, stage, sprite, sprite.Lists[name])...)
	}
	return out
}

func expandList(sink *diag.Sink, stage, sprite *ast.Sprite, l *ast.List) []ListEntry {
	contents := listContents(sink, l)
	switch l.Type.Kind {
	case ast.TypeValue:
		return []ListEntry{{Key: l.Name, Display: l.Name, Contents: contents}}
	case ast.TypeStruct:
		st := lookupStruct(stage, sprite, l.Type.Name)
		if st == nil {
			sink.Report(diag.Diagnostic{Kind: diag.UnrecognizedStruct, Span: l.Type.Span, StructName: l.Type.Name})
			return nil
		}
		width := len(st.Fields)
		columns := transpose(contents, width)
		out := make([]ListEntry, 0, width)
		for i, field := range st.Fields {
			key := qualifyStructVarName(field, l.Name)
			out = append(out, ListEntry{Key: key, Display: key, Contents: columns[i]})
		}
		return out
	default:
		return nil
	}
}

// listContents evaluates a list's compile-time data source: either the
// pre-evaluated literal array, or a shell command whose newline-split
// stdout becomes the list's contents (spec 4.5, 6 "Compile-time list
// population").
func listContents(sink *diag.Sink, l *ast.List) []string {
	if l.Data == nil {
		return nil
	}
	if l.Data.Cmd != "" {
		out, err := runListCmd(l.Data.Cmd)
		if err != nil {
			sink.Report(diag.Diagnostic{Kind: diag.IOError, Span: l.Span, Err: err})
			return nil
		}
		return out
	}
	return l.Data.Array
}

func runListCmd(cmd string) ([]string, error) {
	c := exec.Command("sh", "-c", cmd)
	var stdout bytes.Buffer
	c.Stdout = &stdout
	if err := c.Run(); err != nil {
		return nil, err
	}
	text := strings.TrimRight(stdout.String(), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

// transpose reads rows as a row-major matrix of the given column width and
// returns one slice per column; a short final row is zero-padded with empty
// strings, matching how goboscript's original compiler tolerates ragged
// cmd() output.
func transpose(rows []string, width int) [][]string {
	columns := make([][]string, width)
	for col := range columns {
		columns[col] = make([]string, 0, len(rows)/max(width, 1))
	}
	for i, v := range rows {
		col := i % width
		columns[col] = append(columns[col], v)
	}
	height := (len(rows) + width - 1) / max(width, 1)
	for col := range columns {
		for len(columns[col]) < height {
			columns[col] = append(columns[col], "")
		}
	}
	return columns
}

func lookupStruct(stage, sprite *ast.Sprite, name string) *ast.Struct {
	if st, ok := sprite.Structs[name]; ok {
		return st
	}
	if stage != nil {
		if st, ok := stage.Structs[name]; ok {
			return st
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
